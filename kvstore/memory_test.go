package kvstore

import (
	"context"
	"errors"
	"testing"
)

func memTableDesc() TableDescription {
	return TableDescription{KeyAttribute: "key", KeyKind: KindString, TTLAttribute: "ttl_date"}
}

func TestMemory_TableLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.DescribeTable(ctx, "t"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err := m.CreateTable(ctx, "t", memTableDesc()); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := m.CreateTable(ctx, "t", memTableDesc()); !errors.Is(err, ErrTableExists) {
		t.Fatalf("got %v, want ErrTableExists", err)
	}
	desc, err := m.DescribeTable(ctx, "t")
	if err != nil {
		t.Fatalf("DescribeTable: %v", err)
	}
	if desc.KeyAttribute != "key" || desc.TTLAttribute != "ttl_date" {
		t.Fatalf("unexpected description: %+v", desc)
	}
}

func TestMemory_CreateTableValidates(t *testing.T) {
	m := NewMemory()
	if err := m.CreateTable(context.Background(), "t", TableDescription{}); err == nil {
		t.Fatal("expected error for empty description")
	}
	if err := m.CreateTable(context.Background(), "t", TableDescription{KeyAttribute: "key", KeyKind: "X"}); err == nil {
		t.Fatal("expected error for unknown key kind")
	}
}

func TestMemory_CRUD(t *testing.T) {
	m := NewMemory().Seed("t", memTableDesc())
	ctx := context.Background()

	if _, err := m.GetItem(ctx, "t", "key", "a", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	rec := Record{"key": String("a"), "value": Binary([]byte("v")), "ttl_date": Number(42)}
	if err := m.PutItem(ctx, "t", "key", rec); err != nil {
		t.Fatalf("PutItem: %v", err)
	}

	got, err := m.GetItem(ctx, "t", "key", "a", true)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if v, _ := got.BinaryAttr("value"); string(v) != "v" {
		t.Fatalf("value = %q, want %q", v, "v")
	}
	if n, _ := got.NumberAttr("ttl_date"); n != 42 {
		t.Fatalf("ttl_date = %d, want 42", n)
	}

	// Update merges a single field, leaving the rest intact.
	if err := m.UpdateItem(ctx, "t", "key", "a", Record{"ttl_date": Number(99)}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	got, _ = m.GetItem(ctx, "t", "key", "a", true)
	if n, _ := got.NumberAttr("ttl_date"); n != 99 {
		t.Fatalf("ttl_date = %d, want 99", n)
	}
	if v, _ := got.BinaryAttr("value"); string(v) != "v" {
		t.Fatalf("value lost on update: %q", v)
	}

	// Put is a full overwrite: stale fields disappear.
	if err := m.PutItem(ctx, "t", "key", Record{"key": String("a"), "value": Binary([]byte("w"))}); err != nil {
		t.Fatalf("PutItem: %v", err)
	}
	got, _ = m.GetItem(ctx, "t", "key", "a", true)
	if _, ok := got.NumberAttr("ttl_date"); ok {
		t.Fatal("full overwrite kept an old attribute")
	}

	if err := m.DeleteItem(ctx, "t", "key", "a"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if err := m.DeleteItem(ctx, "t", "key", "a"); err != nil {
		t.Fatalf("second DeleteItem: %v", err)
	}
	if _, err := m.GetItem(ctx, "t", "key", "a", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound after delete", err)
	}
}

func TestMemory_PutRequiresKeyAttribute(t *testing.T) {
	m := NewMemory().Seed("t", memTableDesc())
	err := m.PutItem(context.Background(), "t", "key", Record{"value": Binary([]byte("v"))})
	if err == nil {
		t.Fatal("expected error for record without key attribute")
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory().Seed("t", memTableDesc())
	ctx := context.Background()

	if err := m.PutItem(ctx, "t", "key", Record{"key": String("a"), "n": Number(1)}); err != nil {
		t.Fatalf("PutItem: %v", err)
	}
	got, _ := m.GetItem(ctx, "t", "key", "a", true)
	got["n"] = Number(2)

	again, _ := m.GetItem(ctx, "t", "key", "a", true)
	if n, _ := again.NumberAttr("n"); n != 1 {
		t.Fatalf("caller mutation leaked into the store: n = %d", n)
	}
}
