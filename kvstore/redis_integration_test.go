package kvstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func redisStore(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis integration test")
	}
	s := NewRedis(addr, "", 0)
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("cannot reach Redis at %s: %v", addr, err)
	}
	return s
}

// table returns a per-test table name so runs against a shared server do
// not interfere with each other.
func table(t *testing.T) string {
	return "test:" + t.Name()
}

func TestRedis_CRUD(t *testing.T) {
	s := redisStore(t)
	ctx := context.Background()
	tbl := table(t)

	if err := s.CreateTable(ctx, tbl, memTableDesc()); err != nil && !errors.Is(err, ErrTableExists) {
		t.Fatalf("CreateTable: %v", err)
	}
	key := "k:" + t.Name()
	t.Cleanup(func() { _ = s.DeleteItem(ctx, tbl, "key", key) })

	if _, err := s.GetItem(ctx, tbl, "key", key+":absent", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	rec := Record{
		"key":      String(key),
		"value":    Binary([]byte("payload")),
		"ttl_date": Number(time.Now().Add(time.Hour).Unix()),
	}
	if err := s.PutItem(ctx, tbl, "key", rec); err != nil {
		t.Fatalf("PutItem: %v", err)
	}

	got, err := s.GetItem(ctx, tbl, "key", key, true)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if v, _ := got.BinaryAttr("value"); string(v) != "payload" {
		t.Fatalf("value = %q", v)
	}

	if err := s.UpdateItem(ctx, tbl, "key", key, Record{"ttl_date": Number(123)}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	got, _ = s.GetItem(ctx, tbl, "key", key, true)
	if n, _ := got.NumberAttr("ttl_date"); n != 123 {
		t.Fatalf("ttl_date = %d after update", n)
	}
	if v, _ := got.BinaryAttr("value"); string(v) != "payload" {
		t.Fatal("value lost on update")
	}

	if err := s.DeleteItem(ctx, tbl, "key", key); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if err := s.DeleteItem(ctx, tbl, "key", key); err != nil {
		t.Fatalf("second DeleteItem: %v", err)
	}
}

func TestRedis_SchemaPersistsAcrossClients(t *testing.T) {
	s := redisStore(t)
	ctx := context.Background()
	tbl := table(t)

	if err := s.CreateTable(ctx, tbl, memTableDesc()); err != nil && !errors.Is(err, ErrTableExists) {
		t.Fatalf("CreateTable: %v", err)
	}

	addr := os.Getenv("REDIS_ADDR")
	s2 := NewRedis(addr, "", 0)
	t.Cleanup(func() { _ = s2.Close() })

	desc, err := s2.DescribeTable(ctx, tbl)
	if err != nil {
		t.Fatalf("DescribeTable from second client: %v", err)
	}
	if desc.KeyAttribute != "key" || desc.TTLAttribute != "ttl_date" {
		t.Fatalf("unexpected schema: %+v", desc)
	}
}
