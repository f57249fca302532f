// Package ttl computes the three derived expiration values persisted with a
// cache entry: the expiry instant (ttl date), the sliding-window length, and
// the hard deadline a sliding window may never push the expiry past.
//
// All functions are pure: given the same [Policy] and the same "now" they
// always return the same result and perform no I/O. Callers are expected to
// capture now once per write and reuse it for every computation belonging to
// that write.
package ttl

import (
	"errors"
	"fmt"
	"time"
)

// ErrPastExpiration is returned when a policy's AbsoluteExpiration already
// lies in the past. This is a caller programming error and is never retried.
var ErrPastExpiration = errors.New("ttl: absolute expiration is in the past")

// Policy describes when a cache entry should expire. The zero value of each
// field means "not set"; a zero Policy means the entry never expires.
type Policy struct {
	// AbsoluteExpiration is a fixed instant after which the entry expires.
	AbsoluteExpiration time.Time

	// AbsoluteExpirationFromNow expires the entry this long after the write.
	// When both absolute fields are set, AbsoluteExpirationFromNow wins.
	// This precedence is a compatibility contract, not an accident.
	AbsoluteExpirationFromNow time.Duration

	// SlidingExpiration renews the entry's expiry on every read, up to the
	// deadline derived from the absolute fields (if any).
	SlidingExpiration time.Duration
}

// Deadline returns the hard expiry ceiling for p in unix seconds. The boolean
// reports whether a deadline exists; a policy with neither absolute field set
// has none.
//
// An AbsoluteExpiration that is not strictly after now fails with
// [ErrPastExpiration], unless AbsoluteExpirationFromNow is also set; the
// relative field always takes precedence and is never validated against the
// absolute one.
func Deadline(p Policy, now time.Time) (int64, bool, error) {
	switch {
	case p.AbsoluteExpirationFromNow != 0:
		return now.Add(p.AbsoluteExpirationFromNow).Unix(), true, nil
	case !p.AbsoluteExpiration.IsZero():
		if !p.AbsoluteExpiration.After(now) {
			return 0, false, fmt.Errorf("%w: %v is not after %v",
				ErrPastExpiration, p.AbsoluteExpiration, now)
		}
		return p.AbsoluteExpiration.Unix(), true, nil
	default:
		return 0, false, nil
	}
}

// Expiry returns the initial ttl date for p in unix seconds: the deadline
// when no sliding window is set, otherwise min(now+sliding, deadline) with
// the deadline winning ties. The boolean reports whether the entry expires
// at all.
func Expiry(p Policy, now time.Time) (int64, bool, error) {
	deadline, hasDeadline, err := Deadline(p, now)
	if err != nil {
		return 0, false, err
	}
	if p.SlidingExpiration == 0 {
		return deadline, hasDeadline, nil
	}
	candidate := now.Add(p.SlidingExpiration).Unix()
	if hasDeadline && deadline < candidate {
		return deadline, true, nil
	}
	return candidate, true, nil
}

// Window returns p's sliding window verbatim. It is persisted alongside the
// entry so that later refreshes can renew the expiry without access to the
// original policy.
func Window(p Policy) (time.Duration, bool) {
	return p.SlidingExpiration, p.SlidingExpiration != 0
}

// Renew returns the refreshed ttl date for an entry whose stored sliding
// window and optional deadline are already known: min(now+window, deadline).
// Unlike [Expiry] it never validates the deadline against now: a deadline
// that has meanwhile drawn close (or arrived) simply clamps the result.
func Renew(window time.Duration, deadline int64, hasDeadline bool, now time.Time) int64 {
	candidate := now.Add(window).Unix()
	if hasDeadline && deadline < candidate {
		return deadline
	}
	return candidate
}
