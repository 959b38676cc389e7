package common

import "testing"

func TestHasAny(t *testing.T) {
	if !HasAny("dial tcp: connection refused", "connection refused", "no such host") {
		t.Error("expected match on connection refused")
	}
	if HasAny("pq: password authentication failed", "connection refused", "no such host") {
		t.Error("unexpected match on auth failure")
	}
	if HasAny("anything") {
		t.Error("no substrings should never match")
	}
}
