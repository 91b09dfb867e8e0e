package middleware

import (
	"testing"
	"time"
)

func TestTokenBucketExhausts(t *testing.T) {
	tb := NewTokenBucket(3, 1)
	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d rejected before bucket empty", i)
		}
	}
	if tb.Allow() {
		t.Fatalf("request allowed after bucket empty")
	}
}

func TestTokenBucketRefills(t *testing.T) {
	tb := NewTokenBucket(1, 10)
	if !tb.Allow() {
		t.Fatalf("first request rejected")
	}
	if tb.Allow() {
		t.Fatalf("bucket must be empty")
	}
	time.Sleep(1100 * time.Millisecond)
	if !tb.Allow() {
		t.Fatalf("bucket did not refill")
	}
}

func TestTokenBucketCapacityCap(t *testing.T) {
	tb := NewTokenBucket(2, 100)
	time.Sleep(1100 * time.Millisecond)
	// 补充不能超过容量
	if !tb.Allow() || !tb.Allow() {
		t.Fatalf("capacity tokens rejected")
	}
	if tb.Allow() {
		t.Fatalf("bucket exceeded capacity")
	}
}
