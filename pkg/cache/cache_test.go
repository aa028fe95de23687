package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New[string]()
	c.Set("default_user", "sentinel", time.Second)
	val, ok := c.Get("default_user")
	if !ok || val != "sentinel" {
		t.Fatalf("expected sentinel, got %v, exists=%v", val, ok)
	}
}

func TestGetMiss(t *testing.T) {
	c := New[int]()
	val, ok := c.Get("absent")
	if ok || val != 0 {
		t.Fatalf("expected zero value miss, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New[string]()
	c.Set("default_user", "sentinel", 50*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	if _, ok := c.Get("default_user"); ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDelete(t *testing.T) {
	c := New[string]()
	c.Set("default_user", "sentinel", time.Second)
	c.Delete("default_user")
	if _, ok := c.Get("default_user"); ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestClear(t *testing.T) {
	c := New[string]()
	c.Set("default_user", "u", time.Second)
	c.Set("default_organization", "o", time.Second)
	c.Clear()
	if _, ok := c.Get("default_user"); ok {
		t.Fatalf("expected cleared cache to miss")
	}
	if _, ok := c.Get("default_organization"); ok {
		t.Fatalf("expected cleared cache to miss")
	}
}
