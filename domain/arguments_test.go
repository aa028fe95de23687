package domain

import (
	"testing"
)

func TestArgumentsValueNilIsEmptyMapping(t *testing.T) {
	var args Arguments
	v, err := args.Value()
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}
	if v != "{}" {
		t.Fatalf("expected empty mapping, got %v", v)
	}
}

func TestArgumentsRoundTrip(t *testing.T) {
	args := Arguments{
		"tool":    "search",
		"filters": map[string]any{"type": "meeting", "limit": float64(3)},
	}
	v, err := args.Value()
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}

	var loaded Arguments
	if err := loaded.Scan(v); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if loaded["tool"] != "search" {
		t.Fatalf("unexpected arguments: %v", loaded)
	}
	filters, ok := loaded["filters"].(map[string]any)
	if !ok || filters["type"] != "meeting" || filters["limit"] != float64(3) {
		t.Fatalf("nested mapping did not round trip: %v", loaded)
	}
}

func TestArgumentsScanNil(t *testing.T) {
	var loaded Arguments
	if err := loaded.Scan(nil); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if loaded == nil || len(loaded) != 0 {
		t.Fatalf("expected empty mapping for NULL column, got %v", loaded)
	}
}

func TestArgumentsScanBytes(t *testing.T) {
	var loaded Arguments
	if err := loaded.Scan([]byte(`{"a":1}`)); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if loaded["a"] != float64(1) {
		t.Fatalf("unexpected arguments: %v", loaded)
	}
}
