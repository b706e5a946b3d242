package storage

import (
	"bytes"
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := s.Load(ctx, SnapshotKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("expected missing key before Save")
	}

	want := []byte(`{"clients":[]}`)
	if err := s.Save(ctx, SnapshotKey, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := s.Load(ctx, SnapshotKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("expected key after Save")
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Load = %q, want %q", got, want)
	}

	// Returned slice must be a copy.
	got[0] = 'X'
	again, _, _ := s.Load(ctx, SnapshotKey)
	if !bytes.Equal(again, want) {
		t.Fatal("Load returned aliased slice")
	}
}

func TestMemoryStoreMarkers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	has, err := s.HasMarker(ctx, SeedMarker)
	if err != nil {
		t.Fatalf("HasMarker: %v", err)
	}
	if has {
		t.Fatal("marker set before SetMarker")
	}

	if err := s.SetMarker(ctx, SeedMarker); err != nil {
		t.Fatalf("SetMarker: %v", err)
	}

	has, err = s.HasMarker(ctx, SeedMarker)
	if err != nil {
		t.Fatalf("HasMarker: %v", err)
	}
	if !has {
		t.Fatal("marker missing after SetMarker")
	}
}
