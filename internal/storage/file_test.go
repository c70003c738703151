package storage

import (
	"context"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, ok, err := s.Get(ctx, KeyAccessToken); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, KeyAccessToken, "tok-1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := s.Get(ctx, KeyAccessToken)
	if err != nil || !ok || v != "tok-1" {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}

	// Overwrite must fully replace the value.
	if err := s.Set(ctx, KeyAccessToken, "tok-2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, _, _ = s.Get(ctx, KeyAccessToken)
	if v != "tok-2" {
		t.Fatalf("overwrite result: %q", v)
	}

	if err := s.Delete(ctx, KeyAccessToken); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, KeyAccessToken); ok {
		t.Fatal("deleted key must be gone")
	}
	// Deleting an absent key is not an error.
	if err := s.Delete(ctx, KeyAccessToken); err != nil {
		t.Fatalf("double delete: %v", err)
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Set(ctx, KeyBookmarked, `["c1","c2"]`); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, ok, err := reopened.Get(ctx, KeyBookmarked)
	if err != nil || !ok || v != `["c1","c2"]` {
		t.Fatalf("reopened get: v=%q ok=%v err=%v", v, ok, err)
	}
}
