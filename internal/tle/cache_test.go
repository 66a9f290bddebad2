package tle

import (
	"testing"
	"time"
)

func TestCacheWriteLoadLatest(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 3)

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i, content := range []string{"first", "second", "third"} {
		if err := c.Write([]byte(content), base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	data, ts, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if string(data) != "third" {
		t.Errorf("LoadLatest data = %q, want %q", data, "third")
	}
	if want := base.Add(2 * time.Minute); !ts.Equal(want) {
		t.Errorf("LoadLatest ts = %v, want %v", ts, want)
	}
}

func TestCachePrune(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 2)

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 5; i++ {
		if err := c.Write([]byte{byte('a' + i)}, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	files, err := c.listFiles()
	if err != nil {
		t.Fatalf("listFiles failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("got %d files after pruning, want 2", len(files))
	}

	// Newest must survive.
	data, _, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if string(data) != "e" {
		t.Errorf("LoadLatest data = %q, want %q", data, "e")
	}
}

func TestCacheLoadLatestEmpty(t *testing.T) {
	c := NewCache(t.TempDir(), 3)
	if _, _, err := c.LoadLatest(); err == nil {
		t.Fatal("expected error for empty cache, got nil")
	}
}

func TestStore(t *testing.T) {
	s := NewStore()
	if s.Get() != nil {
		t.Error("new store should have nil dataset")
	}
	if s.AgeSeconds() != -1 {
		t.Errorf("AgeSeconds = %v, want -1 for empty store", s.AgeSeconds())
	}
	if s.Count() != 0 {
		t.Errorf("Count = %d, want 0 for empty store", s.Count())
	}

	ds := NewDataset("test", time.Now().Add(-10*time.Second), []Entry{{NORADID: 25544}})
	s.Set(ds)

	if got := s.Get(); got != ds {
		t.Error("Get did not return the stored dataset")
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}
	if age := s.AgeSeconds(); age < 9 || age > 60 {
		t.Errorf("AgeSeconds = %v, want ~10", age)
	}
}
