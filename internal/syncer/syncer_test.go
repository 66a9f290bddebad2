package syncer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/recepsuluker/OrbitGuardAI/internal/catalog"
	"github.com/recepsuluker/OrbitGuardAI/internal/tle"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const issTLE = "ISS (ZARYA)\n" +
	"1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005\n" +
	"2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09\n"

func TestSyncOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(issTLE))
	}))
	defer server.Close()

	store := tle.NewStore()
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "cat.db"))
	if err != nil {
		t.Fatalf("catalog open failed: %v", err)
	}
	defer cat.Close()

	diskCache := tle.NewCache(t.TempDir(), 3)
	s := New(tle.NewFetcher(server.URL, testLogger), store, diskCache, cat, Config{}, testLogger)

	n, err := s.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}
	if n != 1 {
		t.Errorf("synced %d satellites, want 1", n)
	}

	// Dataset published to the store.
	ds := store.Get()
	if ds == nil {
		t.Fatal("store has no dataset after sync")
	}
	if len(ds.Satellites) != 1 || ds.Satellites[0].NORADID != 25544 {
		t.Errorf("dataset = %+v, want single ISS entry", ds.Satellites)
	}

	// Raw download persisted to the disk cache.
	data, _, err := diskCache.LoadLatest()
	if err != nil {
		t.Fatalf("disk cache empty after sync: %v", err)
	}
	if string(data) != issTLE {
		t.Errorf("cached data mismatch")
	}

	// Catalog rows upserted and history logged.
	st, err := cat.Statistics()
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if st.TotalSatellites != 1 {
		t.Errorf("catalog has %d satellites, want 1", st.TotalSatellites)
	}
}

func TestSyncOnceRejectsSmallDataset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(issTLE))
	}))
	defer server.Close()

	store := tle.NewStore()
	s := New(tle.NewFetcher(server.URL, testLogger), store, nil, nil, Config{MinSatellites: 100}, testLogger)

	if _, err := s.SyncOnce(context.Background()); err == nil {
		t.Fatal("expected error for undersized dataset, got nil")
	}
	if store.Get() != nil {
		t.Error("undersized dataset must not replace the store contents")
	}
}

func TestSyncOnceFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cat, err := catalog.Open(filepath.Join(t.TempDir(), "cat.db"))
	if err != nil {
		t.Fatalf("catalog open failed: %v", err)
	}
	defer cat.Close()

	s := New(tle.NewFetcher(server.URL, testLogger), tle.NewStore(), nil, cat, Config{}, testLogger)

	if _, err := s.SyncOnce(context.Background()); err == nil {
		t.Fatal("expected error for failed fetch, got nil")
	}
}
