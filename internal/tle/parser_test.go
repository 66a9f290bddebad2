package tle

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const (
	issName  = "ISS (ZARYA)"
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"

	starlinkName  = "STARLINK-1007"
	starlinkLine1 = "1 44713U 19074A   24100.50000000  .00001000  00000-0  10000-4 0  9995"
	starlinkLine2 = "2 44713  53.0000 200.0000 0001500  90.0000 270.0000 15.06000000    05"
)

func TestParseThreeLineFormat(t *testing.T) {
	input := strings.Join([]string{issName, issLine1, issLine2, starlinkName, starlinkLine1, starlinkLine2}, "\n")

	entries, err := Parse(strings.NewReader(input), testLogger)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	if entries[0].NORADID != 25544 {
		t.Errorf("entry 0 NORADID = %d, want 25544", entries[0].NORADID)
	}
	if entries[0].Name != issName {
		t.Errorf("entry 0 Name = %q, want %q", entries[0].Name, issName)
	}
	if entries[1].NORADID != 44713 {
		t.Errorf("entry 1 NORADID = %d, want 44713", entries[1].NORADID)
	}

	// Epoch 24100.5 = 2024, day 100.5 (Apr 9 12:00 UTC).
	wantEpoch := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	if !entries[0].Epoch.Equal(wantEpoch) {
		t.Errorf("entry 0 Epoch = %v, want %v", entries[0].Epoch, wantEpoch)
	}
}

func TestParseTwoLineFormat(t *testing.T) {
	input := issLine1 + "\n" + issLine2 + "\n"

	entries, err := Parse(strings.NewReader(input), testLogger)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Name != "" {
		t.Errorf("Name = %q, want empty for 2-line format", entries[0].Name)
	}
	if entries[0].NORADID != 25544 {
		t.Errorf("NORADID = %d, want 25544", entries[0].NORADID)
	}
}

func TestParseSkipsMalformed(t *testing.T) {
	// A garbage block before a valid entry must not poison the parse.
	input := strings.Join([]string{
		"SOME SATELLITE",
		"garbage line",
		issName,
		issLine1,
		issLine2,
	}, "\n")

	entries, err := Parse(strings.NewReader(input), testLogger)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].NORADID != 25544 {
		t.Errorf("NORADID = %d, want 25544", entries[0].NORADID)
	}
}

func TestParseEmpty(t *testing.T) {
	entries, err := Parse(strings.NewReader(""), testLogger)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestParseEpochCentury(t *testing.T) {
	tests := []struct {
		epoch    string
		wantYear int
	}{
		{"00001.00000000", 2000},
		{"56001.00000000", 2056},
		{"57001.00000000", 1957},
		{"99001.00000000", 1999},
	}

	for _, tt := range tests {
		got, err := parseEpoch(tt.epoch)
		if err != nil {
			t.Errorf("parseEpoch(%q) failed: %v", tt.epoch, err)
			continue
		}
		if got.Year() != tt.wantYear {
			t.Errorf("parseEpoch(%q).Year() = %d, want %d", tt.epoch, got.Year(), tt.wantYear)
		}
	}
}

func TestNewDatasetEpochRange(t *testing.T) {
	early := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	ds := NewDataset("test", time.Now(), []Entry{
		{NORADID: 1, Epoch: late},
		{NORADID: 2, Epoch: early},
		{NORADID: 3, Epoch: late.Add(-time.Hour)},
	})

	if !ds.EpochRange.Min.Equal(early) {
		t.Errorf("EpochRange.Min = %v, want %v", ds.EpochRange.Min, early)
	}
	if !ds.EpochRange.Max.Equal(late) {
		t.Errorf("EpochRange.Max = %v, want %v", ds.EpochRange.Max, late)
	}
}
