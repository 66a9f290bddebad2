package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Parse reads TLE data from r and returns parsed entries. Both the 3-line
// format (name line followed by the element lines) and the bare 2-line
// format are accepted. Malformed entries are skipped with a warning log.
func Parse(r io.Reader, logger *slog.Logger) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var entries []Entry
	for i := 0; i < len(lines); {
		name := ""
		if !strings.HasPrefix(lines[i], "1 ") {
			// Name line precedes the element set.
			name = strings.TrimSpace(lines[i])
			i++
			if i >= len(lines) {
				break
			}
		}
		if i+1 >= len(lines) || !strings.HasPrefix(lines[i], "1 ") || !strings.HasPrefix(lines[i+1], "2 ") {
			logger.Warn("skipping malformed TLE entry", "line_index", i, "name", name)
			i++
			continue
		}

		line1, line2 := lines[i], lines[i+1]
		i += 2

		entry, err := parseElementLines(name, line1, line2)
		if err != nil {
			logger.Warn("skipping TLE entry", "name", name, "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func parseElementLines(name, line1, line2 string) (Entry, error) {
	if len(line1) < 32 {
		return Entry{}, fmt.Errorf("line1 too short (%d chars)", len(line1))
	}

	// NORAD catalog number is in line1 columns 3-7.
	noradStr := strings.TrimSpace(line1[2:7])
	noradID, err := strconv.Atoi(noradStr)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid NORAD ID %q", noradStr)
	}

	// Element epoch is in line1 columns 19-32.
	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid epoch: %w", err)
	}

	return Entry{
		NORADID: noradID,
		Name:    name,
		Epoch:   epoch,
		Line1:   line1,
		Line2:   line2,
	}, nil
}

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to
// time.Time. Years 00-56 map to the 2000s, 57-99 to the 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}

	// Day of year is 1-based: day 1.0 is 00:00 on Jan 1.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}
