package tides

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/log"
)

var dateLayouts = []string{
	"02/01/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// LoadCSV reads a tide gauge export into a Series. The delimiter is detected
// among ';', ',' and tab; the file must carry one date/time column and one
// water-level column identified by header name. A UTF-8 BOM is tolerated.
func LoadCSV(path string) (*Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tide CSV: %w", err)
	}
	defer file.Close()

	series, err := ReadCSV(file)
	if err != nil {
		return nil, err
	}
	log.Infow("tide CSV loaded", "path", path, "samples", series.Len())
	return series, nil
}

// ReadCSV parses tide samples from r. See LoadCSV for the accepted format.
func ReadCSV(r io.Reader) (*Series, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read tide CSV: %w", err)
	}
	content := strings.TrimPrefix(string(raw), "\uFEFF")
	if strings.TrimSpace(content) == "" {
		return nil, &MalformedInputError{Line: 1, Reason: "empty file"}
	}

	delimiter := detectDelimiter(content)
	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &MalformedInputError{Line: 1, Reason: err.Error()}
	}
	if len(rows) < 2 {
		return nil, &MalformedInputError{Line: 1, Reason: "no data rows"}
	}

	dateIdx, levelIdx, err := locateColumns(rows[0])
	if err != nil {
		return nil, err
	}

	samples := []TidalSample{}
	for i, row := range rows[1:] {
		line := i + 2
		if len(row) <= dateIdx || len(row) <= levelIdx {
			continue
		}

		dateStr := strings.TrimSpace(row[dateIdx])
		levelStr := strings.TrimSpace(strings.ReplaceAll(row[levelIdx], ",", "."))
		if dateStr == "" || levelStr == "" {
			continue
		}

		ts, err := parseDate(dateStr)
		if err != nil {
			return nil, &MalformedInputError{Line: line, Field: rows[0][dateIdx], Reason: fmt.Sprintf("unparsable date %q", dateStr)}
		}

		level, err := strconv.ParseFloat(levelStr, 64)
		if err != nil {
			return nil, &MalformedInputError{Line: line, Field: rows[0][levelIdx], Reason: fmt.Sprintf("unparsable level %q", levelStr)}
		}

		samples = append(samples, TidalSample{Timestamp: ts, Height: level})
	}

	if len(samples) == 0 {
		return nil, &MalformedInputError{Line: 2, Reason: "no parsable data rows"}
	}
	return NewSeries(samples)
}

func detectDelimiter(content string) rune {
	firstLine := content
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		firstLine = content[:idx]
	}

	best := ','
	bestCount := strings.Count(firstLine, ",")
	if c := strings.Count(firstLine, ";"); c > bestCount {
		best, bestCount = ';', c
	}
	if c := strings.Count(firstLine, "\t"); c > bestCount {
		best = '\t'
	}
	return best
}

func locateColumns(header []string) (dateIdx, levelIdx int, err error) {
	dateIdx, levelIdx = -1, -1
	for i, name := range header {
		lower := strings.ToLower(strings.TrimSpace(name))
		if dateIdx < 0 && (strings.Contains(lower, "date") || strings.Contains(lower, "time")) {
			dateIdx = i
			continue
		}
		if levelIdx < 0 && (strings.Contains(lower, "water") || strings.Contains(lower, "level") || strings.Contains(lower, "tide")) {
			levelIdx = i
		}
	}
	if dateIdx < 0 {
		return 0, 0, &MalformedInputError{Line: 1, Reason: "no date/time column found in header"}
	}
	if levelIdx < 0 {
		return 0, 0, &MalformedInputError{Line: 1, Reason: "no water level column found in header"}
	}
	return dateIdx, levelIdx, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("no known date layout matches %q", value)
}
