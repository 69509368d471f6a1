package tides

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
)

type exportDate struct {
	time.Time
}

func (d exportDate) MarshalCSV() (string, error) {
	return d.Format("2006-01-02 15:04:05"), nil
}

type exportLevel float64

func (l exportLevel) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(l), 'f', 3, 64), nil
}

type exportRow struct {
	Date       exportDate  `csv:"date"`
	WaterLevel exportLevel `csv:"water_level"`
}

// ExportCSV writes the given samples as a semicolon-delimited UTF-8 CSV with
// a date;water_level header, dates as YYYY-MM-DD HH:MM:SS and levels with 3
// decimal digits.
func ExportCSV(samples []TidalSample, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create filtered tide CSV: %w", err)
	}
	defer file.Close()
	return WriteCSV(samples, file)
}

// WriteCSV writes samples to w in the ExportCSV format.
func WriteCSV(samples []TidalSample, w io.Writer) error {
	rows := make([]exportRow, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, exportRow{Date: exportDate{s.Timestamp}, WaterLevel: exportLevel(s.Height)})
	}

	gocsv.SetCSVWriter(func(out io.Writer) *gocsv.SafeCSVWriter {
		writer := csv.NewWriter(out)
		writer.Comma = ';'
		return gocsv.NewSafeCSVWriter(writer)
	})

	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write filtered tide CSV: %w", err)
	}
	return nil
}
