package tides

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	t.Parallel()

	t.Run("semicolon delimiter with decimal commas", func(t *testing.T) {
		t.Parallel()
		input := "Date;Water level (m)\n10/06/2023 03:45;1,956\n10/06/2023 04:00;1,960\n"
		series, err := ReadCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Equal(t, 2, series.Len())
		assert.Equal(t, time.Date(2023, 6, 10, 3, 45, 0, 0, time.UTC), series.Start())
		assert.InDelta(t, 1.956, series.Samples()[0].Height, 1e-9)
	})

	t.Run("comma delimiter with ISO dates", func(t *testing.T) {
		t.Parallel()
		input := "timestamp,tide_m\n2023-06-10 03:45:00,1.956\n2023-06-10 04:00:00,1.960\n"
		series, err := ReadCSV(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, 2, series.Len())
	})

	t.Run("utf-8 bom is tolerated", func(t *testing.T) {
		t.Parallel()
		input := "\uFEFFdate;level\n2023-06-10 03:45;1.0\n"
		series, err := ReadCSV(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, 1, series.Len())
	})

	t.Run("blank rows are skipped", func(t *testing.T) {
		t.Parallel()
		input := "date;level\n2023-06-10 03:45;1.0\n;\n2023-06-10 04:00;1.1\n"
		series, err := ReadCSV(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, 2, series.Len())
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		_, err := ReadCSV(strings.NewReader(""))
		var malformed *MalformedInputError
		require.ErrorAs(t, err, &malformed)
	})

	t.Run("missing level column", func(t *testing.T) {
		t.Parallel()
		_, err := ReadCSV(strings.NewReader("date;something\n2023-06-10 03:45;1.0\n"))
		var malformed *MalformedInputError
		require.ErrorAs(t, err, &malformed)
	})

	t.Run("unparsable date reports the line", func(t *testing.T) {
		t.Parallel()
		input := "date;level\n2023-06-10 03:45;1.0\nnot-a-date;1.1\n"
		_, err := ReadCSV(strings.NewReader(input))
		var malformed *MalformedInputError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, 3, malformed.Line)
	})

	t.Run("unparsable level reports the line", func(t *testing.T) {
		t.Parallel()
		input := "date;level\n2023-06-10 03:45;deep\n"
		_, err := ReadCSV(strings.NewReader(input))
		var malformed *MalformedInputError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, 2, malformed.Line)
	})
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	samples := []TidalSample{
		{Timestamp: time.Date(2023, 6, 10, 3, 45, 0, 0, time.UTC), Height: 1.956},
		{Timestamp: time.Date(2023, 6, 10, 4, 0, 0, 0, time.UTC), Height: 1.96},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(samples, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date;water_level", lines[0])
	assert.Equal(t, "2023-06-10 03:45:00;1.956", lines[1])
	assert.Equal(t, "2023-06-10 04:00:00;1.960", lines[2])

	// exported files must parse back
	series, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, series.Len())
}
