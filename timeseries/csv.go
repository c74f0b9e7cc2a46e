package timeseries

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	TimeColumn   string   // Column name for sample times (optional)
	ValueColumns []string // Columns to load; empty loads every non-time column
	HasHeader    bool     // Whether CSV has header row (default: true)
	Delimiter    rune     // Field delimiter (default: ',')
	Comment      rune     // Lines starting with this rune are skipped (default: '#')
	SkipRows     int      // Number of rows to skip at start
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		TimeColumn: "time",
		HasHeader:  true,
		Delimiter:  ',',
		Comment:    '#',
	}
}

// LoadCSV loads one series per value column from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) ([]*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadCSVFromReader(file, opts)
}

// LoadCSVFromReader loads one series per value column from r. Rows with a
// missing or unparsable value in any selected column are skipped so the
// series stay aligned.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) ([]*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.Comment = opts.Comment
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	var headers []string
	var pending []string
	if opts.HasHeader {
		header, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, ErrEmpty
			}
			return nil, err
		}
		for _, h := range header {
			headers = append(headers, strings.TrimSpace(strings.Trim(h, "\"")))
		}
	} else {
		// Without a header, columns are named by position; the first row
		// is data and is replayed below.
		first, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, ErrEmpty
			}
			return nil, err
		}
		for i := range first {
			headers = append(headers, strconv.Itoa(i))
		}
		pending = first
	}

	timeIdx := -1
	for i, h := range headers {
		if opts.TimeColumn != "" && h == opts.TimeColumn {
			timeIdx = i
		}
	}

	valueIdx, err := selectColumns(headers, opts.ValueColumns, timeIdx)
	if err != nil {
		return nil, err
	}

	cols := make([][]float64, len(valueIdx))
	var times []float64

	for {
		var record []string
		if pending != nil {
			record, pending = pending, nil
		} else {
			record, err = reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
		}

		row, ok := parseRow(record, valueIdx)
		if !ok {
			continue
		}
		if timeIdx >= 0 {
			t, ok := parseField(record, timeIdx)
			if !ok {
				continue
			}
			times = append(times, t)
		}
		for j, v := range row {
			cols[j] = append(cols[j], v)
		}
	}

	if len(cols) == 0 || len(cols[0]) == 0 {
		return nil, ErrEmpty
	}

	series := make([]*Series, len(valueIdx))
	for j, idx := range valueIdx {
		series[j] = &Series{Values: cols[j], Times: times, Name: headers[idx]}
	}
	return series, nil
}

func selectColumns(headers, wanted []string, timeIdx int) ([]int, error) {
	if len(wanted) == 0 {
		var idx []int
		for i := range headers {
			if i != timeIdx {
				idx = append(idx, i)
			}
		}
		return idx, nil
	}

	idx := make([]int, 0, len(wanted))
	for _, w := range wanted {
		found := -1
		for i, h := range headers {
			if h == w {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("column %q not found", w)
		}
		idx = append(idx, found)
	}
	return idx, nil
}

func parseRow(record []string, idx []int) ([]float64, bool) {
	row := make([]float64, len(idx))
	for j, i := range idx {
		v, ok := parseField(record, i)
		if !ok {
			return nil, false
		}
		row[j] = v
	}
	return row, true
}

func parseField(record []string, i int) (float64, bool) {
	if i >= len(record) {
		return 0, false
	}
	s := strings.TrimSpace(strings.Trim(record[i], "\""))
	if s == "" || s == "NA" || s == "NaN" || s == "null" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
