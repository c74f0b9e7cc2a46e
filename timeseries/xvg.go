package timeseries

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadXVG loads a GROMACS .xvg file. The first column is taken as the sample
// time and every further column becomes one series.
func LoadXVG(filename string) ([]*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadXVGFromReader(file)
}

// LoadXVGFromReader parses XVG data from r. Lines starting with '#' or '@'
// are metadata; "@ sN legend" lines name the N-th data column.
func LoadXVGFromReader(r io.Reader) ([]*Series, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	legends := map[int]string{}
	var times []float64
	var cols [][]float64
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if strings.HasPrefix(text, "@") {
			if idx, name, ok := parseLegend(text); ok {
				legends[idx] = name
			}
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("xvg line %d: want time and at least one value, got %d fields", line, len(fields))
		}
		if cols == nil {
			cols = make([][]float64, len(fields)-1)
		}
		if len(fields)-1 != len(cols) {
			return nil, fmt.Errorf("xvg line %d: got %d value columns, want %d", line, len(fields)-1, len(cols))
		}

		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("xvg line %d: %w", line, err)
		}
		times = append(times, t)
		for j, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("xvg line %d: %w", line, err)
			}
			cols[j] = append(cols[j], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(times) == 0 {
		return nil, ErrEmpty
	}

	series := make([]*Series, len(cols))
	for j, values := range cols {
		name, ok := legends[j]
		if !ok {
			name = "s" + strconv.Itoa(j)
		}
		series[j] = &Series{Values: values, Times: times, Name: name}
	}
	return series, nil
}

// parseLegend extracts the column index and label from `@ s0 legend "x"`.
func parseLegend(text string) (int, string, bool) {
	fields := strings.Fields(strings.TrimPrefix(text, "@"))
	if len(fields) < 3 || fields[1] != "legend" || !strings.HasPrefix(fields[0], "s") {
		return 0, "", false
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(fields[0], "s"))
	if err != nil {
		return 0, "", false
	}
	rest := strings.TrimSpace(text[strings.Index(text, "legend")+len("legend"):])
	return idx, strings.Trim(rest, "\""), true
}
