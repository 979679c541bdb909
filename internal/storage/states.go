package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/pacesim/internal/dynamo"
)

// LoadState reads a state vector for a model whose variables are names.
//
// The file holds one "name value" pair per line in any order; blank lines
// and lines starting with # are ignored. Every name must belong to the model
// and every model variable must be present. A file holding a single line of
// len(names) bare values, as written by WriteState, is read in canonical
// order.
func LoadState(path string, names []string) (dynamo.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	defer f.Close()

	s, err := ReadState(f, names)
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", path, err)
	}
	return s, nil
}

func ReadState(r io.Reader, names []string) (dynamo.State, error) {
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}

	state := make(dynamo.State, len(names))
	seen := make([]bool, len(names))
	positional := false
	lines := 0

	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines++
		fields := strings.Fields(line)

		if _, err := strconv.ParseFloat(fields[0], 64); err == nil {
			if lines > 1 || positional {
				return nil, dynamo.Domainf("read state", "line %d: bare values must be the only line", lineNo)
			}
			if len(fields) != len(names) {
				return nil, dynamo.Domainf("read state", "line %d: %d values for %d variables", lineNo, len(fields), len(names))
			}
			for i, field := range fields {
				v, err := strconv.ParseFloat(field, 64)
				if err != nil {
					return nil, dynamo.Domainf("read state", "line %d: %v", lineNo, err)
				}
				state[i] = v
				seen[i] = true
			}
			positional = true
			continue
		}

		if positional {
			return nil, dynamo.Domainf("read state", "line %d: bare values must be the only line", lineNo)
		}
		if len(fields) != 2 {
			return nil, dynamo.Domainf("read state", "line %d: want \"name value\", got %q", lineNo, line)
		}
		i, ok := index[fields[0]]
		if !ok {
			return nil, dynamo.Domainf("read state", "line %d: unknown variable %q", lineNo, fields[0])
		}
		if seen[i] {
			return nil, dynamo.Domainf("read state", "line %d: duplicate variable %q", lineNo, fields[0])
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, dynamo.Domainf("read state", "line %d: %v", lineNo, err)
		}
		state[i] = v
		seen[i] = true
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	for i, ok := range seen {
		if !ok {
			return nil, dynamo.Domainf("read state", "missing variable %q", names[i])
		}
	}
	return state, nil
}

// WriteState writes s as one line of space-separated values with 17
// significant digits.
func WriteState(w io.Writer, s dynamo.State) error {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.FormatFloat(v, 'g', 17, 64)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}

// WriteNamedState writes s as "name value" lines, the format LoadState
// matches by name.
func WriteNamedState(w io.Writer, names []string, s dynamo.State) error {
	if len(names) != len(s) {
		return dynamo.Domainf("write state", "%d names for %d values", len(names), len(s))
	}
	for i, v := range s {
		if _, err := fmt.Fprintf(w, "%s %s\n", names[i], strconv.FormatFloat(v, 'g', 17, 64)); err != nil {
			return err
		}
	}
	return nil
}

func SaveState(path string, s dynamo.State) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteState(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
