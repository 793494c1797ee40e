package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// SizeStock maps a size label to its remaining count. Legacy product rows
// store this blob either as a plain map, as an array of {size, stock}
// objects, or double-encoded as a JSON string; all shapes normalize to the
// map here, at the catalog boundary, so the ledger only ever sees one form.
type SizeStock map[string]int

type sizeEntry struct {
	Size  string  `json:"size"`
	Stock flexInt `json:"stock"`
}

func (s *SizeStock) UnmarshalJSON(data []byte) error {
	*s = SizeStock{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	switch data[0] {
	case '"':
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil
		}
		inner = strings.TrimSpace(inner)
		if inner == "" {
			return nil
		}
		return s.UnmarshalJSON([]byte(inner))
	case '[':
		var entries []sizeEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil
		}
		for _, e := range entries {
			if e.Size != "" {
				(*s)[e.Size] = clampNonNegative(int(e.Stock))
			}
		}
		return nil
	default:
		var raw map[string]flexInt
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		for label, count := range raw {
			(*s)[label] = clampNonNegative(int(count))
		}
		return nil
	}
}

func (s SizeStock) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]int(s))
}

// Tracked reports whether the product carries size-level stock data.
func (s SizeStock) Tracked() bool { return len(s) > 0 }

// Get returns the count for a label; a missing label counts as zero.
func (s SizeStock) Get(label string) int { return s[label] }

// Sum is the total across all sizes.
func (s SizeStock) Sum() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

func (s SizeStock) Clone() SizeStock {
	if s == nil {
		return nil
	}
	out := make(SizeStock, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// flexInt tolerates numeric strings and fractional numbers in legacy rows;
// anything unparseable counts as zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(str))
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexInt(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(int(n))
	return nil
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
