package domain

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// Vector is a pooled embedding. Non-finite components, which pooling yields
// for fully padded rows, are written as the strings "NaN", "Infinity" and
// "-Infinity" since JSON numbers cannot hold them.
type Vector []float32

func (v Vector) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+len(v)*8)
	buf = append(buf, '[')
	for i, x := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		f := float64(x)
		switch {
		case math.IsNaN(f):
			buf = append(buf, `"NaN"`...)
		case math.IsInf(f, 1):
			buf = append(buf, `"Infinity"`...)
		case math.IsInf(f, -1):
			buf = append(buf, `"-Infinity"`...)
		default:
			buf = strconv.AppendFloat(buf, f, 'g', -1, 32)
		}
	}
	return append(buf, ']'), nil
}

func (v *Vector) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*v = nil
		return nil
	}
	out := make(Vector, len(raw))
	for i, r := range raw {
		if len(r) > 0 && r[0] == '"' {
			var s string
			if err := json.Unmarshal(r, &s); err != nil {
				return err
			}
			switch s {
			case "NaN":
				out[i] = float32(math.NaN())
			case "Infinity":
				out[i] = float32(math.Inf(1))
			case "-Infinity":
				out[i] = float32(math.Inf(-1))
			default:
				return fmt.Errorf("vector component %d: unexpected string %q", i, s)
			}
			continue
		}
		f, err := strconv.ParseFloat(string(r), 32)
		if err != nil {
			return fmt.Errorf("vector component %d: %w", i, err)
		}
		out[i] = float32(f)
	}
	*v = out
	return nil
}

// Vectors converts plain rows to Vectors without copying.
func Vectors(rows [][]float32) []Vector {
	out := make([]Vector, len(rows))
	for i, r := range rows {
		out[i] = Vector(r)
	}
	return out
}
