package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// Result is the completed payload of one grid cell.
type Result struct {
	Mu   float64 `json:"mu"`
	SD   float64 `json:"sd"`
	Xsg  float64 `json:"xsg"`
	Xuni float64 `json:"xuni"`
	Q    float64 `json:"q"`
	M    float64 `json:"m"`
	C    float64 `json:"c"`
}

// Fields returns the seven values in file order: mu, sd, Xsg, Xuni, q, m, c.
func (r Result) Fields() [7]float64 {
	return [7]float64{r.Mu, r.SD, r.Xsg, r.Xuni, r.Q, r.M, r.C}
}

// Text renders the seven fields with six decimals, tab separated,
// no trailing newline. This is the on-store payload format.
func (r Result) Text() []byte {
	f := r.Fields()
	return []byte(fmt.Sprintf("%f\t%f\t%f\t%f\t%f\t%f\t%f", f[0], f[1], f[2], f[3], f[4], f[5], f[6]))
}

// ParseResult reads seven whitespace-separated floats.
func ParseResult(data []byte) (Result, error) {
	fields := strings.Fields(string(data))
	if len(fields) != 7 {
		return Result{}, fmt.Errorf("storage: result has %d fields, want 7", len(fields))
	}
	var v [7]float64
	for i, s := range fields {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Result{}, fmt.Errorf("storage: result field %d: %w", i, err)
		}
		v[i] = f
	}
	return Result{Mu: v[0], SD: v[1], Xsg: v[2], Xuni: v[3], Q: v[4], M: v[5], C: v[6]}, nil
}

// Observable returns the named observable (xsg, xuni, q, m, c).
func (r Result) Observable(name string) (float64, error) {
	switch strings.ToLower(name) {
	case "xsg":
		return r.Xsg, nil
	case "xuni":
		return r.Xuni, nil
	case "q":
		return r.Q, nil
	case "m":
		return r.M, nil
	case "c":
		return r.C, nil
	}
	return 0, fmt.Errorf("unknown observable %q (want one of %v)", name, Observables)
}

// Observables lists the observable names accepted by Result.Observable.
var Observables = []string{"xsg", "xuni", "q", "m", "c"}

// decodeEntry turns a stored payload into an Entry. An empty payload is a
// claim marker; a payload that does not parse also counts as claimed.
func decodeEntry(key string, payload []byte) Entry {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return Entry{Key: key}
	}
	r, err := ParseResult(payload)
	if err != nil {
		return Entry{Key: key}
	}
	return Entry{Key: key, Done: true, Result: r}
}
