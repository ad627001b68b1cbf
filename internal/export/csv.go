package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/san-kum/skglass/internal/scan"
)

var csvHeader = []string{"mu_index", "sd_index", "mu", "sd", "xsg", "xuni", "q", "m", "c"}

// WriteCSV writes every done cell in scan order.
func WriteCSV(w io.Writer, rep scan.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, cs := range rep.Cells {
		if cs.State != scan.Done {
			continue
		}
		r := cs.Result
		record := []string{
			strconv.Itoa(cs.Cell.MuIndex),
			strconv.Itoa(cs.Cell.SDIndex),
			f(r.Mu), f(r.SD), f(r.Xsg), f(r.Xuni), f(r.Q), f(r.M), f(r.C),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
