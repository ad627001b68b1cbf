package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/skglass/internal/grid"
	"github.com/san-kum/skglass/internal/scan"
	"github.com/san-kum/skglass/internal/spinglass"
	"github.com/san-kum/skglass/internal/storage"
)

type ExportData struct {
	Spins   int       `json:"spins"`
	TDim    int       `json:"tdim"`
	ConfNum int       `json:"conf_num"`
	Thermal int       `json:"thermal"`
	Mu      grid.Axis `json:"mu"`
	SD      grid.Axis `json:"sd"`

	Done    int              `json:"done"`
	Claimed int              `json:"claimed"`
	Pending int              `json:"pending"`
	Cells   []storage.Result `json:"cells"`
}

// NewExportData collects the done cells of rep under the run's parameters.
func NewExportData(p spinglass.Params, mu, sd grid.Axis, rep scan.Report) ExportData {
	data := ExportData{
		Spins:   p.N,
		TDim:    p.TDim,
		ConfNum: p.ConfNum,
		Thermal: p.Thermal,
		Mu:      mu,
		SD:      sd,
		Done:    rep.Done,
		Claimed: rep.Claimed,
		Pending: rep.Pending,
		Cells:   make([]storage.Result, 0, rep.Done),
	}
	for _, cs := range rep.Cells {
		if cs.State == scan.Done {
			data.Cells = append(data.Cells, cs.Result)
		}
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
