package dashboard

import (
	"sort"

	"github.com/vanderheijden86/mhviz/pkg/highlight"
	"github.com/vanderheijden86/mhviz/pkg/model"
	"github.com/vanderheijden86/mhviz/pkg/render"
	"github.com/vanderheijden86/mhviz/pkg/views"
)

// StateResponse is the JSON body of GET /api/state.
type StateResponse struct {
	Params     model.Params         `json:"params"`
	Selection  string               `json:"selection"`
	Continent  string               `json:"continent,omitempty"`
	Controls   views.Controls       `json:"controls"`
	Scatter    []model.ScatterPoint `json:"scatter"`
	Bins       []BinSummary         `json:"bins"`
	Radial     RadialSummary        `json:"radial"`
	Highlight  HighlightSummary     `json:"highlight"`
	Loads      []LoadSummary        `json:"loads"`
	Generation int                  `json:"generation"`
}

// BinSummary is one histogram bar without its member list.
type BinSummary struct {
	model.BinRange
	Count      int     `json:"count"`
	MaxLiters  float64 `json:"max_liters"`
	MeanLiters float64 `json:"mean_liters"`
	Selected   bool    `json:"selected"`
}

// RadialSummary describes the radial chart.
type RadialSummary struct {
	Title  string                    `json:"title"`
	Groups []model.AgeGroupAggregate `json:"groups"`
}

// HighlightSummary lists marker codes by emphasis.
type HighlightSummary struct {
	Emphasized  []string `json:"emphasized"`
	Dimmed      []string `json:"dimmed"`
	SelectedBin int      `json:"selected_bin"`
	Annotation  string   `json:"annotation,omitempty"`
}

// LoadSummary reports one dataset load.
type LoadSummary struct {
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	Rows   int    `json:"rows"`
	Millis int64  `json:"ms"`
	Error  string `json:"error,omitempty"`
}

// NewStateResponse summarises a rendered frame.
func NewStateResponse(st State, f render.Frame, snap *Snapshot) StateResponse {
	v := f.Views
	resp := StateResponse{
		Params:     v.Params,
		Selection:  st.Selection.String(),
		Continent:  st.Continent,
		Controls:   views.BuildControls(snap.Datasets, snap.Metadata, st.Params, st.Continent),
		Scatter:    v.Scatter.Points,
		Radial:     RadialSummary{Title: render.RadialTitle(v.Params.Issue, v.Radial.Threshold), Groups: v.Radial.Groups},
		Generation: snap.Generation,
	}

	for i, b := range v.Histogram.Bins {
		resp.Bins = append(resp.Bins, BinSummary{
			BinRange:   b.BinRange,
			Count:      b.Count(),
			MaxLiters:  b.MaxLiters(),
			MeanLiters: views.MeanLiters(b),
			Selected:   f.Instructions.BinSelected(i),
		})
	}

	hl := HighlightSummary{SelectedBin: f.Instructions.SelectedBin}
	for code, e := range f.Instructions.Markers {
		switch e {
		case highlight.Emphasized:
			hl.Emphasized = append(hl.Emphasized, code)
		case highlight.Dimmed:
			hl.Dimmed = append(hl.Dimmed, code)
		}
	}
	sort.Strings(hl.Emphasized)
	sort.Strings(hl.Dimmed)
	if a := f.Instructions.Annotation; a != nil {
		hl.Annotation = a.Label()
	}
	resp.Highlight = hl

	for _, r := range snap.Loads {
		ls := LoadSummary{Kind: r.Kind.String(), Path: r.Path, Rows: r.Rows, Millis: r.Duration.Milliseconds()}
		if r.Error != nil {
			ls.Error = r.Error.Error()
		}
		resp.Loads = append(resp.Loads, ls)
	}
	return resp
}
