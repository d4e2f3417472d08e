package analysis

import (
	"civicdesk/backend/internal/config"
	"civicdesk/backend/internal/models"
	"errors"
	"fmt"

	"github.com/uber/h3-go/v4"
)

var ErrInvalidResolution = errors.New("invalid h3 resolution")

// HeatPoint is one weighted map point.
type HeatPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Weight    int     `json:"weight"`
}

// HeatCell aggregates the complaints falling in one H3 cell.
type HeatCell struct {
	Index      string  `json:"h3Index"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lng"`
	Total      int     `json:"total"`
	Unresolved int     `json:"unresolved"`
}

// HeatmapView is the density layer plus the unresolved markers.
type HeatmapView struct {
	Resolution int         `json:"resolution"`
	Points     []HeatPoint `json:"points"`
	Unresolved []HeatPoint `json:"unresolved"`
	Cells      []HeatCell  `json:"cells"`
}

// Heatmap buckets located complaints into H3 cells at the given resolution.
// Complaints without a location are skipped. Cells keep first-seen order.
func Heatmap(complaints []models.Complaint, resolution int) (HeatmapView, error) {
	if resolution < 0 || resolution > config.MaxHeatmapResolution {
		return HeatmapView{}, fmt.Errorf("%w %d", ErrInvalidResolution, resolution)
	}

	view := HeatmapView{Resolution: resolution}
	cellIdx := make(map[h3.Cell]int)

	for _, c := range complaints {
		loc, ok := c.Location()
		if !ok {
			continue
		}
		point := HeatPoint{Latitude: loc.Latitude, Longitude: loc.Longitude, Weight: 1}
		view.Points = append(view.Points, point)
		if !c.IsResolved() {
			view.Unresolved = append(view.Unresolved, point)
		}

		cell := h3.LatLngToCell(h3.NewLatLng(loc.Latitude, loc.Longitude), resolution)
		i, ok := cellIdx[cell]
		if !ok {
			center := cell.LatLng()
			i = len(view.Cells)
			cellIdx[cell] = i
			view.Cells = append(view.Cells, HeatCell{Index: cell.String(), Latitude: center.Lat, Longitude: center.Lng})
		}
		view.Cells[i].Total++
		if !c.IsResolved() {
			view.Cells[i].Unresolved++
		}
	}

	return view, nil
}
