package report

import (
	"bytes"

	"github.com/dmitrijs2005/equipview/internal/equipment"
	"github.com/wcharczuk/go-chart/v2"
)

const (
	chartWidth  = 640
	chartHeight = 320
)

// distributionChart renders the type distribution as a PNG bar chart.
// The y range is pinned so identical input yields identical pixels.
func distributionChart(entries []equipment.DistributionEntry) ([]byte, error) {
	bars := make([]chart.Value, 0, len(entries))
	top := 1
	for _, e := range entries {
		bars = append(bars, chart.Value{Label: e.Label, Value: float64(e.Count)})
		top = max(top, e.Count)
	}

	graph := chart.BarChart{
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   40,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 12, Bottom: 8}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(top)},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
