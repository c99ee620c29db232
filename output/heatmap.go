package output

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/tracevis/tracevis/counter"
)

// PlotQuadHeatmap renders the quad histogram as an interactive heatmap:
// one row per (chip, die) pair, one column per quad index.
func PlotQuadHeatmap(h *counter.Histograms, filename string) error {
	type pair struct{ chip, die int }

	pairSet := make(map[pair]bool)
	quadSet := make(map[int]bool)
	for k := range h.Quad {
		pairSet[pair{k.Chip, k.Die}] = true
		quadSet[k.Quad] = true
	}

	pairs := make([]pair, 0, len(pairSet))
	for p := range pairSet {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].chip != pairs[j].chip {
			return pairs[i].chip < pairs[j].chip
		}
		return pairs[i].die < pairs[j].die
	})

	quads := make([]int, 0, len(quadSet))
	for q := range quadSet {
		quads = append(quads, q)
	}
	sort.Ints(quads)

	pairIdx := make(map[pair]int, len(pairs))
	yLabels := make([]string, len(pairs))
	for i, p := range pairs {
		pairIdx[p] = i
		yLabels[i] = fmt.Sprintf("chip %d / die %d", p.chip, p.die)
	}
	quadIdx := make(map[int]int, len(quads))
	xLabels := make([]string, len(quads))
	for i, q := range quads {
		quadIdx[q] = i
		xLabels[i] = fmt.Sprintf("quad %d", q)
	}

	var heatmapData []opts.HeatMapData
	var maxCount int
	for k, count := range h.Quad {
		if count > maxCount {
			maxCount = count
		}
		heatmapData = append(heatmapData, opts.HeatMapData{
			Value: [3]interface{}{quadIdx[k.Quad], pairIdx[pair{k.Chip, k.Die}], count},
			Name:  k.String(),
		})
	}

	heatmap := charts.NewHeatMap()
	heatmap.SetGlobalOptions(
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       "Quad Activity Heatmap",
			Width:           "160vh",
			Height:          "90vh",
			Theme:           types.ThemeVintage,
			BackgroundColor: "transparent",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Trace Events by Quad",
			Left:  "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Trigger: "item",
			Formatter: opts.FuncOpts(`function (params) {
		return params.name + '<br />Count: ' + params.value[2];
	}`),
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show: opts.Bool(true),
			Min:  0,
			Max:  float32(maxCount),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#ffff8f", "#ff0000", "#000000"},
			},
			Orient: "vertical",
			Right:  "5%",
			Top:    "middle",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Quad",
			Type: "category",
			Data: xLabels,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Chip / Die",
			Type: "category",
			Data: yLabels,
		}),
	)

	heatmap.AddSeries("Heatmap", heatmapData)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(heatmap)

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create heatmap file %s: %w", filename, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("rendering heatmap: %w", err)
	}

	fmt.Printf("Heatmap saved to %s\n", filename)
	return nil
}
