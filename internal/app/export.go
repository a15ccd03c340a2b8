package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/michaelzhang78901-alt/freight-tracker/internal/model"
)

// Export renders the history log as CSV and/or PNG.
func (a *App) Export(_ context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	history := a.newStore().LoadHistory()
	if len(history) == 0 {
		a.Logger.Info().Msg("no history entries to export")
		return nil
	}

	downsampled := downsampleHistory(history, opts.MaxPoints)
	a.Logger.Info().Int("total", len(history)).Int("exported", len(downsampled)).Msg("exporting history")

	if opts.CSVPath != "" {
		if err := writeHistoryCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeHistoryPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleHistory(entries []model.HistoryEntry, max int) []model.HistoryEntry {
	if max <= 0 || len(entries) <= max {
		return entries
	}

	result := make([]model.HistoryEntry, 0, max)
	step := float64(len(entries)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(entries) {
			idx = len(entries) - 1
		}
		result = append(result, entries[idx])
	}
	return result
}

func writeHistoryCSV(path string, entries []model.HistoryEntry) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"date", "timestamp", "fbx01", "fbx11", "differential"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, entry := range entries {
		record := []string{
			entry.Date,
			entry.Timestamp.UTC().Format(time.RFC3339),
			formatRate(entry.FBX01),
			formatRate(entry.FBX11),
			formatRate(entry.Differential),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeHistoryPNG(path string, entries []model.HistoryEntry) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	fbx01X, fbx01Y := seriesPoints(entries, func(e model.HistoryEntry) *float64 { return pointValue(e.FBX01) })
	fbx11X, fbx11Y := seriesPoints(entries, func(e model.HistoryEntry) *float64 { return pointValue(e.FBX11) })
	diffX, diffY := seriesPoints(entries, func(e model.HistoryEntry) *float64 { return pointValue(e.Differential) })

	if len(fbx01X) == 0 && len(fbx11X) == 0 {
		return errors.New("history holds no plottable readings")
	}

	rateFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           fmt.Sprintf("Rate (USD %s)", model.Unit),
			ValueFormatter: rateFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Differential (USD)",
			ValueFormatter: rateFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    model.RouteFBX01,
				XValues: fbx01X,
				YValues: fbx01Y,
			},
			chart.TimeSeries{
				Name:    model.RouteFBX11,
				XValues: fbx11X,
				YValues: fbx11Y,
			},
			chart.TimeSeries{
				Name:    "Differential",
				XValues: diffX,
				YValues: diffY,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

// seriesPoints collects only the entries where the reading is present, so
// partial runs show up as gaps instead of zeros.
func seriesPoints(entries []model.HistoryEntry, value func(model.HistoryEntry) *float64) ([]time.Time, []float64) {
	x := make([]time.Time, 0, len(entries))
	y := make([]float64, 0, len(entries))
	for _, entry := range entries {
		v := value(entry)
		if v == nil {
			continue
		}
		x = append(x, entry.Timestamp)
		y = append(y, *v)
	}
	return x, y
}

func pointValue(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
