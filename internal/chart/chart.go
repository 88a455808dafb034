// Package chart renders the ban-rate curve as a PNG for the /banrate command.
package chart

import (
	"bytes"
	"errors"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var backgroundColor = drawing.ColorFromHex("353840")

// BanRate plots ban minutes per count, one level per consecutive count
// starting at 0, in the bot's dark style.
func BanRate(title string, levels []int) ([]byte, error) {
	if len(levels) == 0 {
		return nil, errors.New("no ban levels to plot")
	}
	if len(levels) == 1 {
		// A one-point series renders as nothing; extend the flat line.
		levels = append(levels, levels[0])
	}
	xs := make([]float64, len(levels))
	ys := make([]float64, len(levels))
	for i, level := range levels {
		xs[i] = float64(i)
		ys[i] = float64(level)
	}

	graph := chart.Chart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: drawing.ColorWhite},
		Background: chart.Style{FillColor: backgroundColor},
		Canvas:     chart.Style{FillColor: backgroundColor},
		XAxis: chart.XAxis{
			Name:      "Count",
			Style:     chart.Style{FontColor: drawing.ColorWhite},
			NameStyle: chart.Style{FontColor: drawing.ColorWhite},
		},
		YAxis: chart.YAxis{
			Name:      "Ban time (minutes)",
			Style:     chart.Style{FontColor: drawing.ColorWhite},
			NameStyle: chart.Style{FontColor: drawing.ColorWhite},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style: chart.Style{
					StrokeColor: drawing.ColorWhite,
					StrokeWidth: 1.5,
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
