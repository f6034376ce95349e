package plotter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"kafkastats/internal/stats"
)

// Chart geometry. Every chart occupies one band of the figure; the legend
// sits in the right margin.
const (
	chartWidth   = 960
	chartHeight  = 280
	marginLeft   = 70
	marginRight  = 280
	marginTop    = 40
	marginBottom = 35
)

var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// RenderFigure renders a figure as a standalone SVG document, charts
// stacked vertically against the shared timestamp axis.
func RenderFigure(fig Figure, times []time.Time, opts Options) []byte {
	var b strings.Builder

	totalHeight := chartHeight * len(fig.Charts)
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" font-family="sans-serif">`+"\n",
		chartWidth, totalHeight)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="white"/>`+"\n", chartWidth, totalHeight)

	for i, chart := range fig.Charts {
		renderChart(&b, chart, times, opts, i*chartHeight)
	}

	b.WriteString("</svg>\n")
	return []byte(b.String())
}

func renderChart(b *strings.Builder, chart Chart, times []time.Time, opts Options, yOffset int) {
	plotLeft := float64(marginLeft)
	plotRight := float64(chartWidth - marginRight)
	plotTop := float64(yOffset + marginTop)
	plotBottom := float64(yOffset + chartHeight - marginBottom)

	fmt.Fprintf(b, `<text x="%g" y="%d" font-size="15" font-weight="bold">%s</text>`+"\n",
		plotLeft, yOffset+22, escape(chart.Title))

	// Plot frame
	fmt.Fprintf(b, `<rect x="%g" y="%g" width="%g" height="%g" fill="none" stroke="#cccccc"/>`+"\n",
		plotLeft, plotTop, plotRight-plotLeft, plotBottom-plotTop)

	lo, hi, any := chartRange(chart)
	if !any {
		fmt.Fprintf(b, `<text x="%g" y="%g" font-size="13" fill="#888888" text-anchor="middle">No Data Available</text>`+"\n",
			(plotLeft+plotRight)/2, (plotTop+plotBottom)/2)
		return
	}

	xAt := func(i int) float64 {
		if len(times) < 2 {
			return (plotLeft + plotRight) / 2
		}
		span := times[len(times)-1].Sub(times[0]).Seconds()
		if span <= 0 {
			return (plotLeft + plotRight) / 2
		}
		frac := times[i].Sub(times[0]).Seconds() / span
		return plotLeft + frac*(plotRight-plotLeft)
	}
	yAt := func(v float64) float64 {
		return plotBottom - (v-lo)/(hi-lo)*(plotBottom-plotTop)
	}

	// Axis labels: y extremes and x first/last timestamps.
	fmt.Fprintf(b, `<text x="%g" y="%g" font-size="11" text-anchor="end">%s</text>`+"\n",
		plotLeft-6, plotTop+4, formatAxis(hi))
	fmt.Fprintf(b, `<text x="%g" y="%g" font-size="11" text-anchor="end">%s</text>`+"\n",
		plotLeft-6, plotBottom+4, formatAxis(lo))
	if len(times) > 0 {
		fmt.Fprintf(b, `<text x="%g" y="%g" font-size="11">%s</text>`+"\n",
			plotLeft, plotBottom+16, times[0].Format("15:04:05"))
		fmt.Fprintf(b, `<text x="%g" y="%g" font-size="11" text-anchor="end">%s</text>`+"\n",
			plotRight, plotBottom+16, times[len(times)-1].Format("15:04:05"))
	}
	fmt.Fprintf(b, `<text x="16" y="%g" font-size="11" transform="rotate(-90 16 %g)" text-anchor="middle">%s</text>`+"\n",
		(plotTop+plotBottom)/2, (plotTop+plotBottom)/2, escape(chart.YLabel))

	for si, series := range chart.Series {
		color := palette[si%len(palette)]
		drawSeries(b, series, chart.Step, color, opts.LineWidth, xAt, yAt)

		// Legend entry in the right margin
		ly := plotTop + float64(si)*18
		fmt.Fprintf(b, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="%s" stroke-width="3"/>`+"\n",
			plotRight+10, ly, plotRight+30, ly, color)
		fmt.Fprintf(b, `<text x="%g" y="%g" font-size="11">%s</text>`+"\n",
			plotRight+36, ly+4, escape(series.Label))
	}

	if opts.Annotate {
		constants := 0
		for _, s := range chart.Series {
			if s.Stats.Valid > 0 && s.Stats.Constant {
				constants++
			}
		}
		fmt.Fprintf(b, `<text x="%g" y="%g" font-size="10" fill="#999999">series:%d hidden:%d const:%d</text>`+"\n",
			plotLeft+4, plotBottom-4, len(chart.Series), chart.Hidden, constants)
	}
}

// drawSeries draws one polyline, splitting segments at missing slots. A
// segment with a single point becomes a marker circle instead of a line.
func drawSeries(b *strings.Builder, series Series, step bool, color string, width float64, xAt func(int) float64, yAt func(float64) float64) {
	var points []string
	var lastX, lastY float64
	count := 0

	flush := func() {
		if count == 1 {
			fmt.Fprintf(b, `<circle cx="%g" cy="%g" r="3" fill="%s"/>`+"\n", lastX, lastY, color)
		} else if count > 1 {
			fmt.Fprintf(b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="%g" opacity="0.8"/>`+"\n",
				strings.Join(points, " "), color, width)
		}
		points = points[:0]
		count = 0
	}

	for i, v := range series.Values {
		if stats.IsMissing(v) {
			flush()
			continue
		}
		x, y := xAt(i), yAt(v)
		if step && count > 0 {
			points = append(points, fmt.Sprintf("%.1f,%.1f", x, lastY))
		}
		points = append(points, fmt.Sprintf("%.1f,%.1f", x, y))
		lastX, lastY = x, y
		count++
	}
	flush()
}

// chartRange computes the y-range over all valid values, padded so constant
// series remain visible.
func chartRange(chart Chart) (lo, hi float64, any bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, series := range chart.Series {
		for _, v := range series.Values {
			if stats.IsMissing(v) {
				continue
			}
			any = true
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if !any {
		return 0, 0, false
	}

	if hi == lo {
		margin := math.Abs(lo) * 0.1
		if margin < 1 {
			margin = 1
		}
		return lo - margin, hi + margin, true
	}

	margin := (hi - lo) * 0.08
	if !chart.CenterY && lo >= 0 && lo-margin < 0 {
		return 0, hi + margin, true
	}
	return lo - margin, hi + margin, true
}

func formatAxis(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
