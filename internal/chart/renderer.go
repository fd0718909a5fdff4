package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sort"

	"github.com/markcheno/go-talib"

	"trendboard/internal/domain"
)

const (
	defaultChartWidth  = 960
	defaultChartHeight = 640
	maxChartCandles    = 240
	fastMAPeriod       = 50
	slowMAPeriod       = 200
)

var (
	colBackground = color.RGBA{R: 250, G: 252, B: 255, A: 255}
	colGrid       = color.RGBA{R: 225, G: 232, B: 240, A: 255}
	colBull       = color.RGBA{R: 18, G: 140, B: 126, A: 255}
	colBear       = color.RGBA{R: 210, G: 61, B: 87, A: 255}
	colFlat       = color.RGBA{R: 214, G: 170, B: 32, A: 255}
	colWick       = color.RGBA{R: 58, G: 64, B: 90, A: 255}
	colFastMA     = color.RGBA{R: 62, G: 106, B: 214, A: 255}
	colSlowMA     = color.RGBA{R: 255, G: 149, B: 0, A: 255}
	colBand       = color.RGBA{R: 104, G: 122, B: 146, A: 255}
	colReturns    = color.RGBA{R: 120, G: 139, B: 164, A: 255}
)

// Image is an encoded chart.
type Image struct {
	MimeType string
	Width    int
	Height   int
	Bytes    []byte
}

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderTrendChart draws candles with the 50/200 moving averages and the
// support and resistance levels of sig. The lower panel shows close-to-close
// returns and the right edge marker takes the trend color.
func (r *Renderer) RenderTrendChart(candles []domain.Candle, sig domain.TimeframeSignal) (*Image, error) {
	all := normalizeCandles(candles)
	if len(all) < 2 {
		return nil, fmt.Errorf("need at least 2 candles to render chart")
	}

	// Averages use the full history so the visible window starts warmed up.
	closes := extractCloses(all)
	fast := movingAverage(closes, fastMAPeriod)
	slow := movingAverage(closes, slowMAPeriod)

	start := max(0, len(all)-maxChartCandles)
	series := all[start:]
	fast = fast[start:]
	slow = slow[start:]

	img := image.NewRGBA(image.Rect(0, 0, defaultChartWidth, defaultChartHeight))
	fillRect(img, img.Bounds(), colBackground)

	mainRect := image.Rect(60, 20, defaultChartWidth-20, (defaultChartHeight*72)/100)
	auxRect := image.Rect(60, mainRect.Max.Y+16, defaultChartWidth-20, defaultChartHeight-30)
	drawGrid(img, mainRect, 8, 6)
	drawGrid(img, auxRect, 8, 3)

	minPrice, maxPrice := priceBounds(series, fast, slow, sig)
	drawCandles(img, mainRect, series, minPrice, maxPrice)
	drawSeries(img, mainRect, fast, minPrice, maxPrice, colFastMA)
	drawSeries(img, mainRect, slow, minPrice, maxPrice, colSlowMA)
	if sig.Support > 0 {
		drawHorizontalValueLine(img, mainRect, sig.Support, minPrice, maxPrice, colBand)
	}
	if sig.Resistance > 0 {
		drawHorizontalValueLine(img, mainRect, sig.Resistance, minPrice, maxPrice, colBand)
	}

	markerX := mapIndexToX(len(series)-1, len(series), mainRect)
	drawLine(img, markerX, mainRect.Min.Y, markerX, mainRect.Max.Y, trendColor(sig.Trend))

	drawReturnBars(img, auxRect, series)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return &Image{
		MimeType: "image/png",
		Width:    defaultChartWidth,
		Height:   defaultChartHeight,
		Bytes:    buf.Bytes(),
	}, nil
}

func trendColor(t domain.Trend) color.RGBA {
	switch t {
	case domain.TrendUp:
		return colBull
	case domain.TrendDown:
		return colBear
	default:
		return colFlat
	}
}

func normalizeCandles(in []domain.Candle) []domain.Candle {
	out := make([]domain.Candle, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OpenTime.Before(out[j].OpenTime) })
	return out
}

// movingAverage is NaN until period closes are available.
func movingAverage(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(closes) < period {
		return out
	}
	sma := talib.Sma(closes, period)
	copy(out[period-1:], sma[period-1:])
	return out
}

func priceBounds(candles []domain.Candle, fast, slow []float64, sig domain.TimeframeSignal) (float64, float64) {
	minV, maxV := candles[0].Low, candles[0].High
	for _, c := range candles {
		minV = math.Min(minV, c.Low)
		maxV = math.Max(maxV, c.High)
	}
	for _, series := range [][]float64{fast, slow} {
		lo, hi := finiteBounds(series)
		if !math.IsNaN(lo) {
			minV = math.Min(minV, lo)
			maxV = math.Max(maxV, hi)
		}
	}
	for _, level := range []float64{sig.Support, sig.Resistance} {
		if level > 0 {
			minV = math.Min(minV, level)
			maxV = math.Max(maxV, level)
		}
	}
	if maxV <= minV {
		maxV = minV + 1
	}
	return minV, maxV
}

func drawCandles(img *image.RGBA, rect image.Rectangle, candles []domain.Candle, minPrice, maxPrice float64) {
	candleWidth := max(3, (rect.Dx()-10)/len(candles)-1)
	for i, c := range candles {
		x := mapIndexToX(i, len(candles), rect)
		highY := mapValueToY(c.High, minPrice, maxPrice, rect)
		lowY := mapValueToY(c.Low, minPrice, maxPrice, rect)
		drawLine(img, x, highY, x, lowY, colWick)

		openY := mapValueToY(c.Open, minPrice, maxPrice, rect)
		closeY := mapValueToY(c.Close, minPrice, maxPrice, rect)
		top := min(openY, closeY)
		bottom := max(openY, closeY)
		if bottom-top < 2 {
			bottom = top + 2
		}

		bodyRect := image.Rect(x-candleWidth/2, top, x+candleWidth/2+1, bottom+1)
		bodyColor := colBull
		if c.Close < c.Open {
			bodyColor = colBear
		}
		fillRect(img, bodyRect, bodyColor)
	}
}

func drawReturnBars(img *image.RGBA, rect image.Rectangle, candles []domain.Candle) {
	vals := make([]float64, len(candles))
	vals[0] = math.NaN()
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev == 0 {
			vals[i] = math.NaN()
			continue
		}
		vals[i] = (candles[i].Close - prev) / prev * 100
	}
	minV, maxV := finiteBounds(vals)
	if math.IsNaN(minV) {
		return
	}
	minV = math.Min(minV, 0)
	maxV = math.Max(maxV, 0)
	if minV == maxV {
		maxV = minV + 1
	}
	drawHorizontalValueLine(img, rect, 0, minV, maxV, colBand)
	drawBars(img, rect, vals, minV, maxV, colReturns)
}

func drawSeries(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	lastX, lastY := -1, -1
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			lastX, lastY = -1, -1
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		if lastX >= 0 {
			drawLine(img, lastX, lastY, x, y, col)
		}
		lastX, lastY = x, y
	}
}

func drawBars(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	barW := max(1, (rect.Dx()-10)/len(series)-1)
	zeroY := mapValueToY(0, minV, maxV, rect)
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		top := min(y, zeroY)
		bottom := max(y, zeroY)
		fillRect(img, image.Rect(x-barW/2, top, x+barW/2+1, bottom+1), col)
	}
}

func drawGrid(img *image.RGBA, rect image.Rectangle, verticalLines, horizontalLines int) {
	for i := 0; i <= verticalLines; i++ {
		x := rect.Min.X + (rect.Dx()*i)/max(1, verticalLines)
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colGrid)
	}
	for i := 0; i <= horizontalLines; i++ {
		y := rect.Min.Y + (rect.Dy()*i)/max(1, horizontalLines)
		drawLine(img, rect.Min.X, y, rect.Max.X, y, colGrid)
	}
}

func drawHorizontalValueLine(img *image.RGBA, rect image.Rectangle, value, minV, maxV float64, col color.RGBA) {
	y := mapValueToY(value, minV, maxV, rect)
	drawLine(img, rect.Min.X, y, rect.Max.X, y, col)
}

func mapIndexToX(idx, total int, rect image.Rectangle) int {
	if total <= 1 {
		return rect.Min.X
	}
	return rect.Min.X + (idx*(rect.Dx()-1))/(total-1)
}

func mapValueToY(value, minV, maxV float64, rect image.Rectangle) int {
	if maxV <= minV {
		return rect.Max.Y
	}
	ratio := (value - minV) / (maxV - minV)
	ratio = math.Max(0, math.Min(1, ratio))
	return rect.Max.Y - int(ratio*float64(rect.Dy()-1))
}

// finiteBounds returns NaN bounds when no value is finite.
func finiteBounds(values []float64) (float64, float64) {
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if math.IsInf(minV, 1) {
		return math.NaN(), math.NaN()
	}
	return minV, maxV
}

func extractCloses(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Close
	}
	return out
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	r := rect.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
