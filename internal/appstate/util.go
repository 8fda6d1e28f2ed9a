package appstate

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

func fill(dst *image.RGBA, r image.Rectangle, col color.Color) {
	draw.Draw(dst, r, &image.Uniform{col}, image.Point{}, draw.Src)
}

func setThickPixel(img *image.RGBA, x, y, thick int, col color.Color) {
	r := thick / 2
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			px := x + dx
			py := y + dy
			if image.Pt(px, py).In(img.Bounds()) {
				img.Set(px, py, col)
			}
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.Color, thick int) {
	dx := math.Abs(float64(x1 - x0))
	dy := math.Abs(float64(y1 - y0))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		setThickPixel(img, x0, y0, thick, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	drawLine(img, rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Min.Y, col, thick)
	drawLine(img, rect.Max.X-1, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1, col, thick)
	drawLine(img, rect.Max.X-1, rect.Max.Y-1, rect.Min.X, rect.Max.Y-1, col, thick)
	drawLine(img, rect.Min.X, rect.Max.Y-1, rect.Min.X, rect.Min.Y, col, thick)
}

// drawLabel writes s with its baseline at (x, y) in the chrome font.
func drawLabel(dst *image.RGBA, x, y int, s string, col color.Color) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: basicfont.Face7x13, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

func labelWidth(s string) int {
	d := &font.Drawer{Face: basicfont.Face7x13}
	return d.MeasureString(s).Ceil()
}

// fitZoom returns the scale that fits a canvas of size into the space left
// beside the toolbar and above the status bar. Canvases are never enlarged.
func fitZoom(size image.Point, winW, winH, toolbarW int) float64 {
	availW := winW - toolbarW
	availH := winH - statusHeight
	if size.X <= 0 || size.Y <= 0 || availW <= 0 || availH <= 0 {
		return 1
	}
	zx := float64(availW) / float64(size.X)
	zy := float64(availH) / float64(size.Y)
	z := math.Min(zx, zy)
	if z > 1 {
		return 1
	}
	return z
}

// canvasRect anchors the canvas at the top-left corner beside the toolbar.
func canvasRect(size image.Point, toolbarW int, zoom float64) image.Rectangle {
	w := int(float64(size.X) * zoom)
	h := int(float64(size.Y) * zoom)
	return image.Rect(toolbarW, 0, toolbarW+w, h)
}

// toCanvas maps a window position inside dst onto canvas coordinates.
func toCanvas(p image.Point, dst image.Rectangle, zoom float64) (float64, float64) {
	if zoom <= 0 {
		zoom = 1
	}
	return float64(p.X-dst.Min.X) / zoom, float64(p.Y-dst.Min.Y) / zoom
}
