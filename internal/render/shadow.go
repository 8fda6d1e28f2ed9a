// Package render holds image effects used by the window chrome.
package render

import (
	"image"
	"sync"
)

// Shadow describes the soft drop shadow cast by an opaque panel.
type Shadow struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// PanelShadow is the shadow the window draws under the canvas.
func PanelShadow() Shadow {
	return Shadow{Radius: 4, Offset: image.Pt(3, 3), Opacity: 0.35}
}

// Mask returns the shadow of a panel of the given size as an alpha mask in
// panel coordinates: the panel's top-left corner is the origin, and the mask
// extends past it by Radius and Offset. A nil mask means nothing to draw.
func (s Shadow) Mask(size image.Point) *image.Alpha {
	if size.X <= 0 || size.Y <= 0 || s.Opacity <= 0 {
		return nil
	}
	opacity := s.Opacity
	if opacity > 1 {
		opacity = 1
	}
	radius := s.Radius
	if radius < 0 {
		radius = 0
	}

	panel := image.Rect(0, 0, size.X, size.Y).Add(s.Offset)
	mask := image.NewAlpha(panel.Inset(-radius))
	a := uint8(opacity*255 + 0.5)
	for y := panel.Min.Y; y < panel.Max.Y; y++ {
		row := mask.PixOffset(panel.Min.X, y)
		for x := 0; x < size.X; x++ {
			mask.Pix[row+x] = a
		}
	}
	boxBlur(mask.Pix, mask.Stride, mask.Rect.Dx(), mask.Rect.Dy(), radius)
	return mask
}

// boxBlur blurs an 8-bit plane in place with a separable box filter. Windows
// are clamped at the edges.
func boxBlur(pix []uint8, stride, w, h, radius int) {
	if radius <= 0 || w == 0 || h == 0 {
		return
	}
	n := w
	if h > n {
		n = h
	}
	prefix := make([]int, n+1)
	line := make([]uint8, n)

	pass := func(count, step int, start func(i int) int, lines int) {
		for i := 0; i < lines; i++ {
			base := start(i)
			for j := 0; j < count; j++ {
				line[j] = pix[base+j*step]
				prefix[j+1] = prefix[j] + int(line[j])
			}
			for j := 0; j < count; j++ {
				lo, hi := j-radius, j+radius
				if lo < 0 {
					lo = 0
				}
				if hi >= count {
					hi = count - 1
				}
				pix[base+j*step] = uint8((prefix[hi+1] - prefix[lo]) / (hi - lo + 1))
			}
		}
	}
	pass(w, 1, func(y int) int { return y * stride }, h)
	pass(h, stride, func(x int) int { return x }, w)
}

// Cache keeps the most recent mask so redraws at a stable size reuse it.
type Cache struct {
	shadow Shadow

	mu   sync.Mutex
	size image.Point
	mask *image.Alpha
}

// NewCache returns a cache for s.
func NewCache(s Shadow) *Cache {
	return &Cache{shadow: s}
}

// Mask returns the shadow mask for size, building it when the size changes.
func (c *Cache) Mask(size image.Point) *image.Alpha {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mask == nil || c.size != size {
		c.mask = c.shadow.Mask(size)
		c.size = size
	}
	return c.mask
}
