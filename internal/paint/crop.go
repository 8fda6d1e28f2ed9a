package paint

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// selection draws the dashed crop rectangle on the preview layer.
func (c *Canvas) selection(a, b point) {
	r := rectBetween(a, b)
	if r.Empty() {
		return
	}
	c.top.SetColor(color.Black)
	c.top.SetLineWidth(1)
	c.top.SetDash(6, 4)
	c.top.DrawRectangle(float64(r.Min.X)+0.5, float64(r.Min.Y)+0.5, float64(r.Dx()-1), float64(r.Dy()-1))
	c.stroke(c.top)
	c.top.ClearDash()
	c.applyStyle()
}

// lift copies the selected region into a floating patch and paints the hole
// white. The next press and release places the patch.
func (c *Canvas) lift(a, b point) {
	r := rectBetween(a, b).Intersect(image.Rect(0, 0, c.width, c.height))
	if r.Empty() {
		return
	}
	c.flush(c.base)
	src := pixels(c.base)
	patch := image.NewRGBA(r)
	draw.Draw(patch, r, src, r.Min, draw.Src)
	draw.Draw(src, r, image.NewUniform(color.White), image.Point{}, draw.Src)
	c.patch = patch
	c.mode = modeCropPlace
	c.previewPatch(point{float64(r.Min.X), float64(r.Min.Y)})
	c.log.Debug("region lifted", "rect", r)
}

func (c *Canvas) previewPatch(at point) {
	c.clearPreview()
	if c.patch == nil {
		return
	}
	dst := pixels(c.top)
	draw.Draw(dst, c.patchRect(at), c.patch, c.patch.Rect.Min, draw.Src)
}

// place commits the patch with its top-left corner at the pointer.
func (c *Canvas) place(at point) {
	c.clearPreview()
	if c.patch == nil {
		c.mode = modeCrop
		return
	}
	c.blit(c.patch, c.patchRect(at).Min)
	c.patch = nil
	c.mode = modeCrop
}

func (c *Canvas) blit(img *image.RGBA, at image.Point) {
	c.flush(c.base)
	dst := pixels(c.base)
	r := image.Rectangle{Min: at, Max: at.Add(img.Rect.Size())}
	draw.Draw(dst, r, img, img.Rect.Min, draw.Src)
}

func (c *Canvas) patchRect(at point) image.Rectangle {
	tl := image.Pt(int(math.Floor(at.x)), int(math.Floor(at.y)))
	return image.Rectangle{Min: tl, Max: tl.Add(c.patch.Rect.Size())}
}

func rectBetween(a, b point) image.Rectangle {
	return image.Rect(
		int(math.Floor(a.x)), int(math.Floor(a.y)),
		int(math.Floor(b.x)), int(math.Floor(b.y)),
	)
}
