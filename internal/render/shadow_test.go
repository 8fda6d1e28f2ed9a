package render

import (
	"image"
	"testing"
)

func TestMaskBounds(t *testing.T) {
	s := Shadow{Radius: 2, Offset: image.Pt(3, 1), Opacity: 1}
	m := s.Mask(image.Pt(10, 8))
	if m == nil {
		t.Fatal("expected mask")
	}
	want := image.Rect(1, -1, 15, 11)
	if !m.Bounds().Eq(want) {
		t.Fatalf("bounds = %v, want %v", m.Bounds(), want)
	}
	if got := m.AlphaAt(8, 5).A; got != 255 {
		t.Fatalf("centre alpha = %d, want 255", got)
	}
	corner := m.AlphaAt(1, -1).A
	if corner == 0 || corner >= 255 {
		t.Fatalf("corner alpha = %d, want a soft edge", corner)
	}
	if got := m.AlphaAt(0, 0).A; got != 0 {
		t.Fatalf("outside alpha = %d, want 0", got)
	}
}

func TestMaskOpacity(t *testing.T) {
	m := Shadow{Radius: 0, Opacity: 0.5}.Mask(image.Pt(4, 4))
	if m == nil {
		t.Fatal("expected mask")
	}
	if got := m.AlphaAt(2, 2).A; got != 128 {
		t.Fatalf("alpha = %d, want 128", got)
	}
	if !m.Bounds().Eq(image.Rect(0, 0, 4, 4)) {
		t.Fatalf("unblurred mask should match the panel, got %v", m.Bounds())
	}
}

func TestMaskNothingToDraw(t *testing.T) {
	if m := (Shadow{Radius: 4, Opacity: 0}).Mask(image.Pt(4, 4)); m != nil {
		t.Fatal("zero opacity should give no mask")
	}
	if m := PanelShadow().Mask(image.Point{}); m != nil {
		t.Fatal("empty panel should give no mask")
	}
}

func TestCacheReusesMask(t *testing.T) {
	c := NewCache(PanelShadow())
	a := c.Mask(image.Pt(20, 10))
	if b := c.Mask(image.Pt(20, 10)); a != b {
		t.Fatal("same size should reuse the mask")
	}
	if b := c.Mask(image.Pt(21, 10)); a == b {
		t.Fatal("new size should rebuild the mask")
	}
}
