package session

import "image"

// Engine is the drawing surface driven by the Controller. Implementations
// need not be safe for concurrent use; the Controller only calls them from
// the loop goroutine.
type Engine interface {
	SetStrokeColor(value string) error
	SetStrokeWidth(width int) error

	ActivatePen() error
	ActivateStraightLine() error
	ActivateCircle() error
	ActivateFill() error
	ActivateCrop() error
	ActivateText() error

	PointerDown(x, y float64)
	PointerMove(x, y float64)
	PointerUp(x, y float64)
	Key(key string)

	ImportImage(img image.Image) error
	Export() ([]byte, error)
	Snapshot() *image.RGBA
}

// EngineFactory constructs an engine surface of the given size.
type EngineFactory func(width, height int) (Engine, error)
