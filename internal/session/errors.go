package session

import "errors"

var (
	// ErrInvalidInput reports a missing file or a malformed control value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDecode reports a file that could not be read or is not an image.
	ErrDecode = errors.New("decode failed")
	// ErrImageLoad reports bytes that are not a valid raster image.
	ErrImageLoad = errors.New("image load failed")
	// ErrExport reports that the engine produced nothing exportable.
	ErrExport = errors.New("export failed")
	// ErrDownload reports that the export artifact could not be delivered.
	ErrDownload = errors.New("download failed")
	// ErrEngineCommand reports a command rejected by the engine.
	ErrEngineCommand = errors.New("engine rejected command")
	// ErrInit reports a failed or repeated session initialization.
	ErrInit = errors.New("initialization failed")
	// ErrNotInitialized is returned by operations issued before Initialize.
	ErrNotInitialized = errors.New("session not initialized")
)
