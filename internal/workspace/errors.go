package workspace

import "errors"

// Precondition errors. They are detected locally and never result in a request.
var (
	ErrNoImage       = errors.New("please upload an image first")
	ErrEmptyPrompt   = errors.New("please provide a prompt for enhancement")
	ErrNoAdjustments = errors.New("please make some adjustments before applying")
	ErrNoMask        = errors.New("mask surface is not ready; wait for the image to render")
	ErrBusy          = errors.New("a transformation is already in progress")
	ErrOutOfRange    = errors.New("value out of range")
)

// IsPrecondition reports whether err is one of the locally detected precondition errors.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrNoImage) ||
		errors.Is(err, ErrEmptyPrompt) ||
		errors.Is(err, ErrNoAdjustments) ||
		errors.Is(err, ErrNoMask) ||
		errors.Is(err, ErrBusy) ||
		errors.Is(err, ErrOutOfRange)
}
