package spatmix

import "log"

// ErrorHandler receives errors the engine absorbs instead of returning.
// Voice operations report failure as a boolean; the underlying cause goes
// here. Handlers run on the caller's goroutine for facade operations and
// on the worker goroutine for mixing errors, never on the output callback.
type ErrorHandler interface {
	HandleError(error)
}

// DefaultErrorHandler logs through the std log package.
type DefaultErrorHandler struct{}

// HandleError implements ErrorHandler.
func (h *DefaultErrorHandler) HandleError(err error) {
	log.Printf("spatmix: %v", err)
}

// FuncErrorHandler adapts a plain function to ErrorHandler.
type FuncErrorHandler func(error)

// HandleError implements ErrorHandler.
func (f FuncErrorHandler) HandleError(err error) {
	if f != nil {
		f(err)
	}
}
