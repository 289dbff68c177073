package jet

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

var (
	ErrBadDimension       = errors.New("jet: bad dimension")
	ErrBadEnvironment     = errors.New("jet: bad environment")
	ErrBadReference       = errors.New("jet: bad reference point")
	ErrInvalidArgument    = errors.New("jet: invalid argument")
	ErrInvalidEnvironment = errors.New("jet: invalid environment parameters")
	ErrBuilderClosed      = errors.New("jet: environment builder already ended")
	ErrSingular           = errors.New("jet: singular linear part")
)

// Site records where an error was raised.
type Site struct {
	File     string
	Line     int
	Function string
}

func (s Site) String() string {
	return fmt.Sprintf("%s:%d (%s)", s.File, s.Line, s.Function)
}

// callerSite captures the site skip frames above the function calling it.
func callerSite(skip int) Site {
	pcs := make([]uintptr, 4)
	if runtime.Callers(skip+2, pcs) == 0 {
		return Site{File: "?", Function: "?"}
	}
	frame, _ := runtime.CallersFrames(pcs).Next()
	return Site{File: filepath.Base(frame.File), Line: frame.Line, Function: filepath.Base(frame.Function)}
}

// BadDimension is raised when two operands do not live in the same
// environment instance, or when vector lengths disagree.
type BadDimension struct {
	XDim, YDim int
	Site       Site
	Message    string
}

func (e *BadDimension) Error() string {
	return fmt.Sprintf("jet: bad dimension (%d vs %d) at %s: %s", e.XDim, e.YDim, e.Site, e.Message)
}

func (e *BadDimension) Unwrap() error { return ErrBadDimension }

// NewBadDimension builds a BadDimension raised skip frames above its
// caller; skip 0 names the calling function.
func NewBadDimension(skip, xdim, ydim int, msg string) *BadDimension {
	return &BadDimension{XDim: xdim, YDim: ydim, Site: callerSite(skip + 1), Message: msg}
}

// BadEnvironment is raised when a collection of Jets is expected to share
// one environment and does not.
type BadEnvironment struct {
	Index   int
	Site    Site
	Message string
}

func (e *BadEnvironment) Error() string {
	return fmt.Sprintf("jet: bad environment at component %d, %s: %s", e.Index, e.Site, e.Message)
}

func (e *BadEnvironment) Unwrap() error { return ErrBadEnvironment }

func NewBadEnvironment(skip, index int, msg string) *BadEnvironment {
	return &BadEnvironment{Index: index, Site: callerSite(skip + 1), Message: msg}
}

// BadReference is raised when a reference point cannot be represented in
// the requested coefficient field.
type BadReference struct {
	Index int
	Value complex128
	Site  Site
}

func (e *BadReference) Error() string {
	return fmt.Sprintf("jet: reference point component %d = %v has a non-zero imaginary part at %s",
		e.Index, e.Value, e.Site)
}

func (e *BadReference) Unwrap() error { return ErrBadReference }

// NewBadReference builds a BadReference raised skip frames above its
// caller.
func NewBadReference(skip, index int, value complex128) *BadReference {
	return &BadReference{Index: index, Value: value, Site: callerSite(skip + 1)}
}

// InvalidArgument names a scalar function and the standard part it refused.
type InvalidArgument struct {
	Function string
	Value    any
	Site     Site
	Message  string
}

func (e *InvalidArgument) Error() string {
	return fmt.Sprintf("jet: %s: invalid argument %v at %s: %s", e.Function, e.Value, e.Site, e.Message)
}

func (e *InvalidArgument) Unwrap() error { return ErrInvalidArgument }
