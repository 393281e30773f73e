package vips

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when a closed object is used.
var ErrClosed = errors.New("vips: use of closed object")

// LookupError reports an operation name the catalog does not know.
type LookupError struct {
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no such operation %s", e.Name)
}

// ArityError reports a positional argument count that does not match the
// operation's required inputs.
type ArityError struct {
	Operation string
	Got       int
	Want      int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("unable to call %s: %d arguments given, but %d required",
		e.Operation, e.Got, e.Want)
}

// UnknownArgumentError reports a keyword that names no argument of the
// operation.
type UnknownArgumentError struct {
	Operation string
	Name      string
}

func (e *UnknownArgumentError) Error() string {
	return fmt.Sprintf("%s does not support optional argument %s", e.Operation, e.Name)
}

// TypeMismatchError reports a value that cannot be stored in, or read from,
// a GValue of the given type.
type TypeMismatchError struct {
	Type        string
	Fundamental string
	Value       string
}

func (e *TypeMismatchError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("unsupported gtype %s, fundamental %s", e.Type, e.Fundamental)
	}
	return fmt.Sprintf("unsupported gtype %s, fundamental %s, for value of type %s",
		e.Type, e.Fundamental, e.Value)
}

// EnumLookupError reports a nickname or value missing from an enum.
type EnumLookupError struct {
	Type string
	Nick string
	Err  error
}

func (e *EnumLookupError) Error() string {
	return fmt.Sprintf("enum %s has no member %q", e.Type, e.Nick)
}

func (e *EnumLookupError) Unwrap() error { return e.Err }

// BuildError wraps the native error of a failed operation build.
type BuildError struct {
	Operation string
	Err       error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("unable to call %s: %v", e.Operation, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// BroadcastShapeError reports a constant that cannot be turned into an image.
type BroadcastShapeError struct {
	Reason string
}

func (e *BroadcastShapeError) Error() string {
	return "unable to make image from constant: " + e.Reason
}

// UnknownPropertyError reports a property or metadata item that does not
// exist on the object.
type UnknownPropertyError struct {
	Name string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("no property named %s", e.Name)
}
