package vips

import (
	"fmt"
	"reflect"
	"sort"
)

// Options holds keyword arguments of a call. Input names set optional
// inputs; output names request optional outputs. The special key
// "string_options" is applied with SetFromString before anything else.
type Options map[string]any

const stringOptions = "string_options"

// Call runs the named operation. args are the required inputs in the
// operation's argument order, optionally followed by an Options.
//
// The result is nil when the operation has no outputs, the single output
// when it has one, and otherwise a []any of required outputs and modified
// inputs in argument order, followed by a map[string]any of requested
// optional outputs when there are any. Images in the result are new
// references the caller must Close.
func Call(name string, args ...any) (any, error) {
	return current().call(name, nil, args)
}

// CallWithOptions is Call with explicit keyword arguments.
func CallWithOptions(name string, options Options, args ...any) (any, error) {
	return current().call(name, options, args)
}

// Call runs the named operation with the receiver as first argument.
func (r *Image) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, ErrClosed
	}
	return r.h.b.call(name, nil, append([]any{r}, args...))
}

func (b *binding) call(name string, options Options, args []any) (any, error) {
	op, err := b.newOperation(name)
	if err != nil {
		return nil, err
	}
	defer op.Close()

	arguments := op.Arguments()
	byName := make(map[string]ArgumentInfo, len(arguments))
	var required []ArgumentInfo
	for _, a := range arguments {
		byName[a.Name] = a
		if a.positional() {
			required = append(required, a)
		}
	}

	if len(args) == len(required)+1 {
		if trailing, ok := asOptions(args[len(args)-1]); ok {
			options = mergeOptions(options, trailing)
			args = args[:len(args)-1]
		}
	}
	if len(args) != len(required) {
		return nil, &ArityError{Operation: name, Got: len(args), Want: len(required)}
	}

	keys := make([]string, 0, len(options))
	for key := range options {
		if key == stringOptions {
			continue
		}
		if _, ok := byName[normalizeName(key)]; !ok {
			return nil, &UnknownArgumentError{Operation: name, Name: key}
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	b.log.Debug().
		Str("operation", name).
		Int("n_required", len(required)).
		Int("n_args", len(args)).
		Int("n_options", len(options)).
		Msg("call")

	match := findMatchImage(args)

	if s, ok := options[stringOptions]; ok {
		str, ok := toString(s)
		if !ok {
			err := &TypeMismatchError{Type: "gchararray", Fundamental: "gchararray", Value: fmt.Sprintf("%T", s)}
			return nil, fmt.Errorf("%s: %s: %w", name, stringOptions, err)
		}
		if err := op.SetFromString(str); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", name, stringOptions, err)
		}
	}

	for i, a := range required {
		if err := b.setArgument(op, a, match, args[i]); err != nil {
			return nil, err
		}
	}

	var optionalOutputs []ArgumentInfo
	for _, key := range keys {
		a := byName[normalizeName(key)]
		switch {
		case a.IsInput():
			if err := b.setArgument(op, a, match, options[key]); err != nil {
				return nil, err
			}
		case a.IsOutput() && !a.Required() && !a.Deprecated():
			optionalOutputs = append(optionalOutputs, a)
		}
	}

	built, err := op.build()
	if err != nil {
		b.log.Debug().Str("operation", name).Err(err).Msg("build failed")
		return nil, err
	}
	defer built.Close()
	defer built.unrefOutputs()

	var results []any
	for _, a := range arguments {
		if a.Deprecated() || !a.Required() {
			continue
		}
		if a.IsOutput() || (a.IsInput() && a.Modify()) {
			v, err := b.getArgument(built, a)
			if err != nil {
				closeValues(results)
				return nil, err
			}
			results = append(results, v)
		}
	}
	if len(optionalOutputs) > 0 {
		optional := make(map[string]any, len(optionalOutputs))
		for _, a := range optionalOutputs {
			v, err := b.getArgument(built, a)
			if err != nil {
				closeValues(results)
				closeValues([]any{optional})
				return nil, err
			}
			optional[a.Name] = v
		}
		results = append(results, optional)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	}
	return results, nil
}

// setArgument converts value by the argument's type and assigns it.
// Constants given for image arguments are broadcast against match, and
// arguments the operation modifies receive a private copy. Temporary images
// are released once the operation holds its own reference.
func (b *binding) setArgument(op *Operation, a ArgumentInfo, match *Image, value any) error {
	var temps []*Image
	defer func() {
		for _, img := range temps {
			img.Close()
		}
	}()

	if b.isImageType(a.Type) {
		if a.Type == b.types.arrayImage {
			images, created, err := b.imageizeArray(match, value)
			temps = append(temps, created...)
			if err != nil {
				return fmt.Errorf("%s: %s: %w", op.name, a.Name, err)
			}
			value = images
		} else {
			img, created, err := b.imageize(match, value)
			if err != nil {
				return fmt.Errorf("%s: %s: %w", op.name, a.Name, err)
			}
			if created {
				temps = append(temps, img)
			}
			if a.Modify() {
				if img, err = b.modifiableCopy(img); err != nil {
					return fmt.Errorf("%s: %s: %w", op.name, a.Name, err)
				}
				temps = append(temps, img)
			}
			value = img
		}
	}

	p, err := op.h.pointer()
	if err != nil {
		return err
	}
	v, err := b.newTypedValue(a.Type)
	if err != nil {
		return err
	}
	defer v.Close()
	if err := v.Set(value); err != nil {
		return fmt.Errorf("%s: %s: %w", op.name, a.Name, err)
	}
	if err := b.lib.ObjectSetProperty(p, a.Name, v.ptr); err != nil {
		return fmt.Errorf("%s: %s: %w", op.name, a.Name, err)
	}
	return nil
}

func (b *binding) getArgument(op *Operation, a ArgumentInfo) (any, error) {
	p, err := op.h.pointer()
	if err != nil {
		return nil, err
	}
	v, err := b.newTypedValue(a.Type)
	if err != nil {
		return nil, err
	}
	defer v.Close()
	if err := b.lib.ObjectGetProperty(p, a.Name, v.ptr); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op.name, a.Name, err)
	}
	return v.Get()
}

// modifiableCopy returns a private in-memory copy of img for operations that
// draw on their input.
func (b *binding) modifiableCopy(img *Image) (*Image, error) {
	copied, err := b.callImage("copy", nil, img)
	if err != nil {
		return nil, err
	}
	defer copied.Close()
	p, err := copied.pointer()
	if err != nil {
		return nil, err
	}
	mem, err := b.lib.ImageCopyMemory(p)
	if err != nil {
		return nil, err
	}
	return b.newImage(mem), nil
}

// callImage runs an operation with a single image output.
func (b *binding) callImage(name string, options Options, args ...any) (*Image, error) {
	result, err := b.call(name, options, args)
	if err != nil {
		return nil, err
	}
	img, ok := result.(*Image)
	if !ok {
		closeValues([]any{result})
		return nil, fmt.Errorf("vips: %s returned %T, not an image", name, result)
	}
	return img, nil
}

// findMatchImage returns the first image in a depth-first walk of args,
// descending into nested slices and arrays of any element type.
func findMatchImage(args []any) *Image {
	stack := make([]any, 0, len(args))
	for i := len(args) - 1; i >= 0; i-- {
		stack = append(stack, args[i])
	}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch x := v.(type) {
		case *Image:
			if x != nil {
				return x
			}
		case []*Image:
			for i := len(x) - 1; i >= 0; i-- {
				stack = append(stack, x[i])
			}
		case []any:
			for i := len(x) - 1; i >= 0; i-- {
				stack = append(stack, x[i])
			}
		default:
			rv := reflect.ValueOf(v)
			if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
				continue
			}
			switch rv.Type().Elem().Kind() {
			case reflect.Interface, reflect.Slice, reflect.Array, reflect.Pointer:
			default:
				continue
			}
			for i := rv.Len() - 1; i >= 0; i-- {
				stack = append(stack, rv.Index(i).Interface())
			}
		}
	}
	return nil
}

func asOptions(v any) (Options, bool) {
	switch o := v.(type) {
	case Options:
		return o, true
	case map[string]any:
		return Options(o), true
	}
	return nil, false
}

func mergeOptions(base, extra Options) Options {
	merged := make(Options, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// closeValues releases every reference held in a result.
func closeValues(values []any) {
	for _, v := range values {
		switch x := v.(type) {
		case *Image:
			x.Close()
		case *Object:
			x.Close()
		case []*Image:
			for _, img := range x {
				img.Close()
			}
		case map[string]any:
			for _, item := range x {
				closeValues([]any{item})
			}
		}
	}
}
