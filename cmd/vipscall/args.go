package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cshum/vipscall/vips"
)

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// buildCall turns command line words into the positional arguments and
// keywords of a call to info. Words of the form name=value whose name is an
// optional input become keywords; the rest fill the required inputs in order.
func buildCall(info *vips.OperationInfo, words []string, outputs []string) ([]any, vips.Options, error) {
	var required []vips.ArgumentSummary
	for _, a := range info.RequiredInputs {
		if !a.Deprecated {
			required = append(required, a)
		}
	}
	optional := make(map[string]vips.ArgumentSummary, len(info.OptionalInputs))
	for _, a := range info.OptionalInputs {
		optional[a.Name] = a
	}

	options := vips.Options{}
	var positional []string
	for _, w := range words {
		if name, raw, ok := strings.Cut(w, "="); ok {
			if a, known := optional[name]; known {
				v, err := parseArgument(a, raw)
				if err != nil {
					return nil, nil, err
				}
				options[name] = v
				continue
			}
		}
		positional = append(positional, w)
	}
	if len(positional) != len(required) {
		return nil, nil, fmt.Errorf("%s takes %d arguments (%s), got %d",
			info.Name, len(required), argumentList(required), len(positional))
	}

	args := make([]any, len(positional))
	for i, raw := range positional {
		v, err := parseArgument(required[i], raw)
		if err != nil {
			return nil, nil, err
		}
		args[i] = v
	}

	known := make(map[string]bool, len(info.OptionalOutputs))
	for _, a := range info.OptionalOutputs {
		known[a.Name] = true
	}
	for _, name := range outputs {
		if !known[name] {
			return nil, nil, fmt.Errorf("%s has no optional output %q", info.Name, name)
		}
		options[name] = true
	}
	return args, options, nil
}

func argumentList(args []vips.ArgumentSummary) string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Name
	}
	return strings.Join(names, " ")
}

// parseArgument converts raw by the argument's type. Images are written as
// constants: "5" or "1,2,3" broadcast against the call's first image, and
// "1,2;3,4" is a matrix with one row per semicolon.
func parseArgument(a vips.ArgumentSummary, raw string) (any, error) {
	v, err := parseValue(a, raw)
	if err != nil {
		return nil, fmt.Errorf("argument %s (%s): %w", a.Name, a.Type, err)
	}
	return v, nil
}

func parseValue(a vips.ArgumentSummary, raw string) (any, error) {
	switch a.Type {
	case "gboolean":
		return strconv.ParseBool(raw)
	case "gint", "guint64":
		return strconv.Atoi(raw)
	case "gdouble":
		return strconv.ParseFloat(raw, 64)
	case "gchararray", "VipsRefString":
		return raw, nil
	case "VipsBlob":
		return []byte(raw), nil
	case "VipsArrayInt":
		return parseInts(raw)
	case "VipsArrayDouble":
		return parseFloats(raw)
	case "VipsImage":
		return parseConstant(raw)
	case "VipsArrayImage":
		parts := strings.Split(raw, "|")
		images := make([]any, len(parts))
		for i, p := range parts {
			c, err := parseConstant(p)
			if err != nil {
				return nil, err
			}
			images[i] = c
		}
		return images, nil
	}
	if len(a.Enum) > 0 {
		if n, err := strconv.Atoi(raw); err == nil {
			return n, nil
		}
		return raw, nil
	}
	return nil, fmt.Errorf("cannot be given on the command line")
}

func parseConstant(raw string) (any, error) {
	if !strings.Contains(raw, ";") {
		row, err := parseFloats(raw)
		if err != nil {
			return nil, err
		}
		if len(row) == 1 {
			return row[0], nil
		}
		return row, nil
	}
	var matrix [][]float64
	for _, line := range strings.Split(raw, ";") {
		row, err := parseFloats(line)
		if err != nil {
			return nil, err
		}
		matrix = append(matrix, row)
	}
	return matrix, nil
}

func parseFloats(raw string) ([]float64, error) {
	fields := splitList(raw)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseInts(raw string) ([]int, error) {
	fields := splitList(raw)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func splitList(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
}

// displayValue renders a call result for YAML output.
func displayValue(v any) any {
	switch x := v.(type) {
	case *vips.Image:
		return x.String()
	case []*vips.Image:
		out := make([]any, len(x))
		for i, img := range x {
			out[i] = img.String()
		}
		return out
	case *vips.Object:
		return fmt.Sprintf("<%s>", x.TypeName())
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(x))
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = displayValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = displayValue(item)
		}
		return out
	}
	return v
}

// releaseValue closes every image and object in a call result.
func releaseValue(v any) {
	switch x := v.(type) {
	case *vips.Image:
		x.Close()
	case *vips.Object:
		x.Close()
	case []*vips.Image:
		for _, img := range x {
			img.Close()
		}
	case []any:
		for _, item := range x {
			releaseValue(item)
		}
	case map[string]any:
		for _, item := range x {
			releaseValue(item)
		}
	}
}
