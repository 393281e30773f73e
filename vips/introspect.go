package vips

import (
	"strings"

	"github.com/cshum/vipscall/native"
)

// OperationInfo summarises an operation's argument contract.
type OperationInfo struct {
	Name            string            `yaml:"name"`
	GoName          string            `yaml:"go_name"`
	Description     string            `yaml:"description"`
	Flags           []string          `yaml:"flags,omitempty"`
	Deprecated      bool              `yaml:"deprecated,omitempty"`
	RequiredInputs  []ArgumentSummary `yaml:"required_inputs,omitempty"`
	OptionalInputs  []ArgumentSummary `yaml:"optional_inputs,omitempty"`
	RequiredOutputs []ArgumentSummary `yaml:"required_outputs,omitempty"`
	OptionalOutputs []ArgumentSummary `yaml:"optional_outputs,omitempty"`
}

// ArgumentSummary describes one argument of an OperationInfo.
type ArgumentSummary struct {
	Name        string   `yaml:"name"`
	GoName      string   `yaml:"go_name"`
	Type        string   `yaml:"type"`
	Description string   `yaml:"description,omitempty"`
	Modify      bool     `yaml:"modify,omitempty"`
	Deprecated  bool     `yaml:"deprecated,omitempty"`
	Enum        []string `yaml:"enum,omitempty"`
}

var operationFlagNames = []struct {
	flag native.OperationFlags
	name string
}{
	{native.OperationSequential, "sequential"},
	{native.OperationSequentialUnbuffered, "sequential-unbuffered"},
	{native.OperationNoCache, "nocache"},
	{native.OperationDeprecated, "deprecated"},
	{native.OperationUntrusted, "untrusted"},
	{native.OperationBlocked, "blocked"},
	{native.OperationRevalidate, "revalidate"},
}

// Operations lists the catalog's operation names. Deprecated operations are
// left out unless includeDeprecated is set.
func Operations(includeDeprecated bool) []string {
	b := current()
	var names []string
	for _, name := range b.lib.OperationNames() {
		if !includeDeprecated {
			op, err := b.newOperation(name)
			if err != nil {
				continue
			}
			deprecated := op.Deprecated()
			op.Close()
			if deprecated {
				continue
			}
		}
		names = append(names, name)
	}
	return names
}

// Describe introspects the named operation.
func Describe(name string) (*OperationInfo, error) {
	b := current()
	op, err := b.newOperation(name)
	if err != nil {
		return nil, err
	}
	defer op.Close()

	flags := op.Flags()
	info := &OperationInfo{
		Name:        name,
		GoName:      formatGoFunctionName(name),
		Description: op.Description(),
		Deprecated:  flags&native.OperationDeprecated != 0,
	}
	for _, f := range operationFlagNames {
		if flags&f.flag != 0 {
			info.Flags = append(info.Flags, f.name)
		}
	}
	for _, a := range op.Arguments() {
		summary := ArgumentSummary{
			Name:        a.Name,
			GoName:      formatGoIdentifier(a.Name),
			Type:        b.typeName(a.Type),
			Description: a.Description,
			Modify:      a.Modify(),
			Deprecated:  a.Deprecated(),
		}
		fundamental := b.lib.TypeFundamental(a.Type)
		if fundamental == native.TypeEnum || fundamental == native.TypeFlags {
			for _, v := range b.lib.EnumValues(a.Type) {
				summary.Enum = append(summary.Enum, v.Nick)
			}
		}
		switch {
		case a.IsInput() && a.Required():
			info.RequiredInputs = append(info.RequiredInputs, summary)
		case a.IsInput():
			info.OptionalInputs = append(info.OptionalInputs, summary)
		case a.IsOutput() && a.Required():
			info.RequiredOutputs = append(info.RequiredOutputs, summary)
		case a.IsOutput():
			info.OptionalOutputs = append(info.OptionalOutputs, summary)
		}
	}
	return info, nil
}

// formatGoFunctionName turns "extract_area" into "ExtractArea".
func formatGoFunctionName(name string) string {
	parts := strings.Split(name, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[0:1]) + part[1:]
		}
	}
	return strings.Join(parts, "")
}

// formatGoIdentifier turns "out_array" into "outArray", avoiding keywords.
func formatGoIdentifier(name string) string {
	switch name {
	case "type", "func", "map", "range", "select", "case", "default":
		return name + "_"
	}
	s := formatGoFunctionName(normalizeName(name))
	if s == "" {
		return s
	}
	return strings.ToLower(s[0:1]) + s[1:]
}
