package feature

import (
	"bytes"
	"fmt"
	"go/format"
)

// GenerateEnumSource renders the synced enumeration cases as a gofmt'd Go
// source file declaring a string type with one constant per feature and a
// Values helper, so calling code can reference feature IDs at compile time:
//
//	const PRIORITY_SUPPORT FeaturesMap = "feature-priority-support"
func GenerateEnumSource(pkgName, typeName string, cases []EnumCase) ([]byte, error) {
	if len(cases) == 0 {
		return nil, ErrNoFeatures
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by featuregen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkgName)
	fmt.Fprintf(&buf, "type %s string\n\n", typeName)

	fmt.Fprintf(&buf, "const (\n")
	for _, c := range cases {
		fmt.Fprintf(&buf, "\t%s %s = %q\n", c.Name, typeName, c.Value)
	}
	fmt.Fprintf(&buf, ")\n\n")

	fmt.Fprintf(&buf, "// %sValues lists every feature ID in listing order.\n", typeName)
	fmt.Fprintf(&buf, "func %sValues() []%s {\n\treturn []%s{\n", typeName, typeName, typeName)
	for _, c := range cases {
		fmt.Fprintf(&buf, "\t\t%s,\n", c.Name)
	}
	fmt.Fprintf(&buf, "\t}\n}\n")

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated enum: %w", err)
	}
	return src, nil
}
