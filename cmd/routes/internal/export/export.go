// Package export renders the route table for consumers outside the Go process.
// The js format reproduces the frontend's const.js module, so the frontend copy
// can be generated from this table instead of maintained by hand.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opentpod/routes/cmd/routes/internal/endpoints"
)

// Format is an export output format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatJS   Format = "js"
)

// ParseFormat validates a format name. "yml" is accepted for yaml.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatJS:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q, must be one of: json, yaml, js", s)
}

// Document is the serialized form of the route table.
type Document struct {
	Endpoints map[string]string `json:"endpoints" yaml:"endpoints"`
	PageSize  int               `json:"page_size" yaml:"page_size"`
}

// NewDocument builds a document holding every route.
func NewDocument() Document {
	return Document{Endpoints: endpoints.Map(), PageSize: endpoints.PageSize}
}

// NewDocumentOf builds a document holding only the given routes. An empty
// list yields an empty table.
func NewDocumentOf(names []endpoints.Name) Document {
	m := make(map[string]string, len(names))
	for _, n := range names {
		m[n.String()] = n.Path()
	}
	return Document{Endpoints: m, PageSize: endpoints.PageSize}
}

// Write renders the full route table to w.
func Write(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument())
	case FormatYAML:
		return writeYAML(w)
	case FormatJS:
		_, err := io.WriteString(w, renderJS())
		return err
	}
	return fmt.Errorf("unknown export format %q", f)
}

// writeYAML keeps declaration order, which a plain map would lose.
func writeYAML(w io.Writer) error {
	table := &yaml.Node{Kind: yaml.MappingNode}
	for _, n := range endpoints.All() {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: n.String()}
		value := &yaml.Node{Kind: yaml.ScalarNode, Value: n.Path()}
		if n == endpoints.UIVideo {
			key.HeadComment = "front end handled routes"
		}
		table.Content = append(table.Content, key, value)
	}

	doc := &yaml.Node{
		Kind: yaml.DocumentNode,
		Content: []*yaml.Node{{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: "endpoints"},
				table,
				{Kind: yaml.ScalarNode, Value: "page_size", HeadComment: "must equal PAGE_SIZE in the backend settings"},
				{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(endpoints.PageSize)},
			},
		}},
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

func renderJS() string {
	var b strings.Builder
	b.WriteString("// Code generated by tpod-routes -export js. DO NOT EDIT.\n\n")
	b.WriteString("const endpoints = {\n")
	all := endpoints.All()
	for i, n := range all {
		if n == endpoints.UIVideo {
			b.WriteString("    // front end handled routes\n")
		}
		b.WriteString("    ")
		b.WriteString(n.String())
		b.WriteString(": ")
		b.WriteString(strconv.Quote(n.Path()))
		if i < len(all)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("};\n\n")
	b.WriteString("// this value should be the same as 'PAGE_SIZE' in backend\n")
	b.WriteString("// django settings\n")
	fmt.Fprintf(&b, "const PAGE_SIZE = %d;\n\n", endpoints.PageSize)
	b.WriteString("export { endpoints, PAGE_SIZE };\n")
	return b.String()
}
