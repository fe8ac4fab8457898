// Package export renders reports as JSON, YAML or XLSX.
package export

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	XLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", JSON:
		return JSON, nil
	case YAML, "yml":
		return YAML, nil
	case XLSX:
		return XLSX, nil
	default:
		return "", eris.Errorf("export: unknown format %q", s)
	}
}

// ContentType is the HTTP media type of f.
func (f Format) ContentType() string {
	switch f {
	case YAML:
		return "application/yaml"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Write encodes report to w. XLSX supports the report types Tabulate knows.
func Write(w io.Writer, f Format, report any) error {
	switch f {
	case YAML:
		node, err := yamlNode(report)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return eris.Wrap(err, "export: yaml")
		}
		return eris.Wrap(enc.Close(), "export: yaml")
	case XLSX:
		t, ok := Tabulate(report)
		if !ok {
			return eris.Errorf("export: xlsx not supported for %T", report)
		}
		return writeXLSX(w, t)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", " ")
		return eris.Wrap(enc.Encode(report), "export: json")
	}
}

// yamlNode routes report through its JSON encoding so YAML output uses the
// same field names and order as the JSON API.
func yamlNode(report any) (*yaml.Node, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, eris.Wrap(err, "export: yaml")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "export: yaml")
	}
	blockStyle(&doc)
	return &doc, nil
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
