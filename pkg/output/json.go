package output

import (
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sdejongh/locsync/pkg/models"
	"gopkg.in/yaml.v3"
)

// JSONDiff is the JSON representation of a diff
type JSONDiff struct {
	Source    string              `json:"source"`
	Dest      string              `json:"dest"`
	Relations map[string][]string `json:"relations"`
	Counts    map[string]int      `json:"counts"`
}

// JSONFormatter writes a diff as one indented JSON document
type JSONFormatter struct{}

// Name implements Formatter
func (f *JSONFormatter) Name() string { return "json" }

// FormatDiff implements Formatter
func (f *JSONFormatter) FormatDiff(w io.Writer, view DiffView) error {
	out := JSONDiff{
		Source:    view.Source,
		Dest:      view.Dest,
		Relations: make(map[string][]string),
		Counts:    make(map[string]int),
	}
	for _, r := range view.Relations() {
		out.Relations[string(r)] = view.Result[r]
		out.Counts[string(r)] = len(view.Result[r])
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// YAMLFormatter writes the relation map as YAML. A diff with a single
// relation is written as a plain list.
type YAMLFormatter struct{}

// Name implements Formatter
func (f *YAMLFormatter) Name() string { return "yaml" }

// FormatDiff implements Formatter
func (f *YAMLFormatter) FormatDiff(w io.Writer, view DiffView) error {
	data, err := MarshalDiff(view)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// MarshalDiff encodes a diff view as YAML with relations in display order
func MarshalDiff(view DiffView) ([]byte, error) {
	rels := view.Relations()
	if len(rels) == 1 {
		return yaml.Marshal(view.Result[rels[0]])
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, r := range rels {
		list := &yaml.Node{Kind: yaml.SequenceNode}
		for _, p := range view.Result[r] {
			list.Content = append(list.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: p})
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(r), Style: yaml.DoubleQuotedStyle},
			list,
		)
	}
	if len(rels) == 0 {
		root.Style = yaml.FlowStyle
	}
	return yaml.Marshal(root)
}

// ParseFilter converts "->, ==" style keys into relations
func ParseFilter(keys []string) ([]models.Relation, error) {
	var out []models.Relation
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		r, err := models.ParseRelation(k)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
