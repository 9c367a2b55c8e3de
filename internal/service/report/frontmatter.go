package report

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Frontmatter is the YAML header of a Markdown brief. Keys render in the
// order they were first set.
type Frontmatter struct {
	fields map[string]interface{}
	order  []string
}

// NewFrontmatter creates an empty frontmatter.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{
		fields: make(map[string]interface{}),
	}
}

// Set adds or replaces a field. Replacing keeps the original position.
func (f *Frontmatter) Set(key string, value interface{}) {
	if _, exists := f.fields[key]; !exists {
		f.order = append(f.order, key)
	}
	f.fields[key] = value
}

// Get retrieves a field value.
func (f *Frontmatter) Get(key string) (interface{}, bool) {
	v, ok := f.fields[key]
	return v, ok
}

// Len returns the number of fields.
func (f *Frontmatter) Len() int {
	return len(f.order)
}

// Render produces the frontmatter block between "---" delimiters, followed
// by a blank line. An empty frontmatter renders as "".
func (f *Frontmatter) Render() (string, error) {
	if len(f.order) == 0 {
		return "", nil
	}

	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range f.order {
		var value yaml.Node
		if err := value.Encode(f.fields[key]); err != nil {
			return "", fmt.Errorf("encoding frontmatter field %s: %w", key, err)
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&value)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	buf.WriteString("---\n\n")
	return buf.String(), nil
}
