package output

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats domains as YAML.
type YAMLFormatter struct{}

// FormatDomain formats a single domain as YAML.
func (f *YAMLFormatter) FormatDomain(d *DomainView) (string, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal domain to YAML: %w", err)
	}

	return string(data), nil
}

// FormatDomainList formats a list of domains as a YAML stream (multiple
// documents separated by ---).
func (f *YAMLFormatter) FormatDomainList(ds []*DomainView) (string, error) {
	if len(ds) == 0 {
		return "", nil
	}

	var buf bytes.Buffer

	for i, d := range ds {
		data, err := yaml.Marshal(d)
		if err != nil {
			return "", fmt.Errorf("failed to marshal domain %s to YAML: %w", d.Name, err)
		}

		if i > 0 {
			buf.WriteString("---\n")
		}

		buf.Write(data)
	}

	return buf.String(), nil
}
