package output

import (
	"encoding/json"
	"fmt"
)

// JSONFormatter formats domains as JSON.
type JSONFormatter struct{}

// FormatDomain formats a single domain as JSON.
func (f *JSONFormatter) FormatDomain(d *DomainView) (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal domain to JSON: %w", err)
	}

	return string(data) + "\n", nil
}

// FormatDomainList formats a list of domains as a JSON array.
func (f *JSONFormatter) FormatDomainList(ds []*DomainView) (string, error) {
	if len(ds) == 0 {
		return "[]\n", nil
	}

	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal domains to JSON: %w", err)
	}

	return string(data) + "\n", nil
}
