// Package indicator detects whether a company uses a tracked competitor
// product by probing vendor subdomains and scanning the company's site
// for telltale links and keywords.
package indicator

import (
	"encoding/json"
	"fmt"
	"os"
)

// TargetIndicator describes one competitor product worth detecting.
type TargetIndicator struct {
	// Name is the product name as reported in detections.
	Name string `json:"name"`
	// SubdomainPattern is a wildcard host like "*.myavionte.com";
	// the "*" is replaced with company-name variations when probing.
	SubdomainPattern string `json:"subdomain_pattern"`
	// Keywords are substrings searched for in page text.
	Keywords []string `json:"keywords"`
	// LinkPatterns are substrings searched for in anchor hrefs and
	// raw page source.
	LinkPatterns []string `json:"link_patterns"`
}

// Defaults returns the built-in competitor products.
func Defaults() []TargetIndicator {
	return []TargetIndicator{
		{
			Name:             "Avionté",
			SubdomainPattern: "*.myavionte.com",
			Keywords:         []string{"avionte", "avionté", "myavionte"},
			LinkPatterns:     []string{"avionte.com", "myavionte.com", "avionté.com"},
		},
		{
			Name:             "Mindscope",
			SubdomainPattern: "*.mindscope.com",
			Keywords:         []string{"mindscope"},
			LinkPatterns:     []string{"mindscope.com"},
		},
		{
			Name:             "Bullhorn",
			SubdomainPattern: "*.bullhorn.com",
			Keywords:         []string{"bullhorn"},
			LinkPatterns:     []string{"bullhorn.com"},
		},
	}
}

// Load reads indicators from a JSON file. A missing file is not an
// error: the built-in defaults are returned instead.
func Load(path string) ([]TargetIndicator, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read indicators file: %w", err)
	}
	var out []TargetIndicator
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse indicators file: %w", err)
	}
	if len(out) == 0 {
		return Defaults(), nil
	}
	return out, nil
}

// Save writes indicators to a JSON file, pretty-printed so humans can
// edit it.
func Save(path string, indicators []TargetIndicator) error {
	data, err := json.MarshalIndent(indicators, "", "  ")
	if err != nil {
		return fmt.Errorf("encode indicators: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write indicators file: %w", err)
	}
	return nil
}
