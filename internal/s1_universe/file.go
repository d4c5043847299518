package s1_universe

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/sp500-screener/internal/contracts"
)

// fileFormat is the universe override file
//
//	constituents:
//	  - symbol: AAPL
//	    name: Apple Inc.
//	    sector: Information Technology
//	    sub_industry: Technology Hardware, Storage & Peripherals
type fileFormat struct {
	Constituents []contracts.Constituent `yaml:"constituents"`
}

// LoadFile reads constituents from a YAML file
func LoadFile(path string) ([]contracts.Constituent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	constituents, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return constituents, nil
}

// Parse decodes the YAML universe format; unknown keys are rejected
func Parse(data []byte) ([]contracts.Constituent, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f fileFormat
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse universe yaml: %w", err)
	}
	return f.Constituents, nil
}
