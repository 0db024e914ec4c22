package config

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/markusmaresch/finnlo-pdf/internal/crop"
)

// rulesFile is the on-disk shape of a crop rule table:
//
//	[[rule]]
//	pages = [12, 13]
//	description = "exercise chart rows"
//	breaks = [0.07, 0.36, 0.65]
//	height_ratio = 0.3
type rulesFile struct {
	Rules []crop.Rule `toml:"rule"`
}

// LoadRules reads an ordered crop rule table from a TOML file.
func LoadRules(path string) ([]crop.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var rf rulesFile
	if err := toml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return rf.Rules, nil
}

// DefaultRules is the built-in table for the Finnlo 3841 manual: the
// exercise chart pages carry three stacked rows each that are clipped out
// as separate images.
func DefaultRules() []crop.Rule {
	return []crop.Rule{
		{
			Pages:       []int{12, 13, 14, 15},
			Description: "exercise chart rows",
			Breaks:      []float64{0.07, 0.36, 0.65},
			HeightRatio: 0.3,
		},
	}
}
