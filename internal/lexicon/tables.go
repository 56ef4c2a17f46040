package lexicon

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tables holds the normalization tables applied before tokenizing free
// text. Phrases join multi-word names into one token; Variants collapse
// alternative spellings onto a canonical one.
type Tables struct {
	Phrases  map[string]string `yaml:"phrases"`
	Variants map[string]string `yaml:"variants"`
}

// DefaultTables returns the built-in genre phrases and spelling variants.
func DefaultTables() Tables {
	return Tables{
		Phrases: map[string]string{
			"hip hop":          "hiphop",
			"lo fi":            "lofi",
			"drum and bass":    "dnb",
			"drum n bass":      "dnb",
			"rock and roll":    "rocknroll",
			"rock n roll":      "rocknroll",
			"deep house":       "deephouse",
			"k pop":            "kpop",
			"j pop":            "jpop",
			"synth wave":       "synthwave",
			"dub step":         "dubstep",
			"rhythm and blues": "rnb",
		},
		Variants: map[string]string{
			"hip-hop":     "hiphop",
			"lo-fi":       "lofi",
			"drum & bass": "dnb",
			"drum&bass":   "dnb",
			"d&b":         "dnb",
			"r&b":         "rnb",
			"rock & roll": "rocknroll",
			"rock'n'roll": "rocknroll",
			"k-pop":       "kpop",
			"j-pop":       "jpop",
			"synth-wave":  "synthwave",
			"dub-step":    "dubstep",
		},
	}
}

// LoadTables reads tables from a YAML file of the form
//
//	phrases:
//	  hip hop: hiphop
//	variants:
//	  hip-hop: hiphop
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("failed to read tables file: %w", err)
	}
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tables{}, fmt.Errorf("failed to parse tables file %s: %w", path, err)
	}
	return t, nil
}

// Merge returns a copy of t with the entries of other added on top.
func (t Tables) Merge(other Tables) Tables {
	out := Tables{
		Phrases:  make(map[string]string, len(t.Phrases)+len(other.Phrases)),
		Variants: make(map[string]string, len(t.Variants)+len(other.Variants)),
	}
	for _, src := range []Tables{t, other} {
		for k, v := range src.Phrases {
			out.Phrases[k] = v
		}
		for k, v := range src.Variants {
			out.Variants[k] = v
		}
	}
	return out
}
