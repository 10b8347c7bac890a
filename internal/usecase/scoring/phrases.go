package scoring

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PhraseTable is the domain-defining phrase set. It is configuration data:
// swapping the table retargets the scorer to a different subject domain
// without touching the scoring algorithm.
type PhraseTable struct {
	// Primary phrases carry full weight; a query built from these is
	// unmistakably on-domain.
	Primary []string `yaml:"primary"`
	// Secondary phrases carry half weight; they are suggestive but ambiguous.
	Secondary []string `yaml:"secondary"`
}

// LoadPhraseTable reads a phrase table from a YAML file.
func LoadPhraseTable(path string) (PhraseTable, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return PhraseTable{}, fmt.Errorf("failed to read phrase table %s: %w", path, err)
	}

	var table PhraseTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return PhraseTable{}, fmt.Errorf("failed to parse phrase table: %w", err)
	}

	if len(table.Primary) == 0 {
		return PhraseTable{}, fmt.Errorf("phrase table %s has no primary phrases", path)
	}

	return table, nil
}

// Phrases returns all phrases with their weights, primary first.
func (t PhraseTable) Phrases() []WeightedPhrase {
	out := make([]WeightedPhrase, 0, len(t.Primary)+len(t.Secondary))
	for _, p := range t.Primary {
		out = append(out, WeightedPhrase{Text: p, Weight: primaryWeight})
	}
	for _, p := range t.Secondary {
		out = append(out, WeightedPhrase{Text: p, Weight: secondaryWeight})
	}
	return out
}

// WeightedPhrase is one domain phrase with its tier weight.
type WeightedPhrase struct {
	Text   string
	Weight float64
}

const (
	primaryWeight   = 1.0
	secondaryWeight = 0.5
)
