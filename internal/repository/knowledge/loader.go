package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
)

// corpusFile is the on-disk corpus shape.
type corpusFile struct {
	Documents []Document `json:"documents"`
}

// LoadCorpus reads a JSON corpus file. Entries without content are dropped.
func LoadCorpus(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}

	var cf corpusFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}

	docs := make([]Document, 0, len(cf.Documents))
	for _, d := range cf.Documents {
		if d.Content == "" {
			continue
		}
		docs = append(docs, d)
	}
	return docs, nil
}
