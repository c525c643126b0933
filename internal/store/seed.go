package store

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"subwise/internal/core"
)

//go:embed seed.yaml
var seedYAML []byte

var defaultSeed = mustParseSeed(seedYAML)

type seedDocument struct {
	Subscriptions []core.Record `yaml:"subscriptions"`
}

// DefaultSeed returns a copy of the built-in default collection.
func DefaultSeed() []core.Subscription {
	return clone(defaultSeed)
}

var errEmptySeed = errors.New("seed has no subscriptions")

// ParseSeed decodes a YAML seed document. Unknown keys and documents
// without any subscription are rejected.
func ParseSeed(data []byte) ([]core.Subscription, error) {
	var doc seedDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			err = errEmptySeed
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if len(doc.Subscriptions) == 0 {
		return nil, fmt.Errorf("parse seed: %w", errEmptySeed)
	}
	subs, err := fromRecords(doc.Subscriptions)
	if err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return subs, nil
}

// LoadSeedFile reads and parses a seed document from disk.
func LoadSeedFile(path string) ([]core.Subscription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

func mustParseSeed(data []byte) []core.Subscription {
	subs, err := ParseSeed(data)
	if err != nil {
		panic(err)
	}
	return subs
}
