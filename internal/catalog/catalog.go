// Package catalog loads the versioned rule, pattern, strategy and knowledge
// tables from YAML.
//
// A catalog file has up to four top-level sections:
//
//	rules:      structure.Rules    (type triggers, domain keywords, regex families)
//	patterns:   patterns.Catalog   (cross-domain pattern library)
//	strategies: strategy.Catalog   (reasoning strategies and selection tables)
//	knowledge:  []knowledge.Entry  (builtin knowledge seed)
//
// A section present in the file replaces the built-in table as a whole; absent
// sections keep the built-in defaults.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fyrsmithlabs/problemsolver/internal/knowledge"
	"github.com/fyrsmithlabs/problemsolver/internal/patterns"
	"github.com/fyrsmithlabs/problemsolver/internal/problem"
	"github.com/fyrsmithlabs/problemsolver/internal/strategy"
	"github.com/fyrsmithlabs/problemsolver/internal/structure"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxCatalogFileSize = 1024 * 1024 // 1MB

// ErrFileTooLarge indicates a catalog file over the size limit.
var ErrFileTooLarge = errors.New("catalog file too large")

// Bundle holds every table the pipeline is built from.
type Bundle struct {
	Rules      structure.Rules
	Patterns   patterns.Catalog
	Strategies strategy.Catalog
	Knowledge  []knowledge.Entry
}

// Defaults returns the built-in tables.
func Defaults() *Bundle {
	return &Bundle{
		Rules:      structure.DefaultRules(),
		Patterns:   patterns.DefaultCatalog(),
		Strategies: strategy.DefaultCatalog(),
		Knowledge:  knowledge.DefaultEntries(),
	}
}

// Load reads a catalog file. An empty path returns Defaults.
func Load(path string) (*Bundle, error) {
	if path == "" {
		return Defaults(), nil
	}
	content, err := readLimited(path)
	if err != nil {
		return nil, err
	}
	return Parse(content)
}

// Parse decodes catalog YAML.
func Parse(content []byte) (*Bundle, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	b := Defaults()
	if k.Exists("rules") {
		var rules structure.Rules
		if err := k.Unmarshal("rules", &rules); err != nil {
			return nil, fmt.Errorf("decoding rules: %w", err)
		}
		b.Rules = rules
	}
	if k.Exists("patterns") {
		var c patterns.Catalog
		if err := k.Unmarshal("patterns", &c); err != nil {
			return nil, fmt.Errorf("decoding patterns: %w", err)
		}
		b.Patterns = c
	}
	if k.Exists("strategies") {
		var c strategy.Catalog
		if err := k.Unmarshal("strategies", &c); err != nil {
			return nil, fmt.Errorf("decoding strategies: %w", err)
		}
		b.Strategies = c
	}
	if k.Exists("knowledge") {
		var entries []knowledge.Entry
		if err := k.Unmarshal("knowledge", &entries); err != nil {
			return nil, fmt.Errorf("decoding knowledge: %w", err)
		}
		b.Knowledge = entries
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the closed sets the decoder cannot enforce.
func (b *Bundle) Validate() error {
	for _, t := range b.Rules.TypeTriggers {
		if !t.Type.Valid() {
			return fmt.Errorf("rules: type trigger %q: %w", t.Type, problem.ErrInvalidProblemType)
		}
	}
	for _, t := range b.Rules.TypeTemplates {
		if !t.Type.Valid() {
			return fmt.Errorf("rules: type template %q: %w", t.Type, problem.ErrInvalidProblemType)
		}
	}
	if err := b.Patterns.Validate(); err != nil {
		return fmt.Errorf("patterns: %w", err)
	}
	if err := b.Strategies.Validate(); err != nil {
		return fmt.Errorf("strategies: %w", err)
	}
	for _, m := range b.Strategies.TypeStrategies {
		if !m.Type.Valid() {
			return fmt.Errorf("strategies: type mapping %q: %w", m.Type, problem.ErrInvalidProblemType)
		}
	}
	return nil
}

// LoadKnowledge reads a seed file whose top-level "entries" list holds
// knowledge entries.
func LoadKnowledge(path string) ([]knowledge.Entry, error) {
	content, err := readLimited(path)
	if err != nil {
		return nil, err
	}
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing knowledge seed %s: %w", path, err)
	}
	var entries []knowledge.Entry
	if err := k.Unmarshal("entries", &entries); err != nil {
		return nil, fmt.Errorf("decoding knowledge seed %s: %w", path, err)
	}
	return entries, nil
}

func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > maxCatalogFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrFileTooLarge, path, info.Size(), maxCatalogFileSize)
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return content, nil
}
