package character

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromReader parses a single character definition from YAML.
// id becomes the definition's catalog ID. The reader is consumed entirely;
// the caller is responsible for closing it. The result is validated.
func LoadFromReader(id string, r io.Reader) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos in authored files
	if err := dec.Decode(&def); err != nil {
		return Definition{}, fmt.Errorf("character: decode character yaml: %w", err)
	}
	def.ID = id
	if err := Validate(def); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// LoadFile reads and parses one character YAML file from disk. The catalog
// ID is the base filename without its extension.
func LoadFile(path string) (Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return Definition{}, fmt.Errorf("character: open character file %q: %w", path, err)
	}
	defer f.Close()

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	def, err := LoadFromReader(id, f)
	if err != nil {
		return Definition{}, fmt.Errorf("character: load character file %q: %w", path, err)
	}
	return def, nil
}

// LoadDir loads every *.yaml / *.yml file in dir into a [Catalog].
// Any malformed file fails the whole load; characters are never silently
// skipped. Non-YAML files are ignored.
func LoadDir(dir string, logger *slog.Logger) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("character: read characters dir %q: %w", dir, err)
	}

	defs := make(map[string]Definition)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		def, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := defs[def.ID]; dup {
			return nil, fmt.Errorf("character: duplicate character id %q in %q", def.ID, dir)
		}
		defs[def.ID] = def
		logger.Info("loaded character",
			"id", def.ID,
			"name", def.Name,
			"decisions", def.TotalDecisions())
	}

	if len(defs) == 0 {
		return nil, fmt.Errorf("character: no character files found in %q", dir)
	}
	return newCatalog(defs), nil
}

// Catalog is the immutable set of loaded character definitions. It is built
// once by [LoadDir] and safe for concurrent use without locking.
type Catalog struct {
	defs map[string]Definition
	ids  []string
}

func newCatalog(defs map[string]Definition) *Catalog {
	ids := make([]string, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return &Catalog{defs: defs, ids: ids}
}

// NewCatalog builds a catalog directly from definitions, validating each.
// Intended for tests and embedded content.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	m := make(map[string]Definition, len(defs))
	for _, def := range defs {
		if err := Validate(def); err != nil {
			return nil, err
		}
		if _, dup := m[def.ID]; dup {
			return nil, fmt.Errorf("character: duplicate character id %q", def.ID)
		}
		m[def.ID] = def
	}
	return newCatalog(m), nil
}

// Get returns the definition for the given ID, or [ErrNotFound].
func (c *Catalog) Get(id string) (Definition, error) {
	def, ok := c.defs[id]
	if !ok {
		return Definition{}, fmt.Errorf("character: get %q: %w", id, ErrNotFound)
	}
	return def, nil
}

// List returns all definitions sorted by ID.
func (c *Catalog) List() []Definition {
	out := make([]Definition, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.defs[id])
	}
	return out
}

// IDs returns the sorted character IDs.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Len returns the number of characters in the catalog.
func (c *Catalog) Len() int { return len(c.defs) }
