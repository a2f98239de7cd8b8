// Package host provides an in-process stand-in for the host application's
// document catalog: world collections keyed by document type and compendium
// packs keyed by pack name.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/nikbrunner/anchors/internal/model"
	"github.com/nikbrunner/anchors/internal/resolve"
	"gopkg.in/yaml.v3"
)

var ErrDuplicateDocument = errors.New("duplicate document")

// worldFile is the YAML layout of a world file.
type worldFile struct {
	Name        string                      `yaml:"name"`
	Collections map[string][]model.Document `yaml:"collections"`
	Packs       map[string][]model.Document `yaml:"packs"`
}

// World is a read-mostly document catalog. It satisfies both
// resolve.CollectionLookup and resolve.DocumentLookup.
type World struct {
	mu          sync.RWMutex
	name        string
	collections map[string]*collection // by document type
	packs       map[string]*collection // by pack name
}

// NewWorld creates an empty world.
func NewWorld(name string) *World {
	return &World{
		name:        name,
		collections: map[string]*collection{},
		packs:       map[string]*collection{},
	}
}

// LoadWorld reads a world from a YAML file. A missing file yields an empty world.
func LoadWorld(path string) (*World, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewWorld(""), nil
		}
		return nil, err
	}
	defer f.Close()

	return ParseWorld(f)
}

// ParseWorld decodes a YAML world. Documents without an id get a generated one.
func ParseWorld(r io.Reader) (*World, error) {
	var wf worldFile
	if err := yaml.NewDecoder(r).Decode(&wf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode world: %w", err)
	}

	w := NewWorld(wf.Name)
	for docType, docs := range wf.Collections {
		for _, doc := range docs {
			doc.Type = docType
			doc.Pack = ""
			if err := w.Add(doc); err != nil {
				return nil, err
			}
		}
	}
	for pack, docs := range wf.Packs {
		for _, doc := range docs {
			doc.Pack = pack
			if err := w.Add(doc); err != nil {
				return nil, err
			}
		}
	}
	return w, nil
}

// Name returns the world name.
func (w *World) Name() string {
	return w.name
}

// Add registers a document in its world collection or pack.
func (w *World) Add(doc model.Document) error {
	if doc.ID == "" {
		doc.ID = model.GenerateID()
	}
	if doc.Type == "" && doc.Pack == "" {
		return fmt.Errorf("document %q has neither type nor pack", doc.ID)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	index, key := w.collections, doc.Type
	if doc.Pack != "" {
		index, key = w.packs, doc.Pack
	}
	c, ok := index[key]
	if !ok {
		c = &collection{docs: map[string]model.Document{}}
		index[key] = c
	}
	return c.add(doc)
}

// Collection returns the world collection for a document type.
func (w *World) Collection(name string) (resolve.Collection, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	c, ok := w.collections[name]
	if !ok {
		return nil, false
	}
	return c, true
}

// FromIdentifier finds a document by its canonical identifier.
func (w *World) FromIdentifier(_ context.Context, identifier string) (*model.Document, error) {
	parts := strings.Split(identifier, model.Delimiter)

	w.mu.RLock()
	defer w.mu.RUnlock()

	switch {
	case len(parts) == 3 && parts[0] == model.CompendiumToken:
		if c, ok := w.packs[parts[1]]; ok {
			return c.Get(parts[2])
		}
	case len(parts) == 2:
		if c, ok := w.collections[parts[0]]; ok {
			return c.Get(parts[1])
		}
	}
	return nil, nil
}

// Documents returns every document, world collections first, each group
// sorted by identifier.
func (w *World) Documents() []model.Document {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var world, packs []model.Document
	for _, c := range w.collections {
		world = append(world, c.all()...)
	}
	for _, c := range w.packs {
		packs = append(packs, c.all()...)
	}
	sortByIdentifier(world)
	sortByIdentifier(packs)
	return append(world, packs...)
}

func sortByIdentifier(docs []model.Document) {
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Identifier() < docs[j].Identifier()
	})
}

// collection is one id-keyed group of documents.
type collection struct {
	mu   sync.RWMutex
	docs map[string]model.Document
}

func (c *collection) add(doc model.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.docs[doc.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDocument, doc.Identifier())
	}
	c.docs[doc.ID] = doc
	return nil
}

// Get returns a copy of the document, or nil when missing.
func (c *collection) Get(id string) (*model.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[id]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (c *collection) all() []model.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs := make([]model.Document, 0, len(c.docs))
	for _, doc := range c.docs {
		docs = append(docs, doc)
	}
	return docs
}
