package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nikbrunner/anchors/internal/model"
)

var (
	ErrNoIdentifierFound = errors.New("could not identify the document or uuid")
	ErrEmptyInput        = errors.New("paste a valid uuid")
)

// Collection is a live host collection supporting get-by-id.
// A missing id is (nil, nil); an error means the lookup itself failed.
type Collection interface {
	Get(id string) (*model.Document, error)
}

// CollectionLookup returns the host collection for a document type.
type CollectionLookup interface {
	Collection(name string) (Collection, bool)
}

// DocumentLookup fetches a live document by identifier. A missing document
// is (nil, nil).
type DocumentLookup interface {
	FromIdentifier(ctx context.Context, identifier string) (*model.Document, error)
}

// Config configures a Resolver.
type Config struct {
	Collections CollectionLookup
	Documents   DocumentLookup

	// Logger receives diagnostics for swallowed lookup failures.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Resolver turns drops and manual input into anchor entries.
type Resolver struct {
	collections CollectionLookup
	documents   DocumentLookup
	logger      *slog.Logger
}

// New creates a Resolver. Nil lookups are treated as always missing.
func New(cfg Config) *Resolver {
	cfg.defaults()
	return &Resolver{
		collections: cfg.Collections,
		documents:   cfg.Documents,
		logger:      cfg.Logger,
	}
}

// Resolve identifies the document carried by drop and labels it. The first
// candidate that yields an identifier wins.
func (r *Resolver) Resolve(ctx context.Context, drop DropData) (model.Entry, error) {
	for _, p := range drop.Candidates() {
		identifier, ok := r.identify(ctx, p)
		if !ok {
			continue
		}
		return model.Entry{
			Identifier: identifier,
			Label:      r.label(ctx, identifier, drop.Name),
		}, nil
	}
	return model.Entry{}, ErrNoIdentifierFound
}

// ResolveManual builds an entry from a typed identifier. A non-blank label
// is used as given.
func (r *Resolver) ResolveManual(ctx context.Context, identifier, label string) (model.Entry, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return model.Entry{}, ErrEmptyInput
	}

	p := Payload{Kind: ManualString, Identifier: identifier}
	identifier, _ = r.identify(ctx, p)

	if label = strings.TrimSpace(label); label == "" {
		label = r.label(ctx, identifier, "")
	}
	return model.Entry{Identifier: identifier, Label: label}, nil
}

// identify applies the rule for one payload variant.
func (r *Resolver) identify(ctx context.Context, p Payload) (string, bool) {
	switch p.Kind {
	case DirectIdentifier, ManualString:
		return p.Identifier, p.Identifier != ""

	case CollectionPair:
		return model.CompendiumIdentifier(p.Collection, p.ItemID), true

	case WorldCollectionPair:
		doc, err := r.lookupWorld(p.Collection, p.ItemID)
		if err != nil {
			r.logger.DebugContext(ctx, "world document not resolved",
				"type", p.Collection, "id", p.ItemID, "reason", err)
			return "", false
		}
		identifier := doc.Identifier()
		return identifier, identifier != ""

	case EmbeddedMarkerText:
		m, ok := FirstMarker(p.Text)
		return m.Identifier, ok && m.Identifier != ""
	}
	return "", false
}

// Reasons a world lookup falls through. They are only logged.
var (
	errUnknownCollection = errors.New("unknown collection")
	errItemNotFound      = errors.New("item not found")
)

// lookupWorld finds a document in a world collection. Panics in the host
// collaborator are turned into errors.
func (r *Resolver) lookupWorld(collection, id string) (doc *model.Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("lookup panicked: %v", rec)
		}
	}()

	if r.collections == nil {
		return nil, errUnknownCollection
	}
	c, ok := r.collections.Collection(collection)
	if !ok || c == nil {
		return nil, errUnknownCollection
	}

	doc, err = c.Get(id)
	if err != nil {
		return nil, fmt.Errorf("lookup failed: %w", err)
	}
	if doc == nil {
		return nil, errItemNotFound
	}
	return doc, nil
}

// label picks the live document name, then the provided name, then the
// last identifier segment.
func (r *Resolver) label(ctx context.Context, identifier, provided string) string {
	if name := r.documentName(ctx, identifier); name != "" {
		return name
	}
	if provided = strings.TrimSpace(provided); provided != "" {
		return provided
	}
	return model.LastSegment(identifier)
}

func (r *Resolver) documentName(ctx context.Context, identifier string) (name string) {
	if r.documents == nil {
		return ""
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.DebugContext(ctx, "label lookup panicked", "uuid", identifier, "reason", rec)
			name = ""
		}
	}()

	doc, err := r.documents.FromIdentifier(ctx, identifier)
	if err != nil {
		r.logger.DebugContext(ctx, "label lookup failed", "uuid", identifier, "error", err)
		return ""
	}
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Name)
}
