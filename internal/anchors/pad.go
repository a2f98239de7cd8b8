package anchors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nikbrunner/anchors/internal/model"
	"github.com/nikbrunner/anchors/internal/resolve"
)

var ErrDocumentNotFound = errors.New("document not found")

// Pad is the anchor panel controller: it resolves input, applies it to the
// user's list and reports every failure once to the notifier.
type Pad struct {
	resolver  *resolve.Resolver
	manager   *Manager
	documents resolve.DocumentLookup
	notifier  Notifier
	logger    *slog.Logger
}

// PadParams holds parameters for creating a new Pad.
type PadParams struct {
	Resolver  *resolve.Resolver
	Manager   *Manager
	Documents resolve.DocumentLookup // optional, used by Open
	Notifier  Notifier               // optional, defaults to LogNotifier
	Logger    *slog.Logger           // optional
}

// NewPad creates a Pad with the given parameters.
func NewPad(params PadParams) *Pad {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}

	return &Pad{
		resolver:  params.Resolver,
		manager:   params.Manager,
		documents: params.Documents,
		notifier:  notifier,
		logger:    logger,
	}
}

// Manager returns the list manager behind the pad.
func (p *Pad) Manager() *Manager {
	return p.manager
}

// Entries loads the current list.
func (p *Pad) Entries(ctx context.Context) (model.List, error) {
	list, err := p.manager.Load(ctx)
	if err != nil {
		p.report(err)
		return nil, err
	}
	return list, nil
}

// Drop decodes raw drag data, resolves it and appends the result.
func (p *Pad) Drop(ctx context.Context, contentType string, body []byte) (model.List, error) {
	data, err := resolve.ParseDrop(contentType, body)
	if err != nil {
		p.logger.DebugContext(ctx, "drop decode failed", "error", err)
		p.report(err)
		return nil, err
	}
	return p.DropData(ctx, data)
}

// DropData resolves already decoded drag data and appends the result.
func (p *Pad) DropData(ctx context.Context, data resolve.DropData) (model.List, error) {
	entry, err := p.resolver.Resolve(ctx, data)
	if err != nil {
		p.report(err)
		return nil, err
	}
	return p.add(ctx, entry)
}

// AddManual appends a typed identifier with an optional label.
func (p *Pad) AddManual(ctx context.Context, identifier, label string) (model.List, error) {
	entry, err := p.resolver.ResolveManual(ctx, identifier, label)
	if err != nil {
		p.report(err)
		return nil, err
	}
	return p.add(ctx, entry)
}

func (p *Pad) add(ctx context.Context, entry model.Entry) (model.List, error) {
	list, err := p.manager.Append(ctx, entry)
	if err != nil {
		p.report(err)
		return nil, err
	}
	p.notifier.Info(fmt.Sprintf("Anchored: %s", entry.Label))
	return list, nil
}

// Delete removes the entry at index.
func (p *Pad) Delete(ctx context.Context, index int) (model.List, error) {
	list, err := p.manager.RemoveAt(ctx, index)
	if err != nil {
		p.report(err)
		return list, err
	}
	return list, nil
}

// Import resolves every drop and appends those whose identifier is not
// anchored yet, in one write. Drops that do not resolve count as skipped.
func (p *Pad) Import(ctx context.Context, drops []resolve.DropData) (added, skipped int, err error) {
	resolved := make([]model.Entry, 0, len(drops))
	for _, d := range drops {
		entry, err := p.resolver.Resolve(ctx, d)
		if err != nil {
			p.logger.DebugContext(ctx, "import skipped drop", "error", err)
			skipped++
			continue
		}
		resolved = append(resolved, entry)
	}

	var fresh []model.Entry
	_, err = p.manager.AppendAllFunc(ctx, func(current model.List) []model.Entry {
		seen := make(map[string]bool, len(current)+len(resolved))
		for _, e := range current {
			seen[e.Identifier] = true
		}
		fresh = fresh[:0]
		for _, e := range resolved {
			if seen[e.Identifier] {
				continue
			}
			seen[e.Identifier] = true
			fresh = append(fresh, e)
		}
		return fresh
	})
	if err != nil {
		p.report(err)
		return 0, 0, err
	}
	return len(fresh), skipped + len(resolved) - len(fresh), nil
}

// Enricher returns the rich-text reference of the entry at index.
func (p *Pad) Enricher(ctx context.Context, index int) (string, error) {
	entry, err := p.entryAt(ctx, index)
	if err != nil {
		return "", err
	}
	return resolve.Enricher(entry.Identifier), nil
}

// Open fetches the live document of the entry at index.
func (p *Pad) Open(ctx context.Context, index int) (*model.Document, error) {
	entry, err := p.entryAt(ctx, index)
	if err != nil {
		return nil, err
	}
	if p.documents == nil {
		p.report(ErrDocumentNotFound)
		return nil, ErrDocumentNotFound
	}

	doc, err := p.documents.FromIdentifier(ctx, entry.Identifier)
	if err != nil {
		p.logger.ErrorContext(ctx, "open document failed", "uuid", entry.Identifier, "error", err)
		p.notifier.Error("Failed to open the document.")
		return nil, fmt.Errorf("open %s: %w", entry.Identifier, err)
	}
	if doc == nil {
		p.report(ErrDocumentNotFound)
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, entry.Identifier)
	}
	return doc, nil
}

func (p *Pad) entryAt(ctx context.Context, index int) (model.Entry, error) {
	list, err := p.manager.Load(ctx)
	if err != nil {
		p.report(err)
		return model.Entry{}, err
	}
	if !list.InRange(index) {
		err := fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(list))
		p.report(err)
		return model.Entry{}, err
	}
	return list[index], nil
}

// report sends the user-facing notice for err.
func (p *Pad) report(err error) {
	switch {
	case errors.Is(err, resolve.ErrUnrecognizedDrop):
		p.notifier.Warn("Drop not recognized.")
	case errors.Is(err, resolve.ErrNoIdentifierFound):
		p.notifier.Warn("Could not identify the document or UUID.")
	case errors.Is(err, resolve.ErrEmptyInput):
		p.notifier.Warn("Paste a valid UUID.")
	case errors.Is(err, ErrIndexOutOfRange):
		p.notifier.Warn("No anchor at that position.")
	case errors.Is(err, ErrDocumentNotFound):
		p.notifier.Error("Document not found.")
	case errors.Is(err, ErrPersistence):
		p.notifier.Error("Failed to save anchors. Reload before trying again.")
	default:
		p.notifier.Error(fmt.Sprintf("Anchors unavailable: %v", err))
	}
}
