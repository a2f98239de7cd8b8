package resolve_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nikbrunner/anchors/internal/model"
	"github.com/nikbrunner/anchors/internal/resolve"
	"gotest.tools/v3/assert"
)

// fakeCollection maps ids to documents; err, when set, fails every lookup.
type fakeCollection struct {
	docs map[string]*model.Document
	err  error
}

func (c fakeCollection) Get(id string) (*model.Document, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.docs[id], nil
}

type fakeCollections map[string]resolve.Collection

func (f fakeCollections) Collection(name string) (resolve.Collection, bool) {
	c, ok := f[name]
	return c, ok
}

// fakeDocuments answers identifier lookups from a name table.
type fakeDocuments struct {
	names map[string]string
	err   error
	calls int
}

func (f *fakeDocuments) FromIdentifier(_ context.Context, identifier string) (*model.Document, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	name, ok := f.names[identifier]
	if !ok {
		return nil, nil
	}
	return &model.Document{Name: name}, nil
}

type panickingCollections struct{}

func (panickingCollections) Collection(string) (resolve.Collection, bool) {
	panic("collections not ready")
}

func worldWithWolf() fakeCollections {
	return fakeCollections{
		"Actor": fakeCollection{docs: map[string]*model.Document{
			"abc": {ID: "abc", Type: "Actor", Name: "Grey Wolf"},
		}},
	}
}

func TestResolve_PriorityChain(t *testing.T) {
	tests := []struct {
		name string
		drop resolve.DropData
		want string
	}{
		{
			name: "direct identifier wins over everything",
			drop: resolve.DropData{UUID: "JournalEntry.j1", Pack: "bestiary", ID: "abc", Type: "Actor", Text: "@UUID[Item.xyz]"},
			want: "JournalEntry.j1",
		},
		{
			name: "compendium pair",
			drop: resolve.DropData{Pack: "bestiary", ID: "wolf01"},
			want: "Compendium.bestiary.wolf01",
		},
		{
			name: "compendium pair beats world pair",
			drop: resolve.DropData{Pack: "bestiary", ID: "abc", Type: "Actor"},
			want: "Compendium.bestiary.abc",
		},
		{
			name: "world collection pair",
			drop: resolve.DropData{Type: "Actor", ID: "abc"},
			want: "Actor.abc",
		},
		{
			name: "world miss falls through to marker",
			drop: resolve.DropData{Type: "Actor", ID: "missing", Text: "@UUID[Item.xyz]"},
			want: "Item.xyz",
		},
		{
			name: "marker text with label suffix",
			drop: resolve.DropData{Text: "see @UUID[Item.xyz]{Sword}"},
			want: "Item.xyz",
		},
	}

	r := resolve.New(resolve.Config{Collections: worldWithWolf()})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := r.Resolve(context.Background(), tt.drop)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if entry.Identifier != tt.want {
				t.Errorf("identifier = %q, want %q", entry.Identifier, tt.want)
			}
		})
	}
}

func TestResolve_NoIdentifierFound(t *testing.T) {
	r := resolve.New(resolve.Config{Collections: worldWithWolf()})

	drops := []resolve.DropData{
		{},
		{Name: "only a name"},
		{ID: "abc"},
		{Pack: "bestiary"},
		{Text: "no marker here"},
		{Type: "Actor", ID: "missing"},
		{Type: "Scene", ID: "abc"},
	}

	for _, d := range drops {
		_, err := r.Resolve(context.Background(), d)
		if !errors.Is(err, resolve.ErrNoIdentifierFound) {
			t.Errorf("%+v: expected ErrNoIdentifierFound, got %v", d, err)
		}
	}
}

func TestResolve_WorldLookupFailuresFallThrough(t *testing.T) {
	tests := []struct {
		name        string
		collections resolve.CollectionLookup
	}{
		{"lookup error", fakeCollections{"Actor": fakeCollection{err: errors.New("db offline")}}},
		{"lookup panics", panickingCollections{}},
		{"no collaborator", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := resolve.New(resolve.Config{Collections: tt.collections})

			entry, err := r.Resolve(context.Background(), resolve.DropData{Type: "Actor", ID: "abc", Text: "@UUID[Item.xyz]"})
			assert.NilError(t, err)
			assert.Equal(t, entry.Identifier, "Item.xyz")

			_, err = r.Resolve(context.Background(), resolve.DropData{Type: "Actor", ID: "abc"})
			assert.ErrorIs(t, err, resolve.ErrNoIdentifierFound)
		})
	}
}

func TestResolve_LabelChain(t *testing.T) {
	tests := []struct {
		name      string
		documents *fakeDocuments
		drop      resolve.DropData
		want      string
	}{
		{
			name:      "live document name",
			documents: &fakeDocuments{names: map[string]string{"Actor.abc": "Grey Wolf"}},
			drop:      resolve.DropData{UUID: "Actor.abc", Name: "Dropped Name"},
			want:      "Grey Wolf",
		},
		{
			name:      "payload name when document missing",
			documents: &fakeDocuments{names: map[string]string{}},
			drop:      resolve.DropData{UUID: "Actor.abc", Name: "Dropped Name"},
			want:      "Dropped Name",
		},
		{
			name:      "payload name when lookup fails",
			documents: &fakeDocuments{err: errors.New("boom")},
			drop:      resolve.DropData{UUID: "Actor.abc", Name: "Dropped Name"},
			want:      "Dropped Name",
		},
		{
			name:      "payload name when document has no name",
			documents: &fakeDocuments{names: map[string]string{"Actor.abc": "  "}},
			drop:      resolve.DropData{UUID: "Actor.abc", Name: "Dropped Name"},
			want:      "Dropped Name",
		},
		{
			name:      "derived label",
			documents: &fakeDocuments{names: map[string]string{}},
			drop:      resolve.DropData{UUID: "Actor.abc"},
			want:      "abc",
		},
		{
			name:      "derived label without delimiter",
			documents: &fakeDocuments{err: errors.New("boom")},
			drop:      resolve.DropData{UUID: "loneid"},
			want:      "loneid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := resolve.New(resolve.Config{Documents: tt.documents})

			entry, err := r.Resolve(context.Background(), tt.drop)
			assert.NilError(t, err)
			assert.Equal(t, entry.Label, tt.want)
			assert.Assert(t, entry.Valid())
		})
	}
}

func TestResolve_WithoutDocumentLookup(t *testing.T) {
	r := resolve.New(resolve.Config{})

	entry, err := r.Resolve(context.Background(), resolve.DropData{Pack: "bestiary", ID: "wolf01"})
	assert.NilError(t, err)
	assert.Equal(t, entry.Label, "wolf01")
}

func TestResolveManual(t *testing.T) {
	docs := &fakeDocuments{names: map[string]string{"Item.xyz": "Sword"}}
	r := resolve.New(resolve.Config{Documents: docs})
	ctx := context.Background()

	entry, err := r.ResolveManual(ctx, "  Item.xyz  ", "")
	assert.NilError(t, err)
	assert.DeepEqual(t, entry, model.Entry{Identifier: "Item.xyz", Label: "Sword"})

	entry, err = r.ResolveManual(ctx, "Item.xyz", " My Blade ")
	assert.NilError(t, err)
	assert.Equal(t, entry.Label, "My Blade")

	entry, err = r.ResolveManual(ctx, "Scene.s1", "")
	assert.NilError(t, err)
	assert.Equal(t, entry.Label, "s1")
}

func TestResolveManual_EmptyInput(t *testing.T) {
	docs := &fakeDocuments{}
	r := resolve.New(resolve.Config{Documents: docs})

	for _, input := range []string{"", "   ", "\t\n"} {
		_, err := r.ResolveManual(context.Background(), input, "label")
		assert.ErrorIs(t, err, resolve.ErrEmptyInput)
	}
	assert.Equal(t, docs.calls, 0, "no lookup may happen for blank input")
}

func TestDropData_Candidates(t *testing.T) {
	d := resolve.DropData{UUID: "u", Pack: "p", ID: "i", Type: "t", Text: "x"}

	var kinds []resolve.Kind
	for _, p := range d.Candidates() {
		kinds = append(kinds, p.Kind)
	}

	want := []resolve.Kind{
		resolve.DirectIdentifier,
		resolve.CollectionPair,
		resolve.WorldCollectionPair,
		resolve.EmbeddedMarkerText,
	}
	assert.DeepEqual(t, kinds, want)
}

func TestDropData_CandidatesSkipBlankFields(t *testing.T) {
	d := resolve.DropData{UUID: "   ", Pack: "\t", ID: " wolf01 ", Type: "Actor", Text: "  "}

	assert.DeepEqual(t, d.Candidates(), []resolve.Payload{
		{Kind: resolve.WorldCollectionPair, Collection: "Actor", ItemID: "wolf01"},
	})
}

func TestResolve_BlankIdentifierFallsThrough(t *testing.T) {
	r := resolve.New(resolve.Config{Collections: worldWithWolf()})

	entry, err := r.Resolve(context.Background(), resolve.DropData{UUID: "  ", Text: "@UUID[Item.xyz]{Sword}"})
	assert.NilError(t, err)
	assert.Equal(t, entry.Identifier, "Item.xyz")

	_, err = r.Resolve(context.Background(), resolve.DropData{UUID: " \n ", Name: "Wolf"})
	assert.Assert(t, errors.Is(err, resolve.ErrNoIdentifierFound), "got %v", err)
}
