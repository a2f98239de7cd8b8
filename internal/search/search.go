package search

import (
	"github.com/nikbrunner/anchors/internal/model"
	"github.com/sahilm/fuzzy"
)

// SearchResult represents a fuzzy search match.
type SearchResult struct {
	Index          int // position in the searched list
	Entry          model.Entry
	MatchedIndexes []int
	Score          int
}

// entryLabels implements fuzzy.Source for an anchor list.
type entryLabels model.List

func (el entryLabels) String(i int) string {
	return el[i].Label
}

func (el entryLabels) Len() int {
	return len(el)
}

// FuzzySearchEntries searches anchors by label using fuzzy matching.
// Returns results sorted by match score (best first).
func FuzzySearchEntries(list model.List, query string) []SearchResult {
	if query == "" {
		return nil
	}

	matches := fuzzy.FindFrom(query, entryLabels(list))

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			Index:          m.Index,
			Entry:          list[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}

	return results
}

// DocumentResult is a fuzzy match over host documents.
type DocumentResult struct {
	Document       model.Document
	MatchedIndexes []int
	Score          int
}

type documentNames []model.Document

func (dn documentNames) String(i int) string { return dn[i].Name }
func (dn documentNames) Len() int            { return len(dn) }

// FuzzySearchDocuments searches documents by name, best match first.
func FuzzySearchDocuments(docs []model.Document, query string) []DocumentResult {
	if query == "" {
		return nil
	}

	matches := fuzzy.FindFrom(query, documentNames(docs))

	results := make([]DocumentResult, len(matches))
	for i, m := range matches {
		results[i] = DocumentResult{
			Document:       docs[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}
