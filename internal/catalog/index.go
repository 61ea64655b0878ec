package catalog

import (
	"iter"

	"order-agent/internal/models"
)

// IndexedEntry is the searchable form of one catalog product
type IndexedEntry struct {
	ID       string
	Name     string
	Keywords map[string]struct{}
	Product  *models.Product
}

// Index is the read-only product index built once at startup. It is never
// mutated after NewIndex returns and is safe for concurrent use.
type Index struct {
	entries []IndexedEntry
	byID    map[string]*models.Product
}

// NewIndex builds the keyword index in catalog order
func NewIndex(products []models.Product) *Index {
	ix := &Index{
		entries: make([]IndexedEntry, 0, len(products)),
		byID:    make(map[string]*models.Product, len(products)),
	}

	for i := range products {
		p := &products[i]
		ix.entries = append(ix.entries, IndexedEntry{
			ID:       p.ID,
			Name:     p.Name,
			Keywords: keywords(p.Name),
			Product:  p,
		})
		ix.byID[p.ID] = p
	}

	return ix
}

// Entries yields every indexed entry in catalog order
func (ix *Index) Entries() iter.Seq[IndexedEntry] {
	return func(yield func(IndexedEntry) bool) {
		for _, e := range ix.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Len returns the number of indexed products
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Product looks up a catalog entry by id
func (ix *Index) Product(id string) (*models.Product, bool) {
	p, ok := ix.byID[id]
	return p, ok
}

// MatchProduct returns the entry sharing the most keywords with the
// utterance. Ties go to the entry that comes first in the catalog. An
// utterance that shares no keyword with any entry never matches.
func (ix *Index) MatchProduct(utterance string) (IndexedEntry, bool) {
	words := keywords(utterance)
	if len(words) == 0 {
		return IndexedEntry{}, false
	}

	var best IndexedEntry
	bestScore := 0
	for entry := range ix.Entries() {
		score := overlap(words, entry.Keywords)
		if score > bestScore {
			best, bestScore = entry, score
		}
	}

	if bestScore == 0 {
		return IndexedEntry{}, false
	}
	return best, true
}

func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
