// Package faq holds the static question/answer records and the fuzzy matcher
// that resolves free text against them.
package faq

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Entry is one question/answer record. Identity is the question text.
type Entry struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords"`
}

// Index is the in-memory entry collection, loaded once at startup and
// read-only afterwards. Load order is preserved; it breaks score ties.
type Index struct {
	entries []Entry
}

// NewIndex builds an index from entries, dropping duplicate questions
// (first occurrence wins) and entries with no question text.
func NewIndex(entries []Entry) *Index {
	seen := make(map[string]struct{}, len(entries))
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		q := strings.ToLower(strings.TrimSpace(e.Question))
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		kept = append(kept, e)
	}
	return &Index{entries: kept}
}

// LoadFile reads a JSON array of entries from path.
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("faq: read %s: %w", path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("faq: decode %s: %w", path, err)
	}
	return NewIndex(entries), nil
}

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LoadPostgres reads entries from the faq_entries table in position order.
func LoadPostgres(ctx context.Context, db rowQuerier) (*Index, error) {
	rows, err := db.Query(ctx, `
		SELECT question, answer, keywords
		FROM faq_entries
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("faq: query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Question, &e.Answer, &e.Keywords); err != nil {
			return nil, fmt.Errorf("faq: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("faq: iterate entries: %w", err)
	}
	return NewIndex(entries), nil
}

// All returns the entries in load order.
func (i *Index) All() []Entry {
	if i == nil {
		return nil
	}
	return append([]Entry(nil), i.entries...)
}

// Len reports how many entries the index holds.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.entries)
}
