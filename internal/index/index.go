// Package index is the indicator-discovery layer: a read-only FTS5 index
// over roughly 330k provider indicator records, built on the pure-Go
// modernc.org/sqlite driver with WAL mode enabled.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/hanlulong/openecon-data-sub002/internal/metrics"
)

// Record is one indexed indicator: provider, code, and the display text
// and keywords used for search scoring.
type Record struct {
	ID int64
	Provider string
	Code string
	DisplayName string
	Description string
	Unit string
	Frequency string
	GeoCoverage string
	Keywords string
	Category string
	PopularityScore float64
}

// Candidate is one ranked search result.
type Candidate struct {
	Record Record
	Score float64
	LowConfidence bool // matched only in description, not name/keywords
	MatchedOn string
}

// Index wraps a read-only sqlite handle. Rebuilds swap the handle under a
// brief lock; readers never block on a rebuild for longer than
// that swap.
type Index struct {
	mu sync.RWMutex
	db *sql.DB
	generation int64
}

// Open creates (if absent) and opens the index at path. Safe to call
// against a fresh, empty file. Callers ingest records with Upsert.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
 return nil, fmt.Errorf("open indicator index: %w", err)
	}
	db.SetMaxOpenConns(8)

	if _, err := db.Exec(schema); err != nil {
 db.Close()
 return nil, fmt.Errorf("apply indicator index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// OpenInMemory is used by tests and by a cold-start process with no
// durable snapshot yet.
func OpenInMemory() (*Index, error) {
	return Open("file::memory:?cache=shared")
}

func (ix *Index) Close() error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.db.Close()
}

// Upsert inserts or replaces one indicator record, keyed by (provider, code).
func (ix *Index) Upsert(ctx context.Context, r Record) error {
	ix.mu.RLock()
	db := ix.db
	ix.mu.RUnlock()

	_, err := db.ExecContext(ctx, `
 INSERT INTO indicator (provider, code, display_name, description, unit, frequency, geo_coverage, keywords, category, popularity_score)
 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
 ON CONFLICT(provider, code) DO UPDATE SET
 display_name=excluded.display_name, description=excluded.description,
 unit=excluded.unit, frequency=excluded.frequency, geo_coverage=excluded.geo_coverage,
 keywords=excluded.keywords, category=excluded.category, popularity_score=excluded.popularity_score
	`, r.Provider, r.Code, r.DisplayName, r.Description, r.Unit, r.Frequency, r.GeoCoverage, r.Keywords, r.Category, r.PopularityScore)
	return err
}

// Reopen atomically swaps in a new snapshot file, bumping the generation
// counter. The previous handle is closed only after the swap so in-flight
// readers on it finish cleanly (they hold their own *sql.DB reference via
// snapshot).
func (ix *Index) Reopen(path string) error {
	next, err := Open(path)
	if err != nil {
 return err
	}

	ix.mu.Lock()
	old := ix.db
	ix.db = next.db
	ix.generation++
	gen := ix.generation
	ix.mu.Unlock()

	metrics.IndexGeneration.Set(float64(gen))
	return old.Close()
}

func (ix *Index) snapshot() *sql.DB {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.db
}

// Generation returns the current snapshot generation, for /health reporting.
func (ix *Index) Generation() int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.generation
}

// ByProviderCode performs the exact secondary-index lookup on (provider, code).
func (ix *Index) ByProviderCode(ctx context.Context, provider, code string) (Record, bool, error) {
	row := ix.snapshot().QueryRowContext(ctx, `
 SELECT id, provider, code, display_name, description, unit, frequency, geo_coverage, keywords, category, popularity_score
 FROM indicator WHERE provider = ? AND code = ?`, provider, code)
	var r Record
	err := row.Scan(&r.ID, &r.Provider, &r.Code, &r.DisplayName, &r.Description, &r.Unit, &r.Frequency, &r.GeoCoverage, &r.Keywords, &r.Category, &r.PopularityScore)
	if err == sql.ErrNoRows {
 return Record{}, false, nil
	}
	if err != nil {
 return Record{}, false, err
	}
	return r, true, nil
}

// Search scores candidates by exact-code match (highest), exact phrase
// on display_name, FTS rank, plus a popularity boost. Candidates that
// match only on description are flagged LowConfidence for the
// semantic-validation gate.
func (ix *Index) Search(ctx context.Context, queryText string, providerFilter string, limit int) ([]Candidate, error) {
	db := ix.snapshot()
	q := strings.TrimSpace(queryText)
	if q == "" || limit <= 0 {
 return nil, nil
	}

	seen := make(map[int64]*Candidate)
	order := make([]int64, 0, limit)
	add := func(r Record, score float64, matchedOn string, lowConfidence bool) {
 if existing, ok := seen[r.ID]; ok {
 if score > existing.Score {
 existing.Score = score
 existing.MatchedOn = matchedOn
 existing.LowConfidence = lowConfidence
 }
 return
 }
 seen[r.ID] = &Candidate{Record: r, Score: score, MatchedOn: matchedOn, LowConfidence: lowConfidence}
 order = append(order, r.ID)
	}

	providerClause, providerArg := "", []interface{}{}
	if providerFilter != "" {
 providerClause = " AND provider = ?"
 providerArg = append(providerArg, providerFilter)
	}

	// 1. Exact-code match.
	{
 args := append([]interface{}{q}, providerArg...)
 rows, err := db.QueryContext(ctx, `
 SELECT id, provider, code, display_name, description, unit, frequency, geo_coverage, keywords, category, popularity_score
 FROM indicator WHERE code = ? COLLATE NOCASE`+providerClause, args...)
 if err != nil {
 return nil, err
 }
 scanAll(rows, func(r Record) { add(r, 1000+r.PopularityScore, "code", false) })
	}

	// 2. Exact phrase match on display_name (tier 2).
	{
 args := append([]interface{}{q}, providerArg...)
 rows, err := db.QueryContext(ctx, `
 SELECT id, provider, code, display_name, description, unit, frequency, geo_coverage, keywords, category, popularity_score
 FROM indicator WHERE display_name = ? COLLATE NOCASE`+providerClause, args...)
 if err != nil {
 return nil, err
 }
 scanAll(rows, func(r Record) { add(r, 500+r.PopularityScore, "display_name", false) })
	}

	// 3. FTS BM25-ish rank over (display_name || description || keywords) (tier 3).
	ftsQuery := toMatchQuery(q)
	if ftsQuery != "" {
 args := []interface{}{ftsQuery}
 sqlStr := `
 SELECT i.id, i.provider, i.code, i.display_name, i.description, i.unit, i.frequency, i.geo_coverage, i.keywords, i.category, i.popularity_score, bm25(indicator_fts) AS rank
 FROM indicator_fts
 JOIN indicator i ON i.id = indicator_fts.rowid
 WHERE indicator_fts MATCH ?`
 if providerFilter != "" {
 sqlStr += " AND i.provider = ?"
 args = append(args, providerFilter)
 }
 sqlStr += " ORDER BY rank LIMIT ?"
 args = append(args, limit*4)

 rows, err := db.QueryContext(ctx, sqlStr, args...)
 if err != nil {
 return nil, err
 }
 for rows.Next() {
 var r Record
 var rank float64
 if err := rows.Scan(&r.ID, &r.Provider, &r.Code, &r.DisplayName, &r.Description, &r.Unit, &r.Frequency, &r.GeoCoverage, &r.Keywords, &r.Category, &r.PopularityScore, &rank); err != nil {
 rows.Close()
 return nil, err
 }
 // bm25 in sqlite is negative-is-better; invert to a positive score.
 score := -rank + r.PopularityScore
 lowConf := matchesOnlyInDescription(q, r)
 add(r, score, "fts", lowConf)
 }
 rows.Close()
	}

	out := make([]Candidate, 0, len(order))
	for _, id := range order {
 out = append(out, *seen[id])
	}
	sortCandidates(out)
	if len(out) > limit {
 out = out[:limit]
	}
	return out, nil
}

func scanAll(rows *sql.Rows, fn func(Record)) {
	defer rows.Close()
	for rows.Next() {
 var r Record
 if err := rows.Scan(&r.ID, &r.Provider, &r.Code, &r.DisplayName, &r.Description, &r.Unit, &r.Frequency, &r.GeoCoverage, &r.Keywords, &r.Category, &r.PopularityScore); err != nil {
 return
 }
 fn(r)
	}
}

func sortCandidates(c []Candidate) {
	for i := 1; i < len(c); i++ {
 j := i
 for j > 0 && c[j-1].Score < c[j].Score {
 c[j-1], c[j] = c[j], c[j-1]
 j--
 }
	}
}

// toMatchQuery turns free text into a permissive FTS5 MATCH expression:
// each token quoted and OR'd, so punctuation in provider descriptions never
// produces an FTS5 syntax error.
func toMatchQuery(q string) string {
	fields := strings.Fields(q)
	if len(fields) == 0 {
 return ""
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
 f = strings.ReplaceAll(f, `"`, "")
 if f == "" {
 continue
 }
 parts = append(parts, `"`+f+`"`)
	}
	return strings.Join(parts, " OR ")
}

// matchesOnlyInDescription reports whether a candidate matched only
// because the query term happens to appear in the description (not the
// name or keywords), in which case it is flagged low-confidence,
// deferring to the LLM semantic-validation pass.
func matchesOnlyInDescription(q string, r Record) bool {
	lowerName := strings.ToLower(r.DisplayName)
	lowerKeywords := strings.ToLower(r.Keywords)
	lowerDesc := strings.ToLower(r.Description)
	anyInNameOrKeywords := false
	anyInDesc := false
	for _, tok := range strings.Fields(strings.ToLower(q)) {
 if strings.Contains(lowerName, tok) || strings.Contains(lowerKeywords, tok) {
 anyInNameOrKeywords = true
 }
 if strings.Contains(lowerDesc, tok) {
 anyInDesc = true
 }
	}
	return anyInDesc && !anyInNameOrKeywords
}
