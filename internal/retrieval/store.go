package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/turnguard/internal/embeddings"
	"github.com/ziadkadry99/turnguard/internal/safety"
	"github.com/ziadkadry99/turnguard/internal/schema"
)

const collectionName = "evidence"

// ErrQuarantined marks evidence rejected at ingest because it carries
// injection content. Quarantined evidence is never stored.
var ErrQuarantined = errors.New("evidence quarantined")

// Store is the semantic evidence index backing grounded answers.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
	timeout    time.Duration
}

// NewStore creates an in-memory evidence store. timeout bounds each
// search; zero selects a 15 second default.
func NewStore(embedder embeddings.Embedder, timeout time.Duration) (*Store, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Store{db: db, collection: col, embedFunc: ef, timeout: timeout}, nil
}

// Add screens and indexes evidence. Evidence that fails the injection
// screen is dropped with ErrQuarantined; the caller decides whether to
// surface or just log it.
func (s *Store) Add(ctx context.Context, items []Evidence) ([]Evidence, error) {
	accepted := make([]Evidence, 0, len(items))
	docs := make([]chromem.Document, 0, len(items))

	var quarantined int
	for _, ev := range items {
		if screen := safety.ScreenEvidence(ev.Content); screen.Injection {
			quarantined++
			continue
		}
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if ev.Tier < TierVerified || ev.Tier > TierUnverified {
			ev.Tier = TierUnverified
		}
		if ev.AddedAt.IsZero() {
			ev.AddedAt = time.Now().UTC()
		}
		accepted = append(accepted, ev)
		docs = append(docs, chromem.Document{
			ID:       ev.ID,
			Content:  ev.Content,
			Metadata: metadataToMap(ev),
		})
	}

	if len(docs) > 0 {
		if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
			return nil, fmt.Errorf("indexing evidence: %w", err)
		}
	}
	if quarantined > 0 {
		return accepted, fmt.Errorf("%d item(s): %w", quarantined, ErrQuarantined)
	}
	return accepted, nil
}

// Search runs a bounded semantic query. Any failure, deadline overrun
// or backend error, surfaces as a tool failure so the fallback machine
// can react.
func (s *Store) Search(ctx context.Context, query string, limit int, filter *Filter) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 5
	}
	// chromem requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := s.collection.Query(ctx, query, limit, whereClause(filter), nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("evidence search deadline exceeded: %w", schema.ErrToolFailure)
		}
		return nil, fmt.Errorf("evidence search: %v: %w", err, schema.ErrToolFailure)
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		ev := mapToEvidence(r.ID, r.Content, r.Metadata)
		if filter != nil && filter.MaxTier > 0 && ev.Tier > filter.MaxTier {
			continue
		}
		out = append(out, Result{
			Evidence:   ev,
			Similarity: r.Similarity,
			Caveat:     caveatFor(ev),
		})
	}
	return out, nil
}

// Count returns the number of indexed evidence items.
func (s *Store) Count() int { return s.collection.Count() }

// Persist saves the index to dir.
func (s *Store) Persist(dir string) error {
	return s.db.ExportToFile(dir+"/evidence.gob.gz", true, "")
}

// Load restores the index from dir.
func (s *Store) Load(dir string) error {
	if err := s.db.ImportFromFile(dir+"/evidence.gob.gz", ""); err != nil {
		return fmt.Errorf("import evidence index: %w", err)
	}
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func caveatFor(ev Evidence) string {
	if ev.Tier <= TierVerified {
		return ""
	}
	return fmt.Sprintf("based on a tier-%d source (%s); verify before relying on it", ev.Tier, ev.Source)
}

func metadataToMap(ev Evidence) map[string]string {
	return map[string]string{
		"source":   ev.Source,
		"tier":     strconv.Itoa(int(ev.Tier)),
		"topic":    ev.Topic,
		"added_at": ev.AddedAt.Format(time.RFC3339),
	}
}

func mapToEvidence(id, content string, m map[string]string) Evidence {
	tier, _ := strconv.Atoi(m["tier"])
	addedAt, _ := time.Parse(time.RFC3339, m["added_at"])
	return Evidence{
		ID:      id,
		Content: content,
		Source:  m["source"],
		Tier:    SourceTier(tier),
		Topic:   m["topic"],
		AddedAt: addedAt,
	}
}

func whereClause(filter *Filter) map[string]string {
	if filter == nil || filter.Topic == "" {
		return nil
	}
	return map[string]string{"topic": filter.Topic}
}
