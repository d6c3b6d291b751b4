package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fyrsmithlabs/problemsolver/internal/learning"
	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

const (
	// CollectionName is the chromem collection holding builtin knowledge.
	CollectionName = "builtin_knowledge"

	metaContent = "content"
	metaSource  = "source"
	metaDomain  = "domain"
)

// ErrEmptyContent indicates an entry without content.
var ErrEmptyContent = errors.New("knowledge content cannot be empty")

// Entry is one builtin knowledge item.
type Entry struct {
	ID      string `koanf:"id"`
	Domain  string `koanf:"domain"`
	Content string `koanf:"content"`
	Source  string `koanf:"source"`
}

// Config configures a Store.
type Config struct {
	// Path persists the collection on disk. Empty keeps it in memory.
	Path string

	// Compress gzips persisted documents.
	Compress bool

	// Dimensions is the hash embedding width.
	Dimensions int
}

// Store answers term lookups against builtin knowledge held in chromem-go.
//
// Documents are stored lower-cased so the term filter is case-insensitive; the
// original content is kept in metadata and returned to callers.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     *zap.Logger
}

// NewStore opens or creates the knowledge collection.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", cfg.Path, err)
		}
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(CollectionName, nil, NewHashEmbedder(cfg.Dimensions).Func())
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", CollectionName, err)
	}

	logger.Debug("knowledge store initialized",
		zap.String("path", cfg.Path),
		zap.Int("documents", collection.Count()))

	return &Store{db: db, collection: collection, logger: logger}, nil
}

// Seed adds entries, replacing any with the same id. Entries without an id get
// one derived from their domain and position.
func (s *Store) Seed(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Content) == "" {
			return fmt.Errorf("entry %d: %w", i, ErrEmptyContent)
		}
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("%s_%03d", e.Domain, i)
		}
		docs = append(docs, chromem.Document{
			ID:      id,
			Content: strings.ToLower(e.Content),
			Metadata: map[string]string{
				metaContent: e.Content,
				metaSource:  e.Source,
				metaDomain:  e.Domain,
			},
		})
	}

	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("adding knowledge documents: %w", err)
	}
	s.logger.Info("knowledge seeded", zap.Int("entries", len(docs)), zap.Int("total", s.collection.Count()))
	return nil
}

// Count returns the number of stored entries.
func (s *Store) Count() int {
	return s.collection.Count()
}

// QueryByTerm returns up to limit entries whose content contains term, most
// similar first.
func (s *Store) QueryByTerm(ctx context.Context, term string, limit int) ([]learning.KnowledgeHit, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || limit <= 0 {
		return []learning.KnowledgeHit{}, nil
	}

	// chromem requires nResults <= document count.
	count := s.collection.Count()
	if count == 0 {
		return []learning.KnowledgeHit{}, nil
	}
	if limit > count {
		limit = count
	}

	results, err := s.collection.Query(ctx, term, limit, nil, map[string]string{"$contains": term})
	if err != nil {
		return nil, fmt.Errorf("querying knowledge for %q: %w", term, err)
	}

	hits := make([]learning.KnowledgeHit, 0, len(results))
	for _, r := range results {
		content := r.Metadata[metaContent]
		if content == "" {
			content = r.Content
		}
		hits = append(hits, learning.KnowledgeHit{
			Term:       term,
			Content:    content,
			Confidence: float64(r.Similarity),
			Source:     r.Metadata[metaSource],
		})
	}
	return hits, nil
}
