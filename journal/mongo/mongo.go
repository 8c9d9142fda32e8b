// Package mongo persists journal entries in MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/sweetpotato0/legalrag/journal"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Config holds MongoDB connection configuration.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// DefaultConfig returns a local MongoDB configuration.
func DefaultConfig() Config {
	return Config{
		URI:        "mongodb://localhost:27017",
		Database:   "legalrag",
		Collection: "runs",
	}
}

// Store implements journal.Journal on a MongoDB collection keyed by run id.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ journal.Journal = (*Store)(nil)

type document struct {
	RunID         string    `bson:"_id"`
	Question      string    `bson:"question"`
	Answer        string    `bson:"answer"`
	Outcome       string    `bson:"outcome"`
	Intent        string    `bson:"intent"`
	Confidence    string    `bson:"confidence,omitempty"`
	TriageMethod  string    `bson:"triage_method,omitempty"`
	Verdict       string    `bson:"verdict,omitempty"`
	VerdictReason string    `bson:"verdict_reason,omitempty"`
	SearchQueries []string  `bson:"search_queries,omitempty"`
	Sources       []string  `bson:"sources,omitempty"`
	Locators      []string  `bson:"locators,omitempty"`
	Path          []string  `bson:"path"`
	DurationMS    int64     `bson:"duration_ms"`
	CreatedAt     time.Time `bson:"created_at"`
}

func toDocument(e journal.Entry) document {
	return document{
		RunID:         e.RunID,
		Question:      e.Question,
		Answer:        e.Answer,
		Outcome:       e.Outcome,
		Intent:        e.Intent,
		Confidence:    e.Confidence,
		TriageMethod:  e.TriageMethod,
		Verdict:       e.Verdict,
		VerdictReason: e.VerdictReason,
		SearchQueries: e.SearchQueries,
		Sources:       e.Sources,
		Locators:      e.Locators,
		Path:          e.Path,
		DurationMS:    e.Duration.Milliseconds(),
		CreatedAt:     e.CreatedAt,
	}
}

func (d document) entry() journal.Entry {
	return journal.Entry{
		RunID:         d.RunID,
		Question:      d.Question,
		Answer:        d.Answer,
		Outcome:       d.Outcome,
		Intent:        d.Intent,
		Confidence:    d.Confidence,
		TriageMethod:  d.TriageMethod,
		Verdict:       d.Verdict,
		VerdictReason: d.VerdictReason,
		SearchQueries: d.SearchQueries,
		Sources:       d.Sources,
		Locators:      d.Locators,
		Path:          d.Path,
		Duration:      time.Duration(d.DurationMS) * time.Millisecond,
		CreatedAt:     d.CreatedAt,
	}
}

// New connects, pings and ensures the collection indexes.
func New(ctx context.Context, config Config) (*Store, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("%w: mongo uri is required", errorskg.ErrInvalidInput)
	}
	def := DefaultConfig()
	if config.Database == "" {
		config.Database = def.Database
	}
	if config.Collection == "" {
		config.Collection = def.Collection
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	store := &Store{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
	}
	if err := store.createIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	return store, nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "outcome", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

// Record upserts the entry so a retried write never duplicates a run.
func (s *Store) Record(ctx context.Context, entry journal.Entry) error {
	if entry.RunID == "" {
		return fmt.Errorf("%w: run id is required", errorskg.ErrInvalidInput)
	}
	doc := toDocument(entry)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": doc.RunID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("record run %s: %w", entry.RunID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. An empty outcome matches all.
func (s *Store) Recent(ctx context.Context, outcome string, limit int64) ([]journal.Entry, error) {
	filter := bson.M{}
	if outcome != "" {
		filter["outcome"] = outcome
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find runs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	entries := make([]journal.Entry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.entry())
	}
	return entries, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
