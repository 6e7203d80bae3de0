package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"grocerycheck/core/event"
	"grocerycheck/domain/run"
)

// DefaultRunCollection is the collection run reports are stored in.
const DefaultRunCollection = "runs"

// runDocument is the MongoDB document structure for run reports.
type runDocument struct {
	ID         string           `bson:"_id"`
	Suite      string           `bson:"suite"`
	StartedAt  time.Time        `bson:"started_at"`
	FinishedAt time.Time        `bson:"finished_at"`
	DurationMS int64            `bson:"duration_ms"`
	Counts     map[string]int   `bson:"counts"`
	Results    []resultDocument `bson:"results"`
}

// resultDocument is the MongoDB document structure for one scenario result.
type resultDocument struct {
	Scenario     string            `bson:"scenario"`
	Kind         string            `bson:"kind"`
	SessionID    string            `bson:"session_id"`
	Status       string            `bson:"status"`
	StartedAt    time.Time         `bson:"started_at"`
	DurationMS   int64             `bson:"duration_ms"`
	Error        string            `bson:"error,omitempty"`
	Observations map[string]string `bson:"observations,omitempty"`
	Artifacts    []string          `bson:"artifacts,omitempty"`
}

// MongoRunRepository implements run.Repository using MongoDB.
type MongoRunRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoRunRepository creates a run repository on collection of db.
func NewMongoRunRepository(db *MongoDB, collection string, logger *slog.Logger) *MongoRunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if collection == "" {
		collection = DefaultRunCollection
	}
	return &MongoRunRepository{
		collection: db.Collection(collection),
		logger:     logger,
	}
}

// EnsureIndexes creates the index FindRecent sorts on.
func (r *MongoRunRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "suite", Value: 1}, {Key: "started_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create run index: %w", err)
	}
	return nil
}

// Insert stores a finished report.
func (r *MongoRunRepository) Insert(ctx context.Context, rep *run.Report) error {
	if rep.ID == "" {
		return errors.New("run report has no ID")
	}
	if _, err := r.collection.InsertOne(ctx, reportToDocument(rep)); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", rep.ID, err)
	}
	r.logger.Info("Run report stored", "run_id", rep.ID, "suite", rep.Suite, "results", len(rep.Results))
	return nil
}

// FindByID retrieves a report by run ID.
func (r *MongoRunRepository) FindByID(ctx context.Context, id string) (*run.Report, error) {
	var doc runDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, run.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to find run: %w", err)
	}
	return documentToReport(&doc), nil
}

// FindRecent returns up to limit reports, newest first.
func (r *MongoRunRepository) FindRecent(ctx context.Context, suite string, limit int) ([]*run.Report, error) {
	filter := bson.M{}
	if suite != "" {
		filter["suite"] = suite
	}
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find runs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []runDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode runs: %w", err)
	}

	reports := make([]*run.Report, len(docs))
	for i := range docs {
		reports[i] = documentToReport(&docs[i])
	}
	return reports, nil
}

// reportToDocument converts a domain Report to a MongoDB document.
func reportToDocument(rep *run.Report) *runDocument {
	doc := &runDocument{
		ID:         rep.ID,
		Suite:      rep.Suite,
		StartedAt:  rep.StartedAt.UTC(),
		FinishedAt: rep.FinishedAt.UTC(),
		DurationMS: rep.Duration().Milliseconds(),
		Counts:     make(map[string]int),
		Results:    make([]resultDocument, len(rep.Results)),
	}
	for status, n := range rep.Counts() {
		doc.Counts[string(status)] = n
	}
	for i, res := range rep.Results {
		doc.Results[i] = resultDocument{
			Scenario:     res.Scenario,
			Kind:         res.Kind,
			SessionID:    res.SessionID,
			Status:       string(res.Status),
			StartedAt:    res.StartedAt.UTC(),
			DurationMS:   res.Duration.Milliseconds(),
			Error:        res.Error,
			Observations: res.Observations,
			Artifacts:    res.Artifacts,
		}
	}
	return doc
}

// documentToReport converts a MongoDB document to a domain Report.
func documentToReport(doc *runDocument) *run.Report {
	rep := &run.Report{
		ID:         doc.ID,
		Suite:      doc.Suite,
		StartedAt:  doc.StartedAt,
		FinishedAt: doc.FinishedAt,
		Results:    make([]run.Result, len(doc.Results)),
	}
	for i, res := range doc.Results {
		rep.Results[i] = run.Result{
			Scenario:     res.Scenario,
			Kind:         res.Kind,
			SessionID:    res.SessionID,
			Status:       event.Status(res.Status),
			StartedAt:    res.StartedAt,
			Duration:     time.Duration(res.DurationMS) * time.Millisecond,
			Error:        res.Error,
			Observations: res.Observations,
			Artifacts:    res.Artifacts,
		}
	}
	return rep
}
