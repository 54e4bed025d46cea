// Package mongo implements the document repository on MongoDB, as an
// alternative to BigQuery for deployments without a warehouse.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/dvloznov/medreport/internal/config"
	"github.com/dvloznov/medreport/internal/logger"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	documentsCollection = "documents"
	runsCollection      = "extraction_runs"
	fieldsCollection    = "fields"
	summariesCollection = "summaries"
)

const extractorVersion = "v1"

// Repository implements bq.DocumentRepository on MongoDB.
type Repository struct {
	client    *mongo.Client
	documents *mongo.Collection
	runs      *mongo.Collection
	fields    *mongo.Collection
	summaries *mongo.Collection
}

// NewRepository connects, pings and ensures the indexes exist.
func NewRepository(ctx context.Context, cfg config.MongoConfig) (*Repository, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("NewRepository: connecting: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("NewRepository: ping: %w", err)
	}

	db := client.Database(cfg.Database)
	r := &Repository{
		client:    client,
		documents: db.Collection(documentsCollection),
		runs:      db.Collection(runsCollection),
		fields:    db.Collection(fieldsCollection),
		summaries: db.Collection(summariesCollection),
	}

	if err := r.createIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("NewRepository: %w", err)
	}
	return r, nil
}

func (r *Repository) createIndexes(ctx context.Context) error {
	specs := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{r.documents, []mongo.IndexModel{
			{Keys: bson.D{{Key: "document_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "checksum_sha256", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "upload_ts", Value: -1}}},
		}},
		{r.runs, []mongo.IndexModel{
			{Keys: bson.D{{Key: "run_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "document_id", Value: 1}, {Key: "started_ts", Value: -1}}},
		}},
		{r.fields, []mongo.IndexModel{
			{Keys: bson.D{{Key: "run_id", Value: 1}, {Key: "visit_index", Value: 1}, {Key: "position", Value: 1}}},
			{Keys: bson.D{{Key: "document_id", Value: 1}}},
		}},
		{r.summaries, []mongo.IndexModel{
			{Keys: bson.D{{Key: "document_id", Value: 1}}},
		}},
	}

	for _, s := range specs {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.models); err != nil {
			return fmt.Errorf("creating indexes on %s: %w", s.coll.Name(), err)
		}
	}
	return nil
}

// Close disconnects the client.
func (r *Repository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// InsertDocument inserts a document.
func (r *Repository) InsertDocument(ctx context.Context, row *bq.DocumentRow) error {
	if _, err := r.documents.InsertOne(ctx, toDocument(row)); err != nil {
		return fmt.Errorf("InsertDocument: %w", err)
	}
	return nil
}

// GetDocument returns the document or bq.ErrNotFound.
func (r *Repository) GetDocument(ctx context.Context, documentID string) (*bq.DocumentRow, error) {
	row, err := r.findDocument(ctx, bson.M{"document_id": documentID})
	if err != nil {
		return nil, fmt.Errorf("GetDocument: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("GetDocument: %s: %w", documentID, bq.ErrNotFound)
	}
	return row, nil
}

// FindDocumentByChecksum returns nil when no document matches.
func (r *Repository) FindDocumentByChecksum(ctx context.Context, checksum string) (*bq.DocumentRow, error) {
	row, err := r.findDocument(ctx, bson.M{"checksum_sha256": checksum})
	if err != nil {
		return nil, fmt.Errorf("FindDocumentByChecksum: %w", err)
	}
	return row, nil
}

func (r *Repository) findDocument(ctx context.Context, filter bson.M) (*bq.DocumentRow, error) {
	var doc documentDoc
	err := r.documents.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.row(), nil
}

// ListAllDocuments returns documents, newest upload first.
func (r *Repository) ListAllDocuments(ctx context.Context) ([]*bq.DocumentRow, error) {
	opts := options.Find().SetSort(bson.D{{Key: "upload_ts", Value: -1}})
	cursor, err := r.documents.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("ListAllDocuments: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []documentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("ListAllDocuments: decoding: %w", err)
	}

	rows := make([]*bq.DocumentRow, 0, len(docs))
	for i := range docs {
		rows = append(rows, docs[i].row())
	}
	return rows, nil
}

// UpdateDocumentStatus sets status and processed_ts.
func (r *Repository) UpdateDocumentStatus(ctx context.Context, documentID, status string) error {
	res, err := r.documents.UpdateOne(ctx,
		bson.M{"document_id": documentID},
		bson.M{"$set": bson.M{"status": status, "processed_ts": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("UpdateDocumentStatus: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("UpdateDocumentStatus: %s: %w", documentID, bq.ErrNotFound)
	}
	return nil
}

// DeleteDocument removes the document and everything derived from it.
func (r *Repository) DeleteDocument(ctx context.Context, documentID string) error {
	filter := bson.M{"document_id": documentID}
	for _, coll := range []*mongo.Collection{r.fields, r.summaries, r.runs, r.documents} {
		if _, err := coll.DeleteMany(ctx, filter); err != nil {
			return fmt.Errorf("DeleteDocument: deleting from %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// StartExtractionRun inserts a RUNNING run.
func (r *Repository) StartExtractionRun(ctx context.Context, documentID, extractor string) (string, error) {
	run := runDoc{
		RunID:            uuid.NewString(),
		DocumentID:       documentID,
		StartedTS:        time.Now().UTC(),
		Extractor:        extractor,
		ExtractorVersion: extractorVersion,
		Status:           bq.RunRunning,
	}
	if _, err := r.runs.InsertOne(ctx, run); err != nil {
		return "", fmt.Errorf("StartExtractionRun: %w", err)
	}
	return run.RunID, nil
}

// MarkExtractionRunFailed sets status=FAILED; errors are logged.
func (r *Repository) MarkExtractionRunFailed(ctx context.Context, runID string, runErr error) {
	_, err := r.runs.UpdateOne(ctx,
		bson.M{"run_id": runID},
		bson.M{"$set": bson.M{
			"status":        bq.RunFailed,
			"finished_ts":   time.Now().UTC(),
			"error_message": bq.TruncateError(runErr),
		}},
	)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("run_id", runID).Msg("MarkExtractionRunFailed: updating run")
	}
}

// MarkExtractionRunSucceeded sets status=SUCCESS.
func (r *Repository) MarkExtractionRunSucceeded(ctx context.Context, runID string, visits int, warnings []string) error {
	_, err := r.runs.UpdateOne(ctx,
		bson.M{"run_id": runID},
		bson.M{"$set": bson.M{
			"status":        bq.RunSuccess,
			"finished_ts":   time.Now().UTC(),
			"error_message": "",
			"visits":        int64(visits),
			"warnings":      warnings,
		}},
	)
	if err != nil {
		return fmt.Errorf("MarkExtractionRunSucceeded: %w", err)
	}
	return nil
}

// MarkExtractionRunsAsSuperseded marks finished runs of the document.
func (r *Repository) MarkExtractionRunsAsSuperseded(ctx context.Context, documentID string) error {
	_, err := r.runs.UpdateMany(ctx,
		bson.M{"document_id": documentID, "status": bson.M{"$ne": bq.RunRunning}},
		bson.M{"$set": bson.M{"status": bq.RunSuperseded}},
	)
	if err != nil {
		return fmt.Errorf("MarkExtractionRunsAsSuperseded: %w", err)
	}
	return nil
}

// LatestSucceededRun returns nil when there is none.
func (r *Repository) LatestSucceededRun(ctx context.Context, documentID, extractor string) (*bq.ExtractionRunRow, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "started_ts", Value: -1}})
	var run runDoc
	err := r.runs.FindOne(ctx, bson.M{
		"document_id": documentID,
		"extractor":   extractor,
		"status":      bq.RunSuccess,
	}, opts).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LatestSucceededRun: %w", err)
	}
	return run.row(), nil
}

// InsertFields inserts field rows in one call.
func (r *Repository) InsertFields(ctx context.Context, rows []*bq.FieldRow) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, toField(row))
	}
	if _, err := r.fields.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("InsertFields: %w", err)
	}
	return nil
}

// ListFields returns the cells of a run in table order.
func (r *Repository) ListFields(ctx context.Context, runID string) ([]*bq.FieldRow, error) {
	opts := options.Find().SetSort(bson.D{{Key: "visit_index", Value: 1}, {Key: "position", Value: 1}})
	cursor, err := r.fields.Find(ctx, bson.M{"run_id": runID}, opts)
	if err != nil {
		return nil, fmt.Errorf("ListFields: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []fieldDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("ListFields: decoding: %w", err)
	}
	rows := make([]*bq.FieldRow, 0, len(docs))
	for i := range docs {
		rows = append(rows, docs[i].row())
	}
	return rows, nil
}

// InsertSummary inserts a summary.
func (r *Repository) InsertSummary(ctx context.Context, row *bq.SummaryRow) error {
	if _, err := r.summaries.InsertOne(ctx, toSummary(row)); err != nil {
		return fmt.Errorf("InsertSummary: %w", err)
	}
	return nil
}

var _ bq.DocumentRepository = (*Repository)(nil)
