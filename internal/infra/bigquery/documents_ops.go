package bigquery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	bq "github.com/dvloznov/medreport/internal/bigquery"
	"google.golang.org/api/iterator"
)

const documentColumns = `
			document_id,
			document_number,
			gcs_uri,
			document_type,
			source_system,
			upload_ts,
			processed_ts,
			status,
			original_filename,
			file_mime_type,
			size_bytes,
			checksum_sha256`

// InsertDocument streams a single DocumentRow into the documents table.
func (r *BigQueryDocumentRepository) InsertDocument(ctx context.Context, row *DocumentRow) error {
	inserter := r.client.Dataset(r.datasetID).Table(documentsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertDocument: inserting row: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (r *BigQueryDocumentRepository) GetDocument(ctx context.Context, documentID string) (*DocumentRow, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE document_id = @document_id
		LIMIT 1
	`, documentColumns, r.table(documentsTable))

	row, err := r.readDocument(ctx, query, bigquery.QueryParameter{Name: "document_id", Value: documentID})
	if err != nil {
		return nil, fmt.Errorf("GetDocument: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("GetDocument: %s: %w", documentID, bq.ErrNotFound)
	}
	return row, nil
}

// FindDocumentByChecksum retrieves a document by its SHA-256 checksum.
// Returns nil if no document with the given checksum exists.
func (r *BigQueryDocumentRepository) FindDocumentByChecksum(ctx context.Context, checksum string) (*DocumentRow, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE checksum_sha256 = @checksum
		LIMIT 1
	`, documentColumns, r.table(documentsTable))

	row, err := r.readDocument(ctx, query, bigquery.QueryParameter{Name: "checksum", Value: checksum})
	if err != nil {
		return nil, fmt.Errorf("FindDocumentByChecksum: %w", err)
	}
	return row, nil
}

func (r *BigQueryDocumentRepository) readDocument(ctx context.Context, query string, params ...bigquery.QueryParameter) (*DocumentRow, error) {
	q := r.client.Query(query)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading query: %w", err)
	}

	var row DocumentRow
	err = it.Next(&row)
	if errors.Is(err, iterator.Done) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading row: %w", err)
	}
	return &row, nil
}

// ListAllDocuments retrieves all documents, newest first.
func (r *BigQueryDocumentRepository) ListAllDocuments(ctx context.Context) ([]*DocumentRow, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY upload_ts DESC
	`, documentColumns, r.table(documentsTable))

	it, err := r.client.Query(query).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAllDocuments: reading query: %w", err)
	}

	var documents []*DocumentRow
	for {
		var row DocumentRow
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAllDocuments: iterating: %w", err)
		}
		documents = append(documents, &row)
	}
	return documents, nil
}

// UpdateDocumentStatus sets status and processed_ts.
func (r *BigQueryDocumentRepository) UpdateDocumentStatus(ctx context.Context, documentID, status string) error {
	sql := fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    processed_ts = @processed_ts
		WHERE document_id = @document_id
	`, r.table(documentsTable))

	err := r.exec(ctx, sql,
		bigquery.QueryParameter{Name: "status", Value: status},
		bigquery.QueryParameter{Name: "processed_ts", Value: time.Now()},
		bigquery.QueryParameter{Name: "document_id", Value: documentID},
	)
	if err != nil {
		return fmt.Errorf("UpdateDocumentStatus: %w", err)
	}
	return nil
}

// DeleteDocument deletes a document and everything derived from it. Children
// go first so a partial failure never leaves orphaned fields.
func (r *BigQueryDocumentRepository) DeleteDocument(ctx context.Context, documentID string) error {
	for _, table := range []string{fieldsTable, summariesTable, extractionRunsTable, documentsTable} {
		sql := fmt.Sprintf(`
		DELETE FROM %s
		WHERE document_id = @document_id
	`, r.table(table))
		if err := r.exec(ctx, sql, bigquery.QueryParameter{Name: "document_id", Value: documentID}); err != nil {
			return fmt.Errorf("DeleteDocument: deleting from %s: %w", table, err)
		}
	}
	return nil
}
