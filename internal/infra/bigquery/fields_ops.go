package bigquery

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// insertBatchSize keeps streaming inserts below the request size limit.
const insertBatchSize = 500

// InsertFields streams field rows in batches.
func (r *BigQueryDocumentRepository) InsertFields(ctx context.Context, rows []*FieldRow) error {
	inserter := r.client.Dataset(r.datasetID).Table(fieldsTable).Inserter()
	for _, batch := range batches(rows, insertBatchSize) {
		if err := inserter.Put(ctx, batch); err != nil {
			return fmt.Errorf("InsertFields: inserting %d rows: %w", len(batch), err)
		}
	}
	return nil
}

// ListFields returns the cells of a run in table order.
func (r *BigQueryDocumentRepository) ListFields(ctx context.Context, runID string) ([]*FieldRow, error) {
	query := fmt.Sprintf(`
		SELECT
			document_id,
			run_id,
			visit_index,
			position,
			name,
			value,
			is_null
		FROM %s
		WHERE run_id = @run_id
		ORDER BY visit_index, position
	`, r.table(fieldsTable))

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{{Name: "run_id", Value: runID}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListFields: reading query: %w", err)
	}

	var fields []*FieldRow
	for {
		var row FieldRow
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListFields: iterating: %w", err)
		}
		fields = append(fields, &row)
	}
	return fields, nil
}

// InsertSummary streams a single SummaryRow.
func (r *BigQueryDocumentRepository) InsertSummary(ctx context.Context, row *SummaryRow) error {
	inserter := r.client.Dataset(r.datasetID).Table(summariesTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertSummary: inserting row: %w", err)
	}
	return nil
}

func batches[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
