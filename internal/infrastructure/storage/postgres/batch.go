package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BatchInserter bulk-loads rows with the COPY protocol. It is used for
// legacy imports where per-row INSERTs would be too slow.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a BatchInserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice copies rows (values in columns order) into table. It must
// run inside a transaction.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	t := b.txManager.GetTx(ctx)
	if t == nil {
		return 0, ErrNoTransaction
	}
	n, err := t.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, MapWriteError(err, table, "copy")
	}
	return n, nil
}

// CopyStructs copies records into table, one column per "db" tag of T.
func CopyStructs[T any](ctx context.Context, b *BatchInserter, table string, records []*T) (int64, error) {
	columns, rows, err := StructRows(records)
	if err != nil {
		return 0, err
	}
	return b.CopyFromSlice(ctx, table, columns, rows)
}

// StructRows converts records into the column list and row values
// expected by CopyFromSlice.
func StructRows[T any](records []*T) ([]string, [][]any, error) {
	columns := ExtractDBColumns[T]()
	if len(columns) == 0 {
		var zero T
		return nil, nil, fmt.Errorf("no db columns in %T", zero)
	}
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		m := StructToMap(rec)
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = m[c]
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}
