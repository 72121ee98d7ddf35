package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "repopa/internal/core/context"
	"repopa/internal/core/id"
	"repopa/internal/domain/audit"
)

// CompressionAlgo is stored next to every change set.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the change set size above which the JSON is
// stored zstd-compressed.
const DefaultCompressThreshold = 10 * 1024

var _ audit.Logger = (*AuditStore)(nil)

// AuditStore writes the change log to sys_audit on the caller's
// transaction.
type AuditStore struct {
	db                QuerierProvider
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditStore creates an AuditStore.
func NewAuditStore(db QuerierProvider) (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditStore{
		db:                db,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// WithCompressThreshold returns a copy compressing above n bytes.
func (s *AuditStore) WithCompressThreshold(n int) *AuditStore {
	cp := *s
	cp.compressThreshold = n
	return &cp
}

// encode returns the plain or compressed form of raw.
func (s *AuditStore) encode(raw []byte) (plain, compressed []byte, algo CompressionAlgo) {
	if len(raw) <= s.compressThreshold {
		return raw, nil, CompressionNone
	}
	return nil, s.encoder.EncodeAll(raw, nil), CompressionZstd
}

func (s *AuditStore) decode(plain, compressed []byte, algo CompressionAlgo) ([]byte, error) {
	if algo != CompressionZstd || len(compressed) == 0 {
		return plain, nil
	}
	out, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress changes: %w", err)
	}
	return out, nil
}

// LogChange implements audit.Logger. The author is taken from ctx.
func (s *AuditStore) LogChange(ctx context.Context, entityType string, entityID id.ID, action audit.Action, changes map[string]any) error {
	raw, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	plain, compressed, algo := s.encode(raw)

	var userID, email string
	if u := appctx.GetUser(ctx); u != nil {
		userID, email = u.UserID, u.Email
	}

	_, err = s.db.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id, user_email,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id.New(), entityType, entityID, string(action), userID, email,
		plain, compressed, string(algo), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// History implements audit.Logger, newest first.
func (s *AuditStore) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.GetQuerier(ctx).Query(ctx, `
		SELECT id, entity_type, entity_id, action, user_id, user_email,
		       changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []audit.Entry{}
	for rows.Next() {
		var (
			e          audit.Entry
			action     string
			plain      []byte
			compressed []byte
			algo       string
		)
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &action, &e.UserID, &e.UserEmail,
			&plain, &compressed, &algo, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action = audit.Action(action)

		changes, err := s.decode(plain, compressed, CompressionAlgo(algo))
		if err != nil {
			return nil, err
		}
		e.Changes = changes
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
