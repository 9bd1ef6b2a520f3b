package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"millstock/internal/domain/activity"
)

// Compile-time check.
var _ activity.Store = (*ActivityStore)(nil)

// ActivityStore persists activity entries. Payloads above the threshold
// are zstd-compressed; small ones are stored as plain JSONB for easy
// ad-hoc querying.
type ActivityStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewActivityStore creates an activity store.
func NewActivityStore(txManager *TxManager) (*ActivityStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &ActivityStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

func (s *ActivityStore) Save(ctx context.Context, entry *activity.Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	payload := entry.Payload
	var compressed []byte
	algo := "none"
	if len(payload) > s.compressThreshold {
		compressed = s.encoder.EncodeAll(payload, nil)
		payload = nil
		algo = "zstd"
	}

	sql := `
		INSERT INTO activity_log (
			id, entity, entity_id, action,
			payload, payload_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		entry.ID, entry.Entity, entry.EntityID, entry.Action,
		payload, compressed, algo, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

// Load retrieves one entry by id, decompressing the payload when needed.
func (s *ActivityStore) Load(ctx context.Context, entryID string) (*activity.Entry, error) {
	sql := `
		SELECT id, entity, entity_id, action,
		       payload, payload_compressed, compression_algo, created_at
		FROM activity_log WHERE id = $1
	`

	var entry activity.Entry
	var compressed []byte
	var algo string

	querier := s.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, entryID).Scan(
		&entry.ID, &entry.Entity, &entry.EntityID, &entry.Action,
		&entry.Payload, &compressed, &algo, &entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("load activity entry: %w", err)
	}

	if algo == "zstd" {
		decoded, err := s.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress activity payload: %w", err)
		}
		entry.Payload = decoded
	}
	return &entry, nil
}
