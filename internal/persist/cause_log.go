package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/l1jgo/causetrack/internal/core/commit"
)

// CauseLogRepo stores journal entries in the cause_log table.
type CauseLogRepo struct {
	db *DB
}

func NewCauseLogRepo(db *DB) *CauseLogRepo {
	return &CauseLogRepo{db: db}
}

// WriteBatch atomically writes entries in a single transaction.
func (r *CauseLogRepo) WriteBatch(ctx context.Context, entries []commit.JournalEntry) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cause log begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO cause_log (batch_id, seq, phase, category, chain, effect, actor, applied_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.Batch.String(), int64(e.Seq), e.Phase, e.Category, e.Chain, e.Effect, e.Actor, e.At,
		); err != nil {
			return fmt.Errorf("cause log insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ByBatch loads the entries of one commit batch in sequence order.
func (r *CauseLogRepo) ByBatch(ctx context.Context, batch uuid.UUID) ([]commit.JournalEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT seq, phase, category, chain, effect, actor, applied_at
		 FROM cause_log WHERE batch_id = $1 ORDER BY seq`,
		batch.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("cause log query: %w", err)
	}
	defer rows.Close()

	var out []commit.JournalEntry
	for rows.Next() {
		e := commit.JournalEntry{Batch: batch}
		var seq int64
		if err := rows.Scan(&seq, &e.Phase, &e.Category, &e.Chain, &e.Effect, &e.Actor, &e.At); err != nil {
			return nil, fmt.Errorf("cause log scan: %w", err)
		}
		e.Seq = uint64(seq)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes entries older than the given number of days.
func (r *CauseLogRepo) Prune(ctx context.Context, days int) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM cause_log WHERE applied_at < NOW() - make_interval(days => $1)`,
		days,
	)
	if err != nil {
		return 0, fmt.Errorf("cause log prune: %w", err)
	}
	return tag.RowsAffected(), nil
}
