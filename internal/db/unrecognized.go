package db

import (
	"context"

	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

// FindUnrecognizedByNames returns the owner's unrecognized entries whose
// normalized raw text is in norms.
func (s *Scope) FindUnrecognizedByNames(ctx context.Context, norms []string) ([]pantry.UnrecognizedEntry, error) {
	if len(norms) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, owner_id, raw_text, context, resolved_at, created_at
		FROM unrecognized_entries
		WHERE owner_id = ? AND raw_norm IN (` + placeholders(len(norms)) + `)
	`
	args := append([]any{s.owner}, stringArgs(norms)...)

	rows, err := s.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []pantry.UnrecognizedEntry
	for rows.Next() {
		var e pantry.UnrecognizedEntry
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.RawText, &e.Context, &e.ResolvedAt, &e.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// InsertUnrecognizedIfAbsent inserts e for the scope owner unless an entry
// with the same normalized text already exists. The unique index is the
// arbiter for concurrent duplicates; a conflict is not an error.
// Returns true if a row was inserted.
func (s *Scope) InsertUnrecognizedIfAbsent(ctx context.Context, e pantry.UnrecognizedEntry) (bool, error) {
	query := `
		INSERT INTO unrecognized_entries (id, owner_id, raw_text, raw_norm, context, resolved_at, created_at)
		VALUES (?, ?, ?, ?, ?, NULL, ?)
		ON CONFLICT(owner_id, raw_norm) DO NOTHING
	`
	result, err := s.tx.ExecContext(ctx, query,
		e.ID, s.owner, e.RawText, pantry.Normalize(e.RawText), toNullString(e.Context), e.CreatedAt,
	)
	if err != nil {
		return false, errors.NewInternal(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return n == 1, nil
}

// MarkUnrecognizedResolved soft-marks an entry as promoted to the catalog.
// The row is kept so existing inventory and recipe links stay valid.
func (s *Scope) MarkUnrecognizedResolved(ctx context.Context, id string, at int64) error {
	result, err := s.tx.ExecContext(ctx, `
		UPDATE unrecognized_entries
		SET resolved_at = ?
		WHERE id = ? AND owner_id = ? AND resolved_at IS NULL
	`, at, id, s.owner)
	if err != nil {
		return errors.NewInternal(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound("unrecognized entry", id)
	}
	return nil
}
