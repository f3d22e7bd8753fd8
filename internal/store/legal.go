package store

import (
	"context"
	"database/sql"
	"time"

	"blogpilot/internal/models"
)

// ReplaceLegalReferences swaps the stored citations for a post with the
// freshly extracted set.
func ReplaceLegalReferences(ctx context.Context, db *sql.DB, postID string, refs []models.LegalReference) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM legal_references WHERE post_id = ?`, postID); err != nil {
		return err
	}
	for _, r := range refs {
		var checkedAt any
		if r.CheckedAt.Valid {
			checkedAt = r.CheckedAt.Time.UTC()
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO legal_references
            (post_id, citation, law, clause, verdict, detail, checked_at)
            VALUES (?, ?, ?, ?, ?, ?, ?)`,
			postID, r.Citation, nullIfEmpty(r.Law), nullIfEmpty(r.Clause),
			nullIfEmpty(r.Verdict), nullIfEmpty(r.Detail), checkedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LegalReferences returns the stored citations for a post.
func LegalReferences(ctx context.Context, db *sql.DB, postID string) ([]models.LegalReference, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, post_id, citation, law, clause, verdict, detail, checked_at
        FROM legal_references WHERE post_id = ? ORDER BY id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.LegalReference
	for rows.Next() {
		var r models.LegalReference
		var law, clause, verdict, detail sql.NullString
		if err := rows.Scan(&r.ID, &r.PostID, &r.Citation, &law, &clause, &verdict, &detail, &r.CheckedAt); err != nil {
			return nil, err
		}
		r.Law = law.String
		r.Clause = clause.String
		r.Verdict = verdict.String
		r.Detail = detail.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// SetLegalVerdict records the verifier's verdict for one citation row.
func SetLegalVerdict(ctx context.Context, db *sql.DB, id int64, verdict, detail string) error {
	_, err := db.ExecContext(ctx, `UPDATE legal_references
        SET verdict = ?, detail = ?, checked_at = ? WHERE id = ?`,
		verdict, nullIfEmpty(detail), time.Now().UTC(), id)
	return err
}

// InsertLegalCheck appends one verification-run summary for a post.
func InsertLegalCheck(ctx context.Context, db *sql.DB, c models.LegalCheck) error {
	_, err := db.ExecContext(ctx, `INSERT INTO legal_checks
        (post_id, total, valid, invalid, unknown, status, checked_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.PostID, c.Total, c.Valid, c.Invalid, c.Unknown, c.Status, time.Now().UTC())
	return err
}

// LatestLegalCheck returns the most recent verification run for a post, or
// nil when the post was never checked.
func LatestLegalCheck(ctx context.Context, db *sql.DB, postID string) (*models.LegalCheck, error) {
	row := db.QueryRowContext(ctx, `SELECT id, post_id, total, valid, invalid, unknown, status, checked_at
        FROM legal_checks WHERE post_id = ? ORDER BY checked_at DESC, id DESC LIMIT 1`, postID)
	var c models.LegalCheck
	err := row.Scan(&c.ID, &c.PostID, &c.Total, &c.Valid, &c.Invalid, &c.Unknown, &c.Status, &c.CheckedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
