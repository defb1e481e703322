package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/villa-booking/internal/availability"
	"github.com/iliyamo/villa-booking/internal/model"
)

// BlockedDateRepo manages admin-imposed unavailability, one row per
// (villa, date). Uniqueness is enforced both by an explicit
// pre-check inside a transaction and by the UNIQUE(villa_id, date)
// key, so a duplicate always surfaces as the typed ErrDateBlocked
// rather than a driver error code.
type BlockedDateRepo struct {
	db *sql.DB
}

// NewBlockedDateRepo returns a new BlockedDateRepo bound to the given database.
func NewBlockedDateRepo(db *sql.DB) *BlockedDateRepo { return &BlockedDateRepo{db: db} }

// Insert creates a blocked date. It returns ErrDateBlocked when the
// (villa, date) pair already exists and populates the generated
// UUID on the provided model on success.
func (r *BlockedDateRepo) Insert(ctx context.Context, bd *model.BlockedDate) error {
	if bd.ID == "" {
		bd.ID = uuid.NewString()
	}
	bd.Date = availability.NormalizeDay(bd.Date)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Explicit duplicate check; the row lock keeps a concurrent
	// insert from slipping between check and insert.
	const dup = `SELECT COUNT(*) FROM blocked_dates WHERE villa_id = ? AND date = ? FOR UPDATE`
	var n int
	if err := tx.QueryRowContext(ctx, dup, bd.VillaID, bd.Date).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrDateBlocked
	}

	const ins = `INSERT INTO blocked_dates (id, villa_id, date, reason) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, ins, bd.ID, bd.VillaID, bd.Date, bd.Reason); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	bd.CreatedAt = time.Now().UTC()
	return nil
}

// Dates returns the blocked calendar dates of a villa inside the
// half-open window [from, to). Zero bounds disable the respective
// filter so callers can fetch the full block list.
func (r *BlockedDateRepo) Dates(ctx context.Context, villaID string, from, to time.Time) ([]time.Time, error) {
	q := `SELECT date FROM blocked_dates WHERE villa_id = ?`
	args := []interface{}{villaID}
	if !from.IsZero() {
		q += ` AND date >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		q += ` AND date < ?`
		args = append(args, to)
	}
	q += ` ORDER BY date`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	dates := make([]time.Time, 0)
	for rows.Next() {
		var d sql.NullTime
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, availability.NormalizeDay(d.Time))
	}
	return dates, rows.Err()
}

// ListByVilla returns full blocked-date records for the admin
// back-office, oldest date first.
func (r *BlockedDateRepo) ListByVilla(ctx context.Context, villaID string) ([]model.BlockedDate, error) {
	const q = `SELECT id, villa_id, date, reason, created_at FROM blocked_dates
	           WHERE villa_id = ? ORDER BY date`
	rows, err := r.db.QueryContext(ctx, q, villaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BlockedDate, 0)
	for rows.Next() {
		var (
			bd     model.BlockedDate
			d      sql.NullTime
			reason sql.NullString
		)
		if err := rows.Scan(&bd.ID, &bd.VillaID, &d, &reason, &bd.CreatedAt); err != nil {
			return nil, err
		}
		bd.Date = availability.NormalizeDay(d.Time)
		if reason.Valid {
			v := reason.String
			bd.Reason = &v
		}
		out = append(out, bd)
	}
	return out, rows.Err()
}

// Delete removes a blocked date by id, returning sql.ErrNoRows when
// it does not exist.
func (r *BlockedDateRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blocked_dates WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
