package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/villa-booking/internal/availability"
	"github.com/iliyamo/villa-booking/internal/model"
)

// BookingRepo provides persistence for bookings. Bookings are
// created in the pending state by the order initiation flow and
// only the transactional ConfirmPaid path may move them to paid.
// All date columns are DATE values interpreted as UTC midnights.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingCols = `id, villa_id, check_in, check_out, guest_name, email, phone,
	total_amount_cents, payment_status, gateway_order_id, gateway_payment_id, created_at, updated_at`

// Create inserts a new pending booking and populates its generated
// UUID on the provided model.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = model.PaymentPending
	}
	const q = `INSERT INTO bookings (id, villa_id, check_in, check_out, guest_name, email, phone, total_amount_cents, payment_status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		b.ID, b.VillaID, b.CheckIn, b.CheckOut, b.GuestName, b.Email, b.Phone, b.TotalAmountCents, b.PaymentStatus)
	return err
}

// GetByID fetches a booking by its UUID. It returns
// ErrBookingNotFound when no row exists.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id = ?`, id)
	return scanBooking(row)
}

// SetGatewayOrder stores the gateway order id on a pending booking
// once the external order has been created.
func (r *BookingRepo) SetGatewayOrder(ctx context.Context, bookingID, orderID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET gateway_order_id = ? WHERE id = ?`, orderID, bookingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// PaidRanges returns the [check_in, check_out) ranges of every paid
// booking for the villa. Pending and failed rows are abandoned or
// rejected carts and never block availability.
func (r *BookingRepo) PaidRanges(ctx context.Context, villaID string) ([]availability.Range, error) {
	const q = `SELECT check_in, check_out FROM bookings
	           WHERE villa_id = ? AND payment_status = 'paid'`
	rows, err := r.db.QueryContext(ctx, q, villaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ranges := make([]availability.Range, 0)
	for rows.Next() {
		var in, out sql.NullTime
		if err := rows.Scan(&in, &out); err != nil {
			return nil, err
		}
		ranges = append(ranges, availability.Range{
			CheckIn:  availability.NormalizeDay(in.Time),
			CheckOut: availability.NormalizeDay(out.Time),
		})
	}
	return ranges, rows.Err()
}

// ConfirmPaid transitions a booking to paid inside a single
// transaction. The booking row is locked, the supplied gateway
// order id must match the one recorded at initiation
// (ErrOrderMismatch otherwise), and before the update an
// exclusion check re-validates that no other paid booking overlaps
// the range and that no date inside it has been blocked since the
// order was initiated. Two valid signatures racing for the same
// dates therefore cannot both win: the second commit observes the
// first and fails with ErrDatesUnavailable.
//
// Confirming an already-paid booking is idempotent: the method
// reports alreadyPaid=true and mutates nothing.
func (r *BookingRepo) ConfirmPaid(ctx context.Context, bookingID, orderID, paymentID string) (alreadyPaid bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		villaID     string
		in, out     sql.NullTime
		status      string
		storedOrder sql.NullString
	)
	const sel = `SELECT villa_id, check_in, check_out, payment_status, gateway_order_id
	             FROM bookings WHERE id = ? FOR UPDATE`
	if err := tx.QueryRowContext(ctx, sel, bookingID).Scan(&villaID, &in, &out, &status, &storedOrder); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrBookingNotFound
		}
		return false, err
	}
	// The payment triple proves only the order it was signed for.
	// Reject a triple replayed against a different booking's row.
	if !storedOrder.Valid || storedOrder.String != orderID {
		return false, ErrOrderMismatch
	}
	if status == model.PaymentPaid {
		return true, nil
	}

	req := availability.Range{
		CheckIn:  availability.NormalizeDay(in.Time),
		CheckOut: availability.NormalizeDay(out.Time),
	}

	// Lock competing paid rows for the villa so a concurrent confirm
	// serializes behind this transaction.
	const overlapQ = `SELECT COUNT(*) FROM bookings
	                  WHERE villa_id = ? AND id <> ? AND payment_status = 'paid'
	                    AND check_in < ? AND ? < check_out
	                  FOR UPDATE`
	var conflicts int
	if err := tx.QueryRowContext(ctx, overlapQ, villaID, bookingID, req.CheckOut, req.CheckIn).Scan(&conflicts); err != nil {
		return false, err
	}
	if conflicts > 0 {
		return false, ErrDatesUnavailable
	}

	const blockedQ = `SELECT COUNT(*) FROM blocked_dates
	                  WHERE villa_id = ? AND date >= ? AND date < ?`
	var blocked int
	if err := tx.QueryRowContext(ctx, blockedQ, villaID, req.CheckIn, req.CheckOut).Scan(&blocked); err != nil {
		return false, err
	}
	if blocked > 0 {
		return false, ErrDatesUnavailable
	}

	const upd = `UPDATE bookings
	             SET payment_status = 'paid', gateway_order_id = ?, gateway_payment_id = ?
	             WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upd, orderID, paymentID, bookingID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return false, nil
}

// MarkFailed flags a booking whose payment was declined or
// abandoned. Paid bookings are never demoted.
func (r *BookingRepo) MarkFailed(ctx context.Context, bookingID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET payment_status = 'failed' WHERE id = ? AND payment_status <> 'paid'`,
		bookingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing row from a paid booking.
		if _, err := r.GetByID(ctx, bookingID); err != nil {
			return err
		}
		return ErrAlreadyPaid
	}
	return nil
}

// BookingDetail joins a booking with its villa name for the admin
// back-office listing.
type BookingDetail struct {
	model.Booking
	VillaName string
}

// ListAll returns every booking together with its villa name,
// newest first. The optional villaID narrows the listing to one
// villa.
func (r *BookingRepo) ListAll(ctx context.Context, villaID string) ([]BookingDetail, error) {
	q := `SELECT b.id, b.villa_id, b.check_in, b.check_out, b.guest_name, b.email, b.phone,
	             b.total_amount_cents, b.payment_status, b.gateway_order_id, b.gateway_payment_id,
	             b.created_at, b.updated_at, v.name
	      FROM bookings b
	      JOIN villas v ON v.id = b.villa_id`
	args := []interface{}{}
	if villaID != "" {
		q += ` WHERE b.villa_id = ?`
		args = append(args, villaID)
	}
	q += ` ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		var (
			d                  BookingDetail
			in, out            sql.NullTime
			orderID, paymentID sql.NullString
		)
		if err := rows.Scan(
			&d.ID, &d.VillaID, &in, &out, &d.GuestName, &d.Email, &d.Phone,
			&d.TotalAmountCents, &d.PaymentStatus, &orderID, &paymentID,
			&d.CreatedAt, &d.UpdatedAt, &d.VillaName,
		); err != nil {
			return nil, err
		}
		d.CheckIn = availability.NormalizeDay(in.Time)
		d.CheckOut = availability.NormalizeDay(out.Time)
		if orderID.Valid {
			v := orderID.String
			d.GatewayOrderID = &v
		}
		if paymentID.Valid {
			v := paymentID.String
			d.GatewayPaymentID = &v
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// scanBooking reads one booking row from a QueryRow result.
func scanBooking(row *sql.Row) (*model.Booking, error) {
	var (
		b                  model.Booking
		in, out            sql.NullTime
		orderID, paymentID sql.NullString
	)
	err := row.Scan(
		&b.ID, &b.VillaID, &in, &out, &b.GuestName, &b.Email, &b.Phone,
		&b.TotalAmountCents, &b.PaymentStatus, &orderID, &paymentID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	b.CheckIn = availability.NormalizeDay(in.Time)
	b.CheckOut = availability.NormalizeDay(out.Time)
	if orderID.Valid {
		v := orderID.String
		b.GatewayOrderID = &v
	}
	if paymentID.Valid {
		v := paymentID.String
		b.GatewayPaymentID = &v
	}
	return &b, nil
}
