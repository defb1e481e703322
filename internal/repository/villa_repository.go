package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/villa-booking/internal/model"
)

// VillaRepo provides CRUD operations on the villas table. Amenity
// and image lists are stored as JSON columns and (un)marshalled at
// the repository boundary so the rest of the application only sees
// string slices.
type VillaRepo struct {
	db *sql.DB
}

// NewVillaRepo returns a new VillaRepo bound to the given database.
func NewVillaRepo(db *sql.DB) *VillaRepo { return &VillaRepo{db: db} }

// Create inserts a new villa and populates its generated UUID and
// timestamps on the provided model.
func (r *VillaRepo) Create(ctx context.Context, v *model.Villa) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	amenities, err := json.Marshal(v.Amenities)
	if err != nil {
		return err
	}
	images, err := json.Marshal(v.Images)
	if err != nil {
		return err
	}
	const q = `INSERT INTO villas (id, name, description, price_per_night_cents, amenities, images)
	           VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, v.ID, v.Name, v.Description, v.PricePerNightCents, amenities, images); err != nil {
		return err
	}
	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now
	return nil
}

// GetByID fetches a single villa. It returns ErrVillaNotFound when
// no row exists.
func (r *VillaRepo) GetByID(ctx context.Context, id string) (*model.Villa, error) {
	const q = `SELECT id, name, description, price_per_night_cents, amenities, images, created_at, updated_at
	           FROM villas WHERE id = ?`
	var (
		v                 model.Villa
		amenities, images []byte
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&v.ID, &v.Name, &v.Description, &v.PricePerNightCents, &amenities, &images, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVillaNotFound
		}
		return nil, err
	}
	if err := unmarshalList(amenities, &v.Amenities); err != nil {
		return nil, err
	}
	if err := unmarshalList(images, &v.Images); err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns all villas ordered by creation time descending
// (newest first).
func (r *VillaRepo) List(ctx context.Context) ([]model.Villa, error) {
	const q = `SELECT id, name, description, price_per_night_cents, amenities, images, created_at, updated_at
	           FROM villas ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	villas := make([]model.Villa, 0)
	for rows.Next() {
		var (
			v                 model.Villa
			amenities, images []byte
		)
		if err := rows.Scan(&v.ID, &v.Name, &v.Description, &v.PricePerNightCents, &amenities, &images, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalList(amenities, &v.Amenities); err != nil {
			return nil, err
		}
		if err := unmarshalList(images, &v.Images); err != nil {
			return nil, err
		}
		villas = append(villas, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return villas, nil
}

// Update replaces the mutable fields of a villa. It returns
// ErrVillaNotFound when the villa does not exist.
func (r *VillaRepo) Update(ctx context.Context, v *model.Villa) error {
	amenities, err := json.Marshal(v.Amenities)
	if err != nil {
		return err
	}
	images, err := json.Marshal(v.Images)
	if err != nil {
		return err
	}
	const q = `UPDATE villas SET name = ?, description = ?, price_per_night_cents = ?, amenities = ?, images = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, v.Name, v.Description, v.PricePerNightCents, amenities, images, v.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Could also mean an update with identical values; treat a
		// missing row as the only not-found signal.
		if _, err := r.GetByID(ctx, v.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a villa. Blocked dates cascade via foreign key;
// bookings reference the villa and keep it from being deleted while
// any exist (foreign key restriction surfaces as an error).
func (r *VillaRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM villas WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVillaNotFound
	}
	return nil
}

// unmarshalList decodes a JSON array column into dst, tolerating
// NULL columns by leaving dst empty.
func unmarshalList(raw []byte, dst *[]string) error {
	*dst = []string{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
