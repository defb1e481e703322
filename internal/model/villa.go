package model

import "time"

// Villa represents a rentable property in the catalog as stored in
// the `villas` table. Prices are stored in integer minor units
// (cents/paise) to keep money arithmetic exact. Amenities and
// images are persisted as JSON arrays in the database and exposed
// here as string slices.
//
// Fields:
//  ID                  – UUID primary key.
//  Name                – display name of the villa.
//  Description         – free-form description.
//  PricePerNightCents  – nightly rate in minor currency units.
//  Amenities           – ordered list of amenity labels.
//  Images              – ordered list of image URLs.
//  CreatedAt           – timestamp of creation.
//  UpdatedAt           – timestamp of last update.
type Villa struct {
	ID                 string    // villas.id
	Name               string    // villas.name
	Description        string    // villas.description
	PricePerNightCents int64     // villas.price_per_night_cents
	Amenities          []string  // villas.amenities (JSON)
	Images             []string  // villas.images (JSON)
	CreatedAt          time.Time // villas.created_at
	UpdatedAt          time.Time // villas.updated_at
}
