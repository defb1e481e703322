package model

import "time"

// BlockedDate marks one calendar date of one villa as unavailable
// by explicit admin action (maintenance, owner stay, etc.). The
// database enforces uniqueness over (villa_id, date); inserting a
// duplicate is a conflict, never a silent no-op.
//
// Fields:
//  ID        – UUID primary key.
//  VillaID   – villa the block applies to.
//  Date      – blocked calendar date (UTC midnight).
//  Reason    – optional human-readable reason.
//  CreatedAt – creation timestamp.
type BlockedDate struct {
	ID        string    // blocked_dates.id
	VillaID   string    // blocked_dates.villa_id
	Date      time.Time // blocked_dates.date
	Reason    *string   // blocked_dates.reason (nullable)
	CreatedAt time.Time // blocked_dates.created_at
}
