package models

import "time"

// DemoSequenceName is the counter that issues Demo ids.
const DemoSequenceName = "productId"

// SequenceCounter stores the last value for named monotonic counters.
type SequenceCounter struct {
	Name      string    `gorm:"primaryKey;size:64" json:"name"`
	LastValue int64     `gorm:"not null;default:0" json:"last_value"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (SequenceCounter) TableName() string { return "sequence_counters" }
