// Package models contains the persisted entities of the catalog service
package models

// Demo is a catalog entry keyed by an allocator-issued id.
type Demo struct {
	ID          int64   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name        string  `gorm:"type:text;not null;default:''" json:"Name"`
	Description string  `gorm:"type:text;not null;default:''" json:"Description"`
	Price       float64 `gorm:"not null;default:0" json:"Price"`
	Category    string  `gorm:"type:text;not null;default:''" json:"Category"`
}

func (Demo) TableName() string { return "demos" }

// DemoFilter represents filter criteria for querying demos
type DemoFilter struct {
	IDs []int64
	// NameContains is matched case-insensitively as a plain substring.
	NameContains *string
}

// DemoFields carries the mutable fields of an update. A nil field was not supplied.
type DemoFields struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
}

// UpdateMode selects how DemoFields are applied.
type UpdateMode int

const (
	// UpdateModeFull replaces every mutable field; unsupplied fields become zero values.
	UpdateModeFull UpdateMode = iota
	// UpdateModePartial writes only the supplied fields.
	UpdateModePartial
)

func (m UpdateMode) String() string {
	switch m {
	case UpdateModeFull:
		return "full"
	case UpdateModePartial:
		return "partial"
	default:
		return "unknown"
	}
}

// Columns returns the column assignments for the given mode.
func (f DemoFields) Columns(mode UpdateMode) map[string]any {
	updates := make(map[string]any, 4)
	if mode == UpdateModeFull {
		updates["name"] = deref(f.Name)
		updates["description"] = deref(f.Description)
		updates["price"] = deref(f.Price)
		updates["category"] = deref(f.Category)
		return updates
	}
	if f.Name != nil {
		updates["name"] = *f.Name
	}
	if f.Description != nil {
		updates["description"] = *f.Description
	}
	if f.Price != nil {
		updates["price"] = *f.Price
	}
	if f.Category != nil {
		updates["category"] = *f.Category
	}
	return updates
}

// Apply merges the fields into d the same way Columns does for the store.
func (f DemoFields) Apply(d *Demo, mode UpdateMode) {
	if mode == UpdateModeFull {
		d.Name = deref(f.Name)
		d.Description = deref(f.Description)
		d.Price = deref(f.Price)
		d.Category = deref(f.Category)
		return
	}
	if f.Name != nil {
		d.Name = *f.Name
	}
	if f.Description != nil {
		d.Description = *f.Description
	}
	if f.Price != nil {
		d.Price = *f.Price
	}
	if f.Category != nil {
		d.Category = *f.Category
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
