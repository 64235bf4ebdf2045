package entities

import (
	"fmt"
	"time"
)

// PrizeCategory is the tier of a prize. Tiers are ordered SMALL < MEDIUM < BIG < GRAND.
type PrizeCategory string

const (
	PrizeCategorySmall  PrizeCategory = "SMALL"
	PrizeCategoryMedium PrizeCategory = "MEDIUM"
	PrizeCategoryBig    PrizeCategory = "BIG"
	PrizeCategoryGrand  PrizeCategory = "GRAND"
)

var categoryRank = map[PrizeCategory]int{
	PrizeCategorySmall:  1,
	PrizeCategoryMedium: 2,
	PrizeCategoryBig:    3,
	PrizeCategoryGrand:  4,
}

// ParsePrizeCategory validates a raw category string
func ParsePrizeCategory(raw string) (PrizeCategory, error) {
	c := PrizeCategory(raw)
	if _, ok := categoryRank[c]; !ok {
		return "", fmt.Errorf("unknown prize category %q", raw)
	}
	return c, nil
}

// IsValid reports whether the category is one of the known tiers
func (c PrizeCategory) IsValid() bool {
	_, ok := categoryRank[c]
	return ok
}

// Rank returns the tier ordinal, 0 for unknown categories
func (c PrizeCategory) Rank() int {
	return categoryRank[c]
}

// RequiresCheckIn reports whether only checked-in participants may win this tier
func (c PrizeCategory) RequiresCheckIn() bool {
	return c == PrizeCategoryGrand
}

// Prize is a prize type with a finite stock of units.
// Remaining is only lowered by a successful draw and only restored by a pool reset.
type Prize struct {
	ID          string        `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Description string        `db:"description" json:"description"`
	Category    PrizeCategory `db:"category" json:"category"`
	Stock       int           `db:"stock" json:"stock"`
	Remaining   int           `db:"remaining" json:"remaining"`
	IsActive    bool          `db:"is_active" json:"isActive"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
}

// HasStock returns true if at least one unit is left
func (p *Prize) HasStock() bool {
	return p.Remaining > 0
}

// Awarded returns how many units are currently held by outcomes
func (p *Prize) Awarded() int {
	return p.Stock - p.Remaining
}
