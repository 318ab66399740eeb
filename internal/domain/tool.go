package domain

import (
	"fmt"
	"time"
)

// PricingType classifies how a tool is monetized.
type PricingType string

const (
	PricingFree         PricingType = "FREE"
	PricingPaid         PricingType = "PAID"
	PricingSubscription PricingType = "SUBSCRIPTION"
)

// ParsePricingType validates and normalizes a pricing type string.
func ParsePricingType(s string) (PricingType, error) {
	switch PricingType(s) {
	case PricingFree, PricingPaid, PricingSubscription:
		return PricingType(s), nil
	default:
		return "", fmt.Errorf("unknown pricing type %q", s)
	}
}

// Tool represents a third-party tool listed in the directory.
//
// AvgRating is derived state: it always equals the mean of user_rating over
// the tool's reviews currently in APPROVED status, or 0.0 when that set is
// empty. It is only ever written by the rating recompute inside a moderation
// transaction, never by catalog writes.
type Tool struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	UseCase   string      `json:"use_case,omitempty"`
	Category  string      `json:"category,omitempty"`
	Pricing   PricingType `json:"pricing_type"`
	AvgRating float64     `json:"avg_rating"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
