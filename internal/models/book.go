package models

import "time"

type VisibilityTier string

const (
	TierFree    VisibilityTier = "free"
	TierPremium VisibilityTier = "premium"
)

// Book is owned by the catalog; this service reads tier and price only.
type Book struct {
	ID         string
	Title      string
	Author     string
	Department string
	Semester   string
	Tier       VisibilityTier
	Price      float64
	CreatedAt  time.Time
}
