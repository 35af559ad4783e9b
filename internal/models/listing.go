// internal/models/listing.go
package models

import "time"

type Listing struct {
	ID           string        `json:"id" gorm:"primaryKey;size:64"`
	TokenID      string        `json:"tokenId" gorm:"size:64;not null;index"`
	Seller       string        `json:"seller" gorm:"size:64;not null"`
	Amount       int64         `json:"amount" gorm:"not null"`
	PricePerUnit float64       `json:"pricePerUnit" gorm:"type:decimal(20,6);not null"`
	CreatedAt    time.Time     `json:"createdAt"`
	ExpiresAt    *time.Time    `json:"expiresAt,omitempty"`
	Status       ListingStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`
	Kind         ListingKind   `json:"kind" gorm:"type:varchar(10);default:'book';index"`

	Position int64 `json:"-" gorm:"index"`
}

func (l Listing) Clone() Listing {
	out := l
	if l.ExpiresAt != nil {
		t := *l.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}

func (l Listing) IsActive() bool {
	return l.Status == ListingStatusActive
}

// ExpiredAt reports whether an active listing is past its expiry at now.
func (l Listing) ExpiredAt(now time.Time) bool {
	return l.IsActive() && l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}
