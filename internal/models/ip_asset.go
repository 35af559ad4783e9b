// internal/models/ip_asset.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

type IPAsset struct {
	ID                string    `json:"id" gorm:"primaryKey;size:64"`
	Name              string    `json:"name" gorm:"size:255;not null"`
	Description       string    `json:"description" gorm:"type:text"`
	AssetID           *int64    `json:"assetId,omitempty" gorm:"uniqueIndex"`
	Creator           string    `json:"creator" gorm:"size:64;index"`
	TotalSupply       int64     `json:"totalSupply" gorm:"not null"`
	AvailableSupply   int64     `json:"availableSupply" gorm:"not null"`
	Price             float64   `json:"price" gorm:"type:decimal(20,6);not null"`
	RoyaltyPercentage float64   `json:"royaltyPercentage" gorm:"type:decimal(5,2);not null"`
	IPType            IPType    `json:"ipType" gorm:"type:varchar(20);index"`
	CreatedAt         time.Time `json:"createdAt"`
	ImageURL          string    `json:"imageUrl,omitempty" gorm:"size:512"`
	Metadata          JSONB     `json:"metadata" gorm:"type:jsonb"`
	Owners            Owners    `json:"owners,omitempty" gorm:"type:jsonb"`

	// Position preserves insertion order independently of CreatedAt, which
	// seeded records backdate.
	Position int64 `json:"-" gorm:"index"`
}

// Clone returns a copy that shares no mutable state with the receiver.
func (a IPAsset) Clone() IPAsset {
	out := a
	out.Metadata = a.Metadata.Clone()
	if a.Owners != nil {
		out.Owners = append(Owners(nil), a.Owners...)
	}
	if a.AssetID != nil {
		id := *a.AssetID
		out.AssetID = &id
	}
	return out
}

// ShareOf returns the ownership share held by address, or zero.
func (a IPAsset) ShareOf(address string) float64 {
	for _, o := range a.Owners {
		if o.Address == address {
			return o.Share
		}
	}
	return 0
}

type Owner struct {
	Address string  `json:"address"`
	Share   float64 `json:"share"`
}

type Owners []Owner

const shareTolerance = 1e-9

// Validate checks that shares are non-negative and, when present, sum to one.
func (o Owners) Validate() error {
	if len(o) == 0 {
		return nil
	}
	var sum float64
	for _, owner := range o {
		if owner.Address == "" {
			return fmt.Errorf("owner address is empty")
		}
		if owner.Share < 0 {
			return fmt.Errorf("owner %s has negative share %v", owner.Address, owner.Share)
		}
		sum += owner.Share
	}
	if math.Abs(sum-1) > shareTolerance {
		return fmt.Errorf("owner shares sum to %v, want 1", sum)
	}
	return nil
}

func (o Owners) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	return json.Marshal(o)
}

func (o *Owners) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*o = nil
		return nil
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	default:
		return fmt.Errorf("unsupported owners source type %T", value)
	}
}

// TokenizationRequest is the tokenization form submitted by the UI.
type TokenizationRequest struct {
	Name              string  `json:"name" validate:"required,min=3,max=255"`
	Description       string  `json:"description" validate:"required,min=10"`
	IPType            IPType  `json:"ipType" validate:"required,ip_type"`
	TotalSupply       int64   `json:"totalSupply" validate:"min=1"`
	RoyaltyPercentage float64 `json:"royaltyPercentage" validate:"min=0,max=25"`
	Price             float64 `json:"price" validate:"min=0.1"`
	ImageURL          string  `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Metadata          JSONB   `json:"metadata"`
}

// Holding is one asset in an address's portfolio.
type Holding struct {
	Asset IPAsset `json:"asset"`
	Share float64 `json:"share"`
	Value float64 `json:"value"`
}

type Portfolio struct {
	Address      string         `json:"address"`
	Holdings     []Holding      `json:"holdings"`
	TotalValue   float64        `json:"totalValue"`
	AssetCount   int            `json:"assetCount"`
	CountsByType map[IPType]int `json:"countsByType"`
}
