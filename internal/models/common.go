// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB holds free-form metadata. Stored as jsonb on PostgreSQL and as a
// JSON blob on SQLite.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}

	return json.Unmarshal(bytes, j)
}

// Clone returns a shallow copy so callers cannot mutate stored metadata.
func (j JSONB) Clone() JSONB {
	if j == nil {
		return nil
	}
	out := make(JSONB, len(j))
	for k, v := range j {
		out[k] = v
	}
	return out
}

// Enums
type IPType string

const (
	IPTypePatent      IPType = "patent"
	IPTypeCopyright   IPType = "copyright"
	IPTypeTrademark   IPType = "trademark"
	IPTypeTradeSecret IPType = "trade_secret"
)

// IPTypes lists every kind in display order.
var IPTypes = []IPType{IPTypePatent, IPTypeCopyright, IPTypeTrademark, IPTypeTradeSecret}

func (t IPType) Valid() bool {
	for _, known := range IPTypes {
		if t == known {
			return true
		}
	}
	return false
}

type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusSold      ListingStatus = "sold"
	ListingStatusExpired   ListingStatus = "expired"
	ListingStatusCancelled ListingStatus = "cancelled"
)

// ListingKind separates the marketplace's fractional asks from the single
// lot the contract facade keeps per asset while it is for sale.
type ListingKind string

const (
	ListingKindBook ListingKind = "book"
	ListingKindSale ListingKind = "sale"
)

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing message. Key is an i18n key; the handler layer
// translates it for the caller's language.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Key     string      `json:"key"`
	Message string      `json:"message,omitempty"`
}
