// internal/models/contract.go
package models

// ContractSnapshot is the per-asset contract read model. It is recomputed on
// every fetch and never stored.
type ContractSnapshot struct {
	Metadata          string   `json:"metadata"`
	RoyaltyPercentage float64  `json:"royaltyPercentage"`
	Owner             string   `json:"owner"`
	SalePrice         *float64 `json:"salePrice"`
}

// TxResult is what every mutating contract call reports back to the UI.
type TxResult struct {
	Success     bool     `json:"success"`
	TxID        string   `json:"txId,omitempty"`
	RoyaltyPaid *float64 `json:"royaltyPaid,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// WalletState mirrors the wallet hook the UI consumes.
type WalletState struct {
	Connected bool    `json:"connected"`
	Address   *string `json:"address"`
	Loading   bool    `json:"loading"`
	Error     *string `json:"error"`
}

// WalletProvider describes a selectable wallet provider.
type WalletProvider struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
