package models

import (
	"time"
)

// AccountType identifies the kind of account a user holds. The local
// ledger types are plain wallet records; the rideshare types (uber,
// lyft) are linked to an external provider account via OAuth.
type AccountType string

const (
	AccountTypeSavings    AccountType = "savings"
	AccountTypeChecking   AccountType = "checking"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeWallet     AccountType = "wallet"
	AccountTypeUber       AccountType = "uber"
	AccountTypeLyft       AccountType = "lyft"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeSavings, AccountTypeChecking, AccountTypeCredit,
		AccountTypeInvestment, AccountTypeWallet,
		AccountTypeUber, AccountTypeLyft:
		return true
	}
	return false
}

// IsRideshare reports whether t is backed by an external rideshare
// provider linkage.
func (t AccountType) IsRideshare() bool {
	return t == AccountTypeUber || t == AccountTypeLyft
}

// Account represents a user account. For rideshare types it doubles as
// the provider linkage record: Token holds the provider-issued bearer
// credential and IsActive tracks the connection status.
//
// Invariant: IsActive is true iff Token is non-empty. Both fields are
// mutated only by the connect/disconnect flow, as a single
// read-modify-write.
type Account struct {
	ID     string      `gorm:"primaryKey"          json:"id"`
	UserID string      `gorm:"not null;index"      json:"user_id"`
	Type   AccountType `gorm:"not null;default:'wallet'" json:"type"`

	Balance float64 `gorm:"default:0" json:"balance"`

	// Provider linkage state (rideshare types only)
	Token    string `gorm:"type:text" json:"-"`
	IsActive bool   `json:"is_active"`

	Description string    `json:"description"`
	LastUpdated time.Time `json:"last_updated"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name used by Account to `accounts`
func (Account) TableName() string {
	return "accounts"
}

// Connected reports whether the account currently holds a live
// provider token.
func (a *Account) Connected() bool {
	return a.IsActive && a.Token != ""
}
