package models

import "time"

// BankConnection is one linked institution at the bank-aggregation
// provider. The access token is an opaque credential handle; the cursor
// is a resumable sync position that only ever advances.
type BankConnection struct {
	ID               string    `json:"id" yaml:"id"`
	InstitutionName  string    `json:"institution_name" yaml:"institution_name"`
	AccessToken      string    `json:"access_token" yaml:"access_token"`
	Cursor           string    `json:"cursor,omitempty" yaml:"cursor,omitempty"`
	ExcludedAccounts []string  `json:"excluded_accounts,omitempty" yaml:"excluded_accounts,omitempty"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
	LastSyncedAt     time.Time `json:"last_synced_at,omitempty" yaml:"last_synced_at,omitempty"`
}

// IsExcluded reports whether an upstream account is intentionally
// omitted from aggregation.
func (c BankConnection) IsExcluded(accountID string) bool {
	for _, id := range c.ExcludedAccounts {
		if id == accountID {
			return true
		}
	}
	return false
}
