package accounts

import (
	"time"

	"github.com/google/uuid"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
	AccountTypeCOGS      AccountType = "COGS"
)

// Nature is the side on which an account balance increases.
type Nature string

const (
	NatureDebit  Nature = "DEBIT"
	NatureCredit Nature = "CREDIT"
)

// Account models a chart of accounts node.
type Account struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Code            string
	Name            string
	Type            AccountType
	Nature          Nature
	ParentID        *uuid.UUID
	Level           int
	IsSystemAccount bool
	IsBankAccount   bool
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SetupResult is returned once a tenant chart of accounts has been seeded.
type SetupResult struct {
	Message         string `json:"message"`
	AccountsCreated int    `json:"accountsCreated"`
}

// LevelForCode derives the hierarchy level from the PUC code length.
func LevelForCode(code string) int {
	switch n := len(code); {
	case n <= 1:
		return 1
	case n == 2:
		return 2
	case n <= 4:
		return 3
	default:
		return 4
	}
}
