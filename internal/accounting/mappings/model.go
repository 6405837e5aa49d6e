package mappings

import (
	"time"

	"github.com/google/uuid"
)

// Role names a semantic ledger slot the posting rules write to.
type Role string

const (
	RoleCash                  Role = "cash"
	RoleBank                  Role = "bank"
	RoleReceivables           Role = "receivables"
	RoleInventory             Role = "inventory"
	RolePayables              Role = "payables"
	RoleTaxPayable            Role = "tax_payable"
	RoleTaxDeductible         Role = "tax_deductible"
	RoleRevenue               Role = "revenue"
	RoleCOGS                  Role = "cogs"
	RoleAdjustment            Role = "adjustment"
	RoleWithholdingReceivable Role = "withholding_receivable"
	RoleWithholdingPayable    Role = "withholding_payable"
	RolePayrollExpense        Role = "payroll_expense"
	RolePayrollPayable        Role = "payroll_payable"
)

// AllRoles lists every role in column order.
var AllRoles = []Role{
	RoleCash, RoleBank, RoleReceivables, RoleInventory, RolePayables,
	RoleTaxPayable, RoleTaxDeductible, RoleRevenue, RoleCOGS, RoleAdjustment,
	RoleWithholdingReceivable, RoleWithholdingPayable, RolePayrollExpense, RolePayrollPayable,
}

// MandatoryRoles must all be mapped for a config to count as configured.
var MandatoryRoles = []Role{RoleCash, RoleReceivables, RoleInventory, RolePayables, RoleRevenue, RoleCOGS}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) column() string {
	return string(r) + "_account_id"
}

// Config is the per-tenant role to account mapping.
type Config struct {
	TenantID            uuid.UUID          `json:"tenantId"`
	Accounts            map[Role]uuid.UUID `json:"accounts"`
	AutoGenerateEntries bool               `json:"autoGenerateEntries"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

// NewDefaultConfig builds the config written by tenant setup. Automatic posting starts disabled.
func NewDefaultConfig(tenantID uuid.UUID, roles map[Role]uuid.UUID) Config {
	accounts := make(map[Role]uuid.UUID, len(roles))
	for role, id := range roles {
		accounts[role] = id
	}
	return Config{TenantID: tenantID, Accounts: accounts}
}

// Account returns the account mapped to role.
func (c *Config) Account(role Role) (uuid.UUID, bool) {
	if c == nil {
		return uuid.Nil, false
	}
	id, ok := c.Accounts[role]
	return id, ok && id != uuid.Nil
}

// HasRoles reports whether every given role is mapped.
func (c *Config) HasRoles(roles ...Role) bool {
	for _, role := range roles {
		if _, ok := c.Account(role); !ok {
			return false
		}
	}
	return true
}

// IsConfigured is true when all mandatory roles are mapped.
func (c *Config) IsConfigured() bool {
	return c.HasRoles(MandatoryRoles...)
}

// ConfigUpdate carries a partial update. Roles absent from Accounts and Clear keep their mapping;
// roles in Clear are stored as NULL.
type ConfigUpdate struct {
	Accounts            map[Role]uuid.UUID `json:"accounts"`
	Clear               []Role             `json:"clear"`
	AutoGenerateEntries *bool              `json:"autoGenerateEntries"`
}

// ConfigResponse is the read object exposed over HTTP.
type ConfigResponse struct {
	TenantID            uuid.UUID          `json:"tenantId"`
	Accounts            map[Role]uuid.UUID `json:"accounts"`
	AutoGenerateEntries bool               `json:"autoGenerateEntries"`
	IsConfigured        bool               `json:"isConfigured"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

// Response renders the config read object.
func (c *Config) Response() ConfigResponse {
	return ConfigResponse{
		TenantID:            c.TenantID,
		Accounts:            c.Accounts,
		AutoGenerateEntries: c.AutoGenerateEntries,
		IsConfigured:        c.IsConfigured(),
		UpdatedAt:           c.UpdatedAt,
	}
}
