package accounts

import "github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"

type seedAccount struct {
	Code   string
	Name   string
	Type   AccountType
	Nature Nature
	Bank   bool
	Role   mappings.Role
}

// pucSeed is the default chart. Every parent precedes its children.
var pucSeed = []seedAccount{
	{Code: "1", Name: "Activo", Type: AccountTypeAsset, Nature: NatureDebit},
	{Code: "11", Name: "Disponible", Type: AccountTypeAsset, Nature: NatureDebit},
	{Code: "1105", Name: "Caja", Type: AccountTypeAsset, Nature: NatureDebit},
	{Code: "110505", Name: "Caja general", Type: AccountTypeAsset, Nature: NatureDebit, Role: mappings.RoleCash},
	{Code: "1110", Name: "Bancos", Type: AccountTypeAsset, Nature: NatureDebit},
	{Code: "111005", Name: "Bancos moneda nacional", Type: AccountTypeAsset, Nature: NatureDebit, Bank: true, Role: mappings.RoleBank},
	{Code: "13", Name: "Deudores", Type: AccountTypeAsset, Nature: NatureDebit},
	{Code: "1305", Name: "Clientes", Type: AccountTypeAsset, Nature: NatureDebit},
	{Code: "130505", Name: "Clientes nacionales", Type: AccountTypeAsset, Nature: NatureDebit, Role: mappings.RoleReceivables},
	{Code: "1355", Name: "Anticipo de impuestos y contribuciones", Type: AccountTypeAsset, Nature: NatureDebit},
	{Code: "135515", Name: "Retención en la fuente", Type: AccountTypeAsset, Nature: NatureDebit, Role: mappings.RoleWithholdingReceivable},
	{Code: "14", Name: "Inventarios", Type: AccountTypeAsset, Nature: NatureDebit},
	{Code: "1435", Name: "Mercancías no fabricadas por la empresa", Type: AccountTypeAsset, Nature: NatureDebit},
	{Code: "143505", Name: "Mercancías", Type: AccountTypeAsset, Nature: NatureDebit, Role: mappings.RoleInventory},

	{Code: "2", Name: "Pasivo", Type: AccountTypeLiability, Nature: NatureCredit},
	{Code: "22", Name: "Proveedores", Type: AccountTypeLiability, Nature: NatureCredit},
	{Code: "2205", Name: "Proveedores nacionales", Type: AccountTypeLiability, Nature: NatureCredit},
	{Code: "220505", Name: "Proveedores nacionales", Type: AccountTypeLiability, Nature: NatureCredit, Role: mappings.RolePayables},
	{Code: "23", Name: "Cuentas por pagar", Type: AccountTypeLiability, Nature: NatureCredit},
	{Code: "2365", Name: "Retención en la fuente", Type: AccountTypeLiability, Nature: NatureCredit},
	{Code: "236540", Name: "Retención en la fuente por compras", Type: AccountTypeLiability, Nature: NatureCredit, Role: mappings.RoleWithholdingPayable},
	{Code: "24", Name: "Impuestos, gravámenes y tasas", Type: AccountTypeLiability, Nature: NatureCredit},
	{Code: "2408", Name: "Impuesto sobre las ventas por pagar", Type: AccountTypeLiability, Nature: NatureCredit},
	{Code: "240805", Name: "IVA generado", Type: AccountTypeLiability, Nature: NatureCredit, Role: mappings.RoleTaxPayable},
	{Code: "240810", Name: "IVA descontable", Type: AccountTypeLiability, Nature: NatureDebit, Role: mappings.RoleTaxDeductible},
	{Code: "25", Name: "Obligaciones laborales", Type: AccountTypeLiability, Nature: NatureCredit},
	{Code: "2505", Name: "Salarios por pagar", Type: AccountTypeLiability, Nature: NatureCredit},
	{Code: "250505", Name: "Salarios por pagar", Type: AccountTypeLiability, Nature: NatureCredit, Role: mappings.RolePayrollPayable},

	{Code: "3", Name: "Patrimonio", Type: AccountTypeEquity, Nature: NatureCredit},
	{Code: "31", Name: "Capital social", Type: AccountTypeEquity, Nature: NatureCredit},
	{Code: "3105", Name: "Capital suscrito y pagado", Type: AccountTypeEquity, Nature: NatureCredit},
	{Code: "310505", Name: "Capital autorizado", Type: AccountTypeEquity, Nature: NatureCredit},
	{Code: "36", Name: "Resultados del ejercicio", Type: AccountTypeEquity, Nature: NatureCredit},
	{Code: "3605", Name: "Utilidad del ejercicio", Type: AccountTypeEquity, Nature: NatureCredit},
	{Code: "3610", Name: "Pérdida del ejercicio", Type: AccountTypeEquity, Nature: NatureDebit},

	{Code: "4", Name: "Ingresos", Type: AccountTypeRevenue, Nature: NatureCredit},
	{Code: "41", Name: "Operacionales", Type: AccountTypeRevenue, Nature: NatureCredit},
	{Code: "4135", Name: "Comercio al por mayor y al por menor", Type: AccountTypeRevenue, Nature: NatureCredit},
	{Code: "413505", Name: "Venta de mercancías", Type: AccountTypeRevenue, Nature: NatureCredit, Role: mappings.RoleRevenue},
	{Code: "42", Name: "No operacionales", Type: AccountTypeRevenue, Nature: NatureCredit},
	{Code: "4295", Name: "Diversos", Type: AccountTypeRevenue, Nature: NatureCredit},
	{Code: "429505", Name: "Sobrantes de inventario", Type: AccountTypeRevenue, Nature: NatureCredit},

	{Code: "5", Name: "Gastos", Type: AccountTypeExpense, Nature: NatureDebit},
	{Code: "51", Name: "Operacionales de administración", Type: AccountTypeExpense, Nature: NatureDebit},
	{Code: "5105", Name: "Gastos de personal", Type: AccountTypeExpense, Nature: NatureDebit},
	{Code: "510506", Name: "Sueldos", Type: AccountTypeExpense, Nature: NatureDebit, Role: mappings.RolePayrollExpense},
	{Code: "53", Name: "No operacionales", Type: AccountTypeExpense, Nature: NatureDebit},
	{Code: "5395", Name: "Gastos diversos", Type: AccountTypeExpense, Nature: NatureDebit},
	{Code: "539520", Name: "Ajustes de inventario", Type: AccountTypeExpense, Nature: NatureDebit, Role: mappings.RoleAdjustment},

	{Code: "6", Name: "Costo de ventas", Type: AccountTypeCOGS, Nature: NatureDebit},
	{Code: "61", Name: "Costo de ventas y de prestación de servicios", Type: AccountTypeCOGS, Nature: NatureDebit},
	{Code: "6135", Name: "Comercio al por mayor y al por menor", Type: AccountTypeCOGS, Nature: NatureDebit},
	{Code: "613505", Name: "Costo de mercancías vendidas", Type: AccountTypeCOGS, Nature: NatureDebit, Role: mappings.RoleCOGS},
}

// parentCode returns the longest proper prefix of code already present in known.
func parentCode(code string, known map[string]bool) (string, bool) {
	for n := len(code) - 1; n > 0; n-- {
		if known[code[:n]] {
			return code[:n], true
		}
	}
	return "", false
}
