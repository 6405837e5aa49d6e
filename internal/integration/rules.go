package integration

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

var (
	// WithholdingThreshold is the purchase subtotal above which withholding applies.
	WithholdingThreshold = decimal.NewFromInt(523740)
	// WithholdingRate is applied to the purchase subtotal.
	WithholdingRate = decimal.New(25, -3)
)

// RoleLine is a derived line addressed by role; accounts are resolved from the tenant config.
type RoleLine struct {
	Role        mappings.Role
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Posting is the pure outcome of a posting rule. No lines means nothing to post.
type Posting struct {
	Source      journals.Source
	SourceRef   uuid.UUID
	Date        time.Time
	Description string
	Refs        journals.DocumentRefs
	Lines       []RoleLine
}

// Roles returns the distinct roles addressed by the posting, in line order.
func (p Posting) Roles() []mappings.Role {
	seen := make(map[mappings.Role]bool, len(p.Lines))
	roles := make([]mappings.Role, 0, len(p.Lines))
	for _, line := range p.Lines {
		if seen[line.Role] {
			continue
		}
		seen[line.Role] = true
		roles = append(roles, line.Role)
	}
	return roles
}

// Resolve maps each role line to the configured account. It returns the unmapped roles when any is missing.
func (p Posting) Resolve(cfg *mappings.Config) ([]journals.LineInput, []mappings.Role) {
	var missing []mappings.Role
	for _, role := range p.Roles() {
		if _, ok := cfg.Account(role); !ok {
			missing = append(missing, role)
		}
	}
	if len(missing) > 0 {
		return nil, missing
	}
	lines := make([]journals.LineInput, 0, len(p.Lines))
	for _, line := range p.Lines {
		accountID, _ := cfg.Account(line.Role)
		lines = append(lines, journals.LineInput{
			AccountID:   accountID,
			Description: line.Description,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}
	return lines, nil
}

func debit(role mappings.Role, amount decimal.Decimal, memo string) RoleLine {
	return RoleLine{Role: role, Debit: amount, Description: memo}
}

func credit(role mappings.Role, amount decimal.Decimal, memo string) RoleLine {
	return RoleLine{Role: role, Credit: amount, Description: memo}
}

// Withholding returns the purchase withholding for subtotal, rounded to units.
func Withholding(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.GreaterThan(WithholdingThreshold) {
		return decimal.Zero
	}
	return shared.RoundUnit(subtotal.Mul(WithholdingRate))
}

// itemsCost sums quantity times unit cost over items with a known cost.
func itemsCost(items []ItemLine) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.UnitCost == nil {
			continue
		}
		total = total.Add(item.Quantity.Abs().Mul(*item.UnitCost))
	}
	return shared.Round2(total)
}

// DeriveInvoiceCreated books the sale and, when costs are known, the cost of goods sold.
func DeriveInvoiceCreated(evt InvoiceEvent) Posting {
	memo := fmt.Sprintf("Factura de venta %s", evt.Number)
	collect := mappings.RoleReceivables
	if evt.IsPosImmediate {
		collect = mappings.RoleCash
	}
	lines := []RoleLine{
		debit(collect, shared.Round2(evt.Total), memo),
		credit(mappings.RoleRevenue, shared.Round2(evt.Subtotal), memo),
	}
	if tax := shared.RoundUnit(evt.Tax); tax.IsPositive() {
		lines = append(lines, credit(mappings.RoleTaxPayable, tax, memo))
	}
	if cost := itemsCost(evt.Items); cost.IsPositive() {
		lines = append(lines,
			debit(mappings.RoleCOGS, cost, "Costo de venta "+evt.Number),
			credit(mappings.RoleInventory, cost, "Costo de venta "+evt.Number),
		)
	}
	id := evt.InvoiceID
	return Posting{
		Source:      journals.SourceInvoiceSale,
		SourceRef:   sourceRef(KindInvoiceCreated, id),
		Date:        evt.Date,
		Description: memo,
		Refs:        journals.DocumentRefs{InvoiceID: &id},
		Lines:       lines,
	}
}

// DeriveInvoiceCancelled reverses receivable and revenue only. Tax is left untouched,
// so an invoice with tax yields an unbalanced posting that the ledger rejects.
func DeriveInvoiceCancelled(evt InvoiceEvent) Posting {
	memo := fmt.Sprintf("Anulación factura %s", evt.Number)
	id := evt.InvoiceID
	return Posting{
		Source:      journals.SourceInvoiceCancel,
		SourceRef:   sourceRef(KindInvoiceCancelled, id),
		Date:        evt.Date,
		Description: memo,
		Refs:        journals.DocumentRefs{InvoiceID: &id},
		Lines: []RoleLine{
			credit(mappings.RoleReceivables, shared.Round2(evt.Total), memo),
			debit(mappings.RoleRevenue, shared.Round2(evt.Subtotal), memo),
		},
	}
}

// DerivePaymentReceived moves the amount from receivables into cash or bank.
func DerivePaymentReceived(evt PaymentEvent) Posting {
	memo := "Pago recibido"
	target := mappings.RoleBank
	if evt.Method == PaymentCash {
		target = mappings.RoleCash
	}
	amount := shared.Round2(evt.Amount)
	id := evt.PaymentID
	return Posting{
		Source:      journals.SourcePayment,
		SourceRef:   sourceRef(KindPaymentReceived, id),
		Date:        evt.Date,
		Description: memo,
		Refs:        journals.DocumentRefs{PaymentID: &id, InvoiceID: evt.InvoiceID},
		Lines: []RoleLine{
			debit(target, amount, memo),
			credit(mappings.RoleReceivables, amount, memo),
		},
	}
}

// DerivePurchaseReceived books inventory against payables, net of withholding.
func DerivePurchaseReceived(evt PurchaseEvent) Posting {
	memo := fmt.Sprintf("Compra %s", evt.Number)
	withholding := Withholding(evt.Subtotal)
	lines := []RoleLine{debit(mappings.RoleInventory, shared.Round2(evt.Subtotal), memo)}
	if tax := shared.RoundUnit(evt.Tax); tax.IsPositive() {
		lines = append(lines, debit(mappings.RoleTaxDeductible, tax, memo))
	}
	lines = append(lines, credit(mappings.RolePayables, shared.Round2(evt.Total).Sub(withholding), memo))
	if withholding.IsPositive() {
		lines = append(lines, credit(mappings.RoleWithholdingPayable, withholding, "Retención en la fuente "+evt.Number))
	}
	id := evt.PurchaseOrderID
	return Posting{
		Source:      journals.SourcePurchase,
		SourceRef:   sourceRef(KindPurchaseReceived, id),
		Date:        evt.Date,
		Description: memo,
		Refs:        journals.DocumentRefs{PurchaseOrderID: &id},
		Lines:       lines,
	}
}

// DeriveStockAdjustment books the value of a stock correction. Zero quantity or cost yields no lines.
func DeriveStockAdjustment(evt StockAdjustmentEvent) Posting {
	memo := "Ajuste de inventario"
	if evt.Reason != "" {
		memo += ": " + evt.Reason
	}
	id := evt.StockMovementID
	posting := Posting{
		Source:      journals.SourceStockAdjustment,
		SourceRef:   sourceRef(KindStockAdjusted, id),
		Date:        evt.Date,
		Description: memo,
		Refs:        journals.DocumentRefs{StockMovementID: &id},
	}
	if evt.Quantity.IsZero() || evt.CostPrice.IsZero() {
		return posting
	}
	value := shared.Round2(evt.Quantity.Abs().Mul(evt.CostPrice))
	if evt.Quantity.IsPositive() {
		posting.Lines = []RoleLine{
			debit(mappings.RoleInventory, value, memo),
			credit(mappings.RoleAdjustment, value, memo),
		}
	} else {
		posting.Lines = []RoleLine{
			debit(mappings.RoleAdjustment, value, memo),
			credit(mappings.RoleInventory, value, memo),
		}
	}
	return posting
}

// DeriveCreditNote reverses the sale. A partial return also puts the goods back into inventory.
func DeriveCreditNote(evt NoteEvent) Posting {
	memo := fmt.Sprintf("Nota crédito %s", evt.Number)
	lines := []RoleLine{
		credit(mappings.RoleReceivables, shared.Round2(evt.Total), memo),
		debit(mappings.RoleRevenue, shared.Round2(evt.Subtotal), memo),
	}
	if tax := shared.RoundUnit(evt.Tax); tax.IsPositive() {
		lines = append(lines, debit(mappings.RoleTaxPayable, tax, memo))
	}
	if evt.ReasonCode == partialReturnReason {
		if cost := itemsCost(evt.Items); cost.IsPositive() {
			lines = append(lines,
				debit(mappings.RoleInventory, cost, "Devolución "+evt.Number),
				credit(mappings.RoleCOGS, cost, "Devolución "+evt.Number),
			)
		}
	}
	id := evt.DocumentID
	return Posting{
		Source:      journals.SourceCreditNote,
		SourceRef:   sourceRef(KindCreditNote, id),
		Date:        evt.Date,
		Description: memo,
		Refs:        journals.DocumentRefs{DianDocumentID: &id, InvoiceID: evt.InvoiceID},
		Lines:       lines,
	}
}

// DeriveDebitNote increases the receivable for an extra charge on an invoice.
func DeriveDebitNote(evt NoteEvent) Posting {
	memo := fmt.Sprintf("Nota débito %s", evt.Number)
	lines := []RoleLine{
		debit(mappings.RoleReceivables, shared.Round2(evt.Total), memo),
		credit(mappings.RoleRevenue, shared.Round2(evt.Subtotal), memo),
	}
	if tax := shared.RoundUnit(evt.Tax); tax.IsPositive() {
		lines = append(lines, credit(mappings.RoleTaxPayable, tax, memo))
	}
	id := evt.DocumentID
	return Posting{
		Source:      journals.SourceDebitNote,
		SourceRef:   sourceRef(KindDebitNote, id),
		Date:        evt.Date,
		Description: memo,
		Refs:        journals.DocumentRefs{DianDocumentID: &id, InvoiceID: evt.InvoiceID},
		Lines:       lines,
	}
}
