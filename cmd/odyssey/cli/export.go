package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

const journalSheet = "Libro diario"

var journalHeaders = []any{"Fecha", "Comprobante", "Origen", "Estado", "Descripción", "Cuenta", "Nombre", "Débito", "Crédito"}

// JournalReader is the read side of the journal service used by exports.
type JournalReader interface {
	List(ctx context.Context, tenantID uuid.UUID, filter journals.ListFilter) ([]journals.Entry, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (journals.Entry, error)
}

// LoadJournal pages through every non-voided entry in [from, to] and loads its lines.
func LoadJournal(ctx context.Context, reader JournalReader, tenantID uuid.UUID, from, to time.Time) ([]journals.Entry, error) {
	var out []journals.Entry
	page := internalShared.NewPage(500, 0)
	for {
		batch, err := reader.List(ctx, tenantID, journals.ListFilter{From: &from, To: &to, Page: page})
		if err != nil {
			return nil, err
		}
		for _, entry := range batch {
			if entry.Status == journals.StatusVoided {
				continue
			}
			full, err := reader.Get(ctx, tenantID, entry.ID)
			if err != nil {
				return nil, err
			}
			out = append(out, full)
		}
		if len(batch) < page.Limit {
			return out, nil
		}
		page.Offset += page.Limit
	}
}

// WriteJournalBook renders entries as a journal book workbook, one row per line plus a totals row.
func WriteJournalBook(w io.Writer, entries []journals.Entry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", journalSheet); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(journalSheet, "A1", &journalHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(journalSheet, "A1", "I1", headerStyle); err != nil {
		return err
	}

	row := 2
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, entry := range entries {
		for _, line := range entry.Lines {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []any{
				entry.Date.Format("2006-01-02"),
				entry.EntryNumber,
				string(entry.Source),
				string(entry.Status),
				lineDescription(entry, line),
				line.AccountCode,
				line.AccountName,
				line.Debit.InexactFloat64(),
				line.Credit.InexactFloat64(),
			}
			if err := f.SetSheetRow(journalSheet, cell, &values); err != nil {
				return err
			}
			totalDebit = totalDebit.Add(line.Debit)
			totalCredit = totalCredit.Add(line.Credit)
			row++
		}
	}

	totals := []any{"Totales", "", "", "", "", "", "", totalDebit.InexactFloat64(), totalCredit.InexactFloat64()}
	if err := f.SetSheetRow(journalSheet, fmt.Sprintf("A%d", row), &totals); err != nil {
		return err
	}
	if err := f.SetCellStyle(journalSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("I%d", row), headerStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(journalSheet, "H2", fmt.Sprintf("I%d", row), amountStyle); err != nil {
		return err
	}
	for col, width := range map[string]float64{"A": 12, "B": 14, "C": 18, "E": 40, "F": 10, "G": 32, "H": 16, "I": 16} {
		if err := f.SetColWidth(journalSheet, col, col, width); err != nil {
			return err
		}
	}
	if err := f.SetPanes(journalSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	return f.Write(w)
}

func lineDescription(entry journals.Entry, line journals.Line) string {
	if line.Description != "" {
		return line.Description
	}
	return entry.Description
}
