package shared

import (
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var supportedLanguages = []language.Tag{language.English, language.Spanish}

var languageMatcher = language.NewMatcher(supportedLanguages)

func init() {
	es := language.Spanish
	for key, msg := range map[string]string{
		"journal lines must balance":                      "el asiento no está balanceado",
		"journal requires at least two lines":             "el asiento requiere al menos dos líneas",
		"each line must carry either a debit or a credit": "cada línea debe tener un débito o un crédito",
		"invalid input":                                   "datos inválidos",
		"period end date must be after start date":        "la fecha final del periodo debe ser posterior a la inicial",
		"accounts missing, inactive or outside tenant":    "hay cuentas inexistentes, inactivas o de otra empresa",
		"journal entry not found":                         "comprobante contable no encontrado",
		"accounting period not found":                     "periodo contable no encontrado",
		"account not found":                               "cuenta no encontrada",
		"chart of accounts already configured":            "el plan de cuentas ya está configurado",
		"period already closed":                           "el periodo ya está cerrado",
		"journal entry already voided":                    "el comprobante ya está anulado",
		"period overlaps existing range":                  "el periodo se cruza con otro existente",
		"source already linked":                           "el documento origen ya tiene comprobante",
		"period is closed":                                "el periodo está cerrado",
		"invalid status transition":                       "cambio de estado no permitido",
		"period has draft entries":                        "el periodo tiene comprobantes en borrador",
		"journal lines must balance: debit %v, credit %v": "el asiento no está balanceado: débito %v, crédito %v",
		"auto entry out of balance: debit %v, credit %v":  "asiento automático descuadrado: débito %v, crédito %v",
		"line %d must carry either a debit or a credit":   "la línea %d debe tener un débito o un crédito",
		"period overlaps %q (%s to %s)":                   "el periodo se cruza con %q (%s a %s)",
		"period has %d draft entries":                     "el periodo tiene %d comprobantes en borrador",
	} {
		_ = message.SetString(es, key, msg)
	}
}

// MatchLanguage picks the best supported language for an Accept-Language header.
func MatchLanguage(acceptLanguage string) language.Tag {
	tags, _, _ := language.ParseAcceptLanguage(acceptLanguage)
	_, idx, _ := languageMatcher.Match(tags...)
	return supportedLanguages[idx]
}

// Localize renders a user-facing message for err in the requested language.
// Foreign errors yield an empty string so callers can fall back to a generic text.
func Localize(err error, tag language.Tag) string {
	p := message.NewPrinter(tag)
	var (
		unbalanced *UnbalancedError
		badLine    *InvalidLineError
		overlap    *OverlapError
		drafts     *DraftEntriesError
		base       *ledgerError
	)
	switch {
	case errors.As(err, &unbalanced):
		key := "journal lines must balance: debit %v, credit %v"
		if unbalanced.Auto {
			key = "auto entry out of balance: debit %v, credit %v"
		}
		return p.Sprintf(key,
			number.Decimal(unbalanced.TotalDebit.InexactFloat64(), number.Scale(2)),
			number.Decimal(unbalanced.TotalCredit.InexactFloat64(), number.Scale(2)))
	case errors.As(err, &badLine):
		return p.Sprintf("line %d must carry either a debit or a credit", badLine.Index+1)
	case errors.As(err, &overlap):
		return p.Sprintf("period overlaps %q (%s to %s)", overlap.Name, overlap.StartDate.Format("2006-01-02"), overlap.EndDate.Format("2006-01-02"))
	case errors.As(err, &drafts):
		return p.Sprintf("period has %d draft entries", drafts.Count)
	case errors.As(err, &base):
		return p.Sprintf(base.key)
	}
	return ""
}
