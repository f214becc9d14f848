package notice

import (
	"sort"
	"strings"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/billing"
	"github.com/sonhodourado/secretaria/core/school"
)

// Placeholder keys
const (
	KeyStudent     = "aluno"
	KeyResponsible = "responsavel"
	KeyDescription = "descricao"
	KeyAmount      = "valor"
	KeyDueDate     = "vencimento"
)

const dueDateLayout = "02/01/2006"

// Render replaces every `{key}` of text whose key is in ctx. Other braces are left as they are,
// and substituted values are never expanded again.
func Render(text string, ctx map[string]string) string {
	if len(ctx) == 0 {
		return text
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", ctx[k])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// RenderContext builds the placeholder values of a charge.
func RenderContext(charge billing.Charge, contact school.Contact) map[string]string {
	name := contact.StudentName
	if name == "" {
		name = charge.StudentName
	}
	return map[string]string{
		KeyStudent:     name,
		KeyResponsible: contact.ResponsibleName,
		KeyDescription: charge.Description,
		KeyAmount:      core.FormatMoney(charge.Amount),
		KeyDueDate:     charge.DueDate.Format(dueDateLayout),
	}
}

// NormalizePhone keeps the digits of phone and makes sure they start with countryCode.
// An empty result means the phone cannot be messaged.
func NormalizePhone(phone, countryCode string) string {
	digits := core.DigitsOnly(phone)
	if digits == "" {
		return ""
	}
	if !strings.HasPrefix(digits, countryCode) {
		digits = countryCode + digits
	}
	return digits
}
