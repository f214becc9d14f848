package notice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/billing"
	"github.com/sonhodourado/secretaria/core/school"
)

func TestRender(t *testing.T) {
	ctx := map[string]string{"aluno": "Ana", "valor": "350.00"}

	assert.Equal(t, "Olá Ana, R$ 350.00", Render("Olá {aluno}, R$ {valor}", ctx))
	assert.Equal(t, "Ana e Ana", Render("{aluno} e {aluno}", ctx))
	assert.Equal(t, "{curso} {aluno", Render("{curso} {aluno", ctx), "unknown or unclosed tokens stay")
	assert.Equal(t, "sem chaves", Render("sem chaves", nil))
	assert.Equal(t, "", Render("", ctx))
}

func TestRender_valuesAreNotExpanded(t *testing.T) {
	ctx := map[string]string{"aluno": "{valor}", "valor": "10.00"}
	assert.Equal(t, "{valor} 10.00", Render("{aluno} {valor}", ctx))
	// same input, same output
	assert.Equal(t, Render("{aluno} {valor}", ctx), Render("{aluno} {valor}", ctx))
}

func TestRenderContext(t *testing.T) {
	charge := billing.Charge{
		StudentName: "Ana Souza",
		Description: "Mensalidade Março",
		Amount:      decimal.RequireFromString("1200"),
		DueDate:     core.NewDate(2024, time.March, 5),
	}

	ctx := RenderContext(charge, school.Contact{ResponsibleName: "Maria"})
	assert.Equal(t, map[string]string{
		KeyStudent:     "Ana Souza",
		KeyResponsible: "Maria",
		KeyDescription: "Mensalidade Março",
		KeyAmount:      "1200.00",
		KeyDueDate:     "05/03/2024",
	}, ctx)

	ctx = RenderContext(charge, school.Contact{StudentName: "Ana S."})
	assert.Equal(t, "Ana S.", ctx[KeyStudent])
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"(11) 98888-7777":     "5511988887777",
		"+55 11 98888-7777":   "5511988887777",
		"5511988887777":       "5511988887777",
		"":                    "",
		"sem telefone":        "",
		" 21 3333 4444 ramal": "552133334444",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePhone(in, "55"), in)
	}
}
