package notice

import "github.com/sonhodourado/secretaria/core/msgtemplate"

type fallback struct {
	subject   string
	email     string
	messaging string
}

// Built-in messages used when no template is configured for a kind and channel.
var fallbacks = map[Kind]fallback{
	KindFiveDay: {
		subject: "Lembrete de Vencimento",
		email: "Olá!\n\n" +
			"A cobrança de {aluno} vence em 5 dias ({vencimento}).\n\n" +
			"Descrição: {descricao}\n" +
			"Valor: R$ {valor}\n\n" +
			"Atenciosamente,\nSecretaria",
		messaging: "Olá! A mensalidade de {aluno} vence em 5 dias. Valor: R$ {valor}",
	},
	KindDueToday: {
		subject: "Fatura Vence Hoje!",
		email: "Olá!\n\n" +
			"A cobrança de {aluno} VENCE HOJE!\n\n" +
			"Descrição: {descricao}\n" +
			"Valor: R$ {valor}\n\n" +
			"Atenciosamente,\nSecretaria",
		messaging: "🚨 Atenção! A mensalidade de {aluno} vence HOJE. Valor: R$ {valor}",
	},
	KindNewCharge: {
		subject: "Aviso de Cobrança",
		email: "Olá!\n\n" +
			"Nova cobrança para {aluno}.\n\n" +
			"Descrição: {descricao}\n" +
			"Valor: R$ {valor}\n" +
			"Vencimento: {vencimento}\n\n" +
			"Atenciosamente,\nSecretaria",
		messaging: "Olá! Nova cobrança para {aluno}.\n\n" +
			"Descrição: {descricao}\n" +
			"Valor: R$ {valor}\n" +
			"Vencimento: {vencimento}",
	},
}

// fallbackTemplate returns the built-in template of a kind for a channel.
func fallbackTemplate(kind Kind, channel msgtemplate.Channel) msgtemplate.Template {
	fb := fallbacks[kind]
	tmpl := msgtemplate.Template{Name: kind.TemplateName(), Channel: channel}
	if channel == msgtemplate.ChannelEmail {
		tmpl.Subject = fb.subject
		tmpl.Body = fb.email
	} else {
		tmpl.Body = fb.messaging
	}
	return tmpl
}
