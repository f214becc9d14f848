// Package notice decides which charges need a payment reminder, renders the reminder
// and sends it at most once per charge, kind, channel and day.
package notice

import (
	"errors"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/billing"
	"github.com/sonhodourado/secretaria/core/msgtemplate"
	"github.com/sonhodourado/secretaria/core/school"
)

type Kind string

// Kinds
const (
	KindFiveDay   Kind = "five_day"
	KindDueToday  Kind = "due_today"
	KindNewCharge Kind = "new_charge" // sent on charge creation only, never selected by date
)

// FiveDayOffset is how many days ahead of the due date the first reminder goes out.
const FiveDayOffset = 5

var templateNames = map[Kind]string{
	KindFiveDay:   "lembrete_5_dias",
	KindDueToday:  "vence_hoje",
	KindNewCharge: "nova_cobranca",
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := templateNames[k]; !ok {
		return "", ErrUnknownKind
	}
	return k, nil
}

// TemplateName is the name of the template configured for the kind, on any channel.
func (k Kind) TemplateName() string {
	return templateNames[k]
}

// Scheduled tells if the kind is selected by due date.
func (k Kind) Scheduled() bool {
	return k == KindFiveDay || k == KindDueToday
}

type Outcome string

// Outcomes
const (
	OutcomeSent                  Outcome = "sent"
	OutcomeAlreadySent           Outcome = "already_sent"
	OutcomeSkippedMissingContact Outcome = "skipped_missing_contact"
	OutcomeFailed                Outcome = "failed"
)

type Reason string

// Reasons
const (
	ReasonConfigurationMissing Reason = "ConfigurationMissing"
	ReasonInvalidRecipient     Reason = "InvalidRecipient"
	ReasonTransportFailure     Reason = "TransportFailure"
	ReasonStoreFailure         Reason = "StoreFailure"
)

var (
	ErrUnknownKind      = errors.New("unknown notice kind")
	ErrUnknownChannel   = errors.New("unknown notice channel")
	ErrNotScheduled     = errors.New("this notice kind is not sent in batches")
	ErrChargeNotPending = errors.New("charge is already paid")
	ErrOutsideWindow    = errors.New("charge is not due in this notice window")
)

// Due is a pending charge joined with its debtor's contact.
type Due struct {
	Charge  billing.Charge `json:"charge"`
	Contact school.Contact `json:"contact"`

	// contactErr is set when the contact lookup failed; dispatching the charge then fails.
	contactErr error
}

// DueSets are the charges to remind on a given day. A charge belongs to at most one set.
type DueSets struct {
	Today    core.Date `json:"today"`
	FiveDay  []Due     `json:"five_day"`
	DueToday []Due     `json:"due_today"`
}

// Of returns the set selected by a scheduled kind.
func (ds DueSets) Of(kind Kind) []Due {
	switch kind {
	case KindFiveDay:
		return ds.FiveDay
	case KindDueToday:
		return ds.DueToday
	}
	return nil
}

// SendRecord is one SendLog row: proof that a notice went out.
type SendRecord struct {
	ChargeID int64               `json:"charge_id"`
	Kind     Kind                `json:"kind"`
	Channel  msgtemplate.Channel `json:"channel"`
	SentOn   core.Date           `json:"sent_on"`
}

// Result is the outcome of one dispatch attempt.
type Result struct {
	ChargeID     int64               `json:"charge_id"`
	StudentName  string              `json:"student_name"`
	Kind         Kind                `json:"kind"`
	Channel      msgtemplate.Channel `json:"channel"`
	Outcome      Outcome             `json:"outcome"`
	Reason       Reason              `json:"reason,omitempty"`
	Detail       string              `json:"detail,omitempty"`
	Link         string              `json:"link,omitempty"`
	UsedFallback bool                `json:"used_fallback,omitempty"`
}

type BatchReport struct {
	Kind    Kind                `json:"kind"`
	Channel msgtemplate.Channel `json:"channel"`
	Date    core.Date           `json:"date"`
	Sent    int                 `json:"sent"`
	Skipped int                 `json:"skipped"`
	Failed  int                 `json:"failed"`
	Results []Result            `json:"results"`
}

func (r *BatchReport) add(res Result) {
	switch res.Outcome {
	case OutcomeSent:
		r.Sent++
	case OutcomeAlreadySent, OutcomeSkippedMissingContact:
		r.Skipped++
	default:
		r.Failed++
	}
	r.Results = append(r.Results, res)
}
