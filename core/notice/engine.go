package notice

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/billing"
	"github.com/sonhodourado/secretaria/core/msgtemplate"
	"github.com/sonhodourado/secretaria/core/school"
)

type (
	ChargeSource interface {
		Get(ctx context.Context, id int64) (billing.Charge, error)
		ListPendingDueOn(ctx context.Context, date core.Date) ([]billing.Charge, error)
	}

	ContactSource interface {
		// GetContact returns school.ErrNotFound for unknown students.
		GetContact(ctx context.Context, studentID int64) (school.Contact, error)
	}

	TemplateSource interface {
		// Get returns msgtemplate.ErrNotFound when no template is configured.
		Get(ctx context.Context, channel msgtemplate.Channel, name string) (msgtemplate.Template, error)
	}

	// SendLog is the dedup guard. Recording the same row twice must not fail.
	SendLog interface {
		HasSent(ctx context.Context, chargeID int64, kind Kind, channel msgtemplate.Channel, on core.Date) (bool, error)
		RecordSent(ctx context.Context, rec SendRecord) error
	}

	// LinkBuilder turns a normalized phone and a text into a messaging deep link.
	LinkBuilder interface {
		BuildLink(phone, text string) string
	}

	Recorder interface {
		ObserveOutcome(kind Kind, channel msgtemplate.Channel, outcome Outcome)
	}

	Options struct {
		Charges     ChargeSource
		Contacts    ContactSource
		Templates   TemplateSource
		Log         SendLog
		Mailer      core.EmailService
		Links       LinkBuilder
		Recorder    Recorder    // optional
		Logger      core.Logger // optional
		Location    *time.Location
		CountryCode string
		Now         func() time.Time
	}

	Engine struct {
		opts Options
	}
)

func NewEngine(opts Options) *Engine {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.CountryCode == "" {
		opts.CountryCode = "55"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{opts: opts}
}

// Today is the current calendar day in the engine's location.
func (e *Engine) Today() core.Date {
	return core.DateOf(e.opts.Now().In(e.opts.Location))
}

// DueSets selects the charges to remind today.
func (e *Engine) DueSets(ctx context.Context) (DueSets, error) {
	return e.DueSetsOn(ctx, e.Today())
}

// DueSetsOn selects the pending charges due exactly `today`+5 and exactly `today`.
// Charges whose window was missed are never picked up again.
func (e *Engine) DueSetsOn(ctx context.Context, today core.Date) (DueSets, error) {
	fiveDay, err := e.selectDue(ctx, today.AddDays(FiveDayOffset))
	if err != nil {
		return DueSets{}, errors.Wrap(err, "selecting five day charges")
	}
	dueToday, err := e.selectDue(ctx, today)
	if err != nil {
		return DueSets{}, errors.Wrap(err, "selecting charges due today")
	}
	return DueSets{Today: today, FiveDay: fiveDay, DueToday: dueToday}, nil
}

func (e *Engine) selectDue(ctx context.Context, date core.Date) ([]Due, error) {
	charges, err := e.opts.Charges.ListPendingDueOn(ctx, date)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(charges))
	dues := make([]Due, 0, len(charges))
	for _, c := range charges {
		if !c.IsPending() || !c.DueDate.Equal(date) || seen[c.ID] {
			continue
		}
		seen[c.ID] = true

		contact, err := e.contactOf(ctx, c)
		if err != nil {
			e.errorf(err, "charge %d stays in the due set without a contact", c.ID)
			contact = school.Contact{StudentID: c.StudentID, StudentName: c.StudentName}
		}
		dues = append(dues, Due{Charge: c, Contact: contact, contactErr: err})
	}
	sort.SliceStable(dues, func(i, j int) bool {
		return dues[i].Contact.StudentName < dues[j].Contact.StudentName
	})
	return dues, nil
}

// contactOf returns an empty contact for unknown students so the dispatch reports it as missing.
func (e *Engine) contactOf(ctx context.Context, c billing.Charge) (school.Contact, error) {
	contact, err := e.opts.Contacts.GetContact(ctx, c.StudentID)
	if err != nil {
		if errors.Cause(err) != school.ErrNotFound {
			return school.Contact{}, errors.Wrapf(err, "getting contact of student %d", c.StudentID)
		}
		contact = school.Contact{StudentID: c.StudentID, StudentName: c.StudentName}
	}
	return contact, nil
}

// SendAll dispatches a scheduled kind to every charge of today's matching due-set.
// A failed charge never stops the batch.
func (e *Engine) SendAll(ctx context.Context, kind Kind, channel msgtemplate.Channel) (BatchReport, error) {
	if !kind.Scheduled() {
		return BatchReport{}, ErrNotScheduled
	}
	if !channel.Valid() {
		return BatchReport{}, ErrUnknownChannel
	}

	today := e.Today()
	sets, err := e.DueSetsOn(ctx, today)
	if err != nil {
		return BatchReport{}, err
	}

	dues := sets.Of(kind)
	report := BatchReport{Kind: kind, Channel: channel, Date: today, Results: make([]Result, 0, len(dues))}
	for _, due := range dues {
		report.add(e.Dispatch(ctx, due, kind, channel, today))
	}

	e.logf("notice batch %s/%s on %s: %d sent, %d skipped, %d failed",
		kind, channel, today, report.Sent, report.Skipped, report.Failed)
	return report, nil
}

// DispatchCharge sends one notice for one charge. Scheduled kinds only accept charges inside their window.
func (e *Engine) DispatchCharge(ctx context.Context, chargeID int64, kind Kind, channel msgtemplate.Channel) (Result, error) {
	if _, ok := templateNames[kind]; !ok {
		return Result{}, ErrUnknownKind
	}
	if !channel.Valid() {
		return Result{}, ErrUnknownChannel
	}

	charge, err := e.opts.Charges.Get(ctx, chargeID)
	if err != nil {
		return Result{}, err
	}
	if !charge.IsPending() {
		return Result{}, ErrChargeNotPending
	}

	today := e.Today()
	switch kind {
	case KindFiveDay:
		if !charge.DueDate.Equal(today.AddDays(FiveDayOffset)) {
			return Result{}, ErrOutsideWindow
		}
	case KindDueToday:
		if !charge.DueDate.Equal(today) {
			return Result{}, ErrOutsideWindow
		}
	}

	contact, err := e.contactOf(ctx, charge)
	if err != nil {
		return Result{}, err
	}
	return e.Dispatch(ctx, Due{Charge: charge, Contact: contact}, kind, channel, today), nil
}

// Dispatch checks the send log, the contact, renders the message, hands it to the channel gateway
// and records the send. Nothing is recorded unless the gateway succeeded.
func (e *Engine) Dispatch(ctx context.Context, due Due, kind Kind, channel msgtemplate.Channel, today core.Date) Result {
	res := e.dispatch(ctx, due, kind, channel, today)
	if e.opts.Recorder != nil {
		e.opts.Recorder.ObserveOutcome(kind, channel, res.Outcome)
	}
	return res
}

func (e *Engine) dispatch(ctx context.Context, due Due, kind Kind, channel msgtemplate.Channel, today core.Date) Result {
	res := Result{
		ChargeID:    due.Charge.ID,
		StudentName: due.Contact.StudentName,
		Kind:        kind,
		Channel:     channel,
	}

	if due.contactErr != nil {
		return e.fail(res, ReasonStoreFailure, due.contactErr)
	}

	// 1. dedup guard
	sent, err := e.opts.Log.HasSent(ctx, due.Charge.ID, kind, channel, today)
	if err != nil {
		return e.fail(res, ReasonStoreFailure, errors.Wrap(err, "checking send log"))
	}
	if sent {
		res.Outcome = OutcomeAlreadySent
		return res
	}

	// 2. preconditions
	var recipient string
	switch channel {
	case msgtemplate.ChannelEmail:
		recipient = core.CleanString(due.Contact.Email)
		if recipient == "" {
			return e.skip(res, "no email on file")
		}
		if !strings.Contains(recipient, "@") {
			return e.fail(res, ReasonInvalidRecipient, fmt.Errorf("%q is not an email address", recipient))
		}
	default:
		recipient = NormalizePhone(due.Contact.Phone, e.opts.CountryCode)
		if recipient == "" {
			return e.skip(res, "no phone on file")
		}
	}

	// 3. render
	tmpl, fromFallback := e.template(ctx, kind, channel)
	res.UsedFallback = fromFallback
	rctx := RenderContext(due.Charge, due.Contact)
	body := Render(tmpl.Body, rctx)

	// 4. send
	switch channel {
	case msgtemplate.ChannelEmail:
		msg := core.NewEmailMessage(recipient, Render(tmpl.Subject, rctx), body)
		if err := e.opts.Mailer.Send(ctx, msg); err != nil {
			return e.fail(res, reasonOf(err), err)
		}
	default:
		res.Link = e.opts.Links.BuildLink(recipient, body)
	}

	// 5. record
	res.Outcome = OutcomeSent
	rec := SendRecord{ChargeID: due.Charge.ID, Kind: kind, Channel: channel, SentOn: today}
	if err := e.opts.Log.RecordSent(ctx, rec); err != nil {
		// the gateway already accepted the notice
		res.Detail = "sent but not recorded: " + err.Error()
		e.errorf(errors.Wrap(err, "recording send"), "notice %s/%s for charge %d sent but not recorded", kind, channel, due.Charge.ID)
	}
	return res
}

// template returns the configured template of a kind, or its built-in fallback.
func (e *Engine) template(ctx context.Context, kind Kind, channel msgtemplate.Channel) (msgtemplate.Template, bool) {
	fb := fallbackTemplate(kind, channel)
	tmpl, err := e.opts.Templates.Get(ctx, channel, kind.TemplateName())
	if err != nil {
		if errors.Cause(err) != msgtemplate.ErrNotFound {
			e.errorf(err, "loading template %s/%s, using fallback", channel, kind.TemplateName())
		}
		return fb, true
	}
	if channel == msgtemplate.ChannelEmail && tmpl.Subject == "" {
		tmpl.Subject = fb.Subject
	}
	return tmpl, false
}

func reasonOf(err error) Reason {
	switch errors.Cause(err) {
	case core.ErrMailNotConfigured:
		return ReasonConfigurationMissing
	case core.ErrInvalidRecipient:
		return ReasonInvalidRecipient
	default:
		return ReasonTransportFailure
	}
}

func (e *Engine) skip(res Result, detail string) Result {
	res.Outcome = OutcomeSkippedMissingContact
	res.Reason = ReasonInvalidRecipient
	res.Detail = detail
	return res
}

func (e *Engine) fail(res Result, reason Reason, err error) Result {
	res.Outcome = OutcomeFailed
	res.Reason = reason
	res.Detail = err.Error()
	if reason == ReasonStoreFailure || reason == ReasonTransportFailure {
		e.errorf(err, "notice %s/%s for charge %d failed", res.Kind, res.Channel, res.ChargeID)
	}
	return res
}

func (e *Engine) logf(format string, args ...interface{}) {
	if e.opts.Logger != nil {
		e.opts.Logger.Info(fmt.Sprintf(format, args...))
	}
}

func (e *Engine) errorf(err error, format string, args ...interface{}) {
	if e.opts.Logger != nil {
		e.opts.Logger.Error(fmt.Sprintf(format, args...), err)
	}
}
