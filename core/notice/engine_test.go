package notice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/billing"
	"github.com/sonhodourado/secretaria/core/msgtemplate"
	"github.com/sonhodourado/secretaria/core/school"
)

var (
	testNow   = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	testToday = core.DateOf(testNow)
)

type chargeStub struct {
	charges []billing.Charge
	err     error
}

func (s *chargeStub) Get(_ context.Context, id int64) (billing.Charge, error) {
	for _, c := range s.charges {
		if c.ID == id {
			return c, nil
		}
	}
	return billing.Charge{}, billing.ErrNotFound
}

// ListPendingDueOn ignores the status on purpose: the engine must filter paid charges itself.
func (s *chargeStub) ListPendingDueOn(_ context.Context, date core.Date) ([]billing.Charge, error) {
	if s.err != nil {
		return nil, s.err
	}
	var res []billing.Charge
	for _, c := range s.charges {
		if c.DueDate.Equal(date) {
			res = append(res, c)
		}
	}
	return res, nil
}

type contactStub map[int64]school.Contact

func (s contactStub) GetContact(_ context.Context, studentID int64) (school.Contact, error) {
	c, ok := s[studentID]
	if !ok {
		return school.Contact{}, school.ErrNotFound
	}
	return c, nil
}

// failingContacts errors for the students in errs and reads the rest from the stub.
type failingContacts struct {
	contactStub
	errs map[int64]error
}

func (s failingContacts) GetContact(ctx context.Context, studentID int64) (school.Contact, error) {
	if err, ok := s.errs[studentID]; ok {
		return school.Contact{}, err
	}
	return s.contactStub.GetContact(ctx, studentID)
}

type templateStub map[string]msgtemplate.Template

func (s templateStub) Get(_ context.Context, channel msgtemplate.Channel, name string) (msgtemplate.Template, error) {
	t, ok := s[string(channel)+"/"+name]
	if !ok {
		return msgtemplate.Template{}, msgtemplate.ErrNotFound
	}
	return t, nil
}

type memLog struct {
	mu        sync.Mutex
	rows      map[SendRecord]bool
	hasErr    error
	recordErr error
}

func newMemLog() *memLog {
	return &memLog{rows: make(map[SendRecord]bool)}
}

func (l *memLog) HasSent(_ context.Context, chargeID int64, kind Kind, channel msgtemplate.Channel, on core.Date) (bool, error) {
	if l.hasErr != nil {
		return false, l.hasErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows[SendRecord{ChargeID: chargeID, Kind: kind, Channel: channel, SentOn: on}], nil
}

func (l *memLog) RecordSent(_ context.Context, rec SendRecord) error {
	if l.recordErr != nil {
		return l.recordErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows[rec] = true
	return nil
}

func (l *memLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows)
}

type mailerStub struct {
	sent  []*core.EmailMessage
	err   error
	errTo map[string]error
}

func (m *mailerStub) Send(_ context.Context, msg *core.EmailMessage) error {
	if m.err != nil {
		return m.err
	}
	for _, addr := range msg.Addresses() {
		if err, ok := m.errTo[addr]; ok {
			return err
		}
	}
	m.sent = append(m.sent, msg)
	return nil
}

type linkStub struct{}

func (linkStub) BuildLink(phone, text string) string {
	return "link:" + phone + ":" + text
}

type recorderStub map[Outcome]int

func (r recorderStub) ObserveOutcome(_ Kind, _ msgtemplate.Channel, outcome Outcome) {
	r[outcome]++
}

type fixture struct {
	charges   *chargeStub
	contacts  contactStub
	templates templateStub
	log       *memLog
	mailer    *mailerStub
	recorder  recorderStub
	engine    *Engine
}

func newFixture() *fixture {
	f := &fixture{
		charges:   &chargeStub{},
		contacts:  contactStub{},
		templates: templateStub{},
		log:       newMemLog(),
		mailer:    &mailerStub{},
		recorder:  recorderStub{},
	}
	f.engine = NewEngine(Options{
		Charges:     f.charges,
		Contacts:    f.contacts,
		Templates:   f.templates,
		Log:         f.log,
		Mailer:      f.mailer,
		Links:       linkStub{},
		Recorder:    f.recorder,
		CountryCode: "55",
		Now:         func() time.Time { return testNow },
	})
	return f
}

// addCharge registers a charge and its student, due `days` after today.
func (f *fixture) addCharge(id int64, name, email, phone string, days int, status string) billing.Charge {
	c := billing.Charge{
		ID:          id,
		StudentID:   id * 10,
		StudentName: name,
		Description: "Mensalidade",
		Amount:      decimal.RequireFromString("350.5"),
		DueDate:     testToday.AddDays(days),
		Status:      status,
	}
	f.charges.charges = append(f.charges.charges, c)
	f.contacts[c.StudentID] = school.Contact{
		StudentID:       c.StudentID,
		StudentName:     name,
		ResponsibleName: "Mãe de " + name,
		Email:           email,
		Phone:           phone,
	}
	return c
}

func ids(dues []Due) []int64 {
	res := make([]int64, 0, len(dues))
	for _, d := range dues {
		res = append(res, d.Charge.ID)
	}
	return res
}

func TestEngine_Today(t *testing.T) {
	f := newFixture()
	assert.Equal(t, testToday, f.engine.Today())

	loc := time.FixedZone("BRT", -3*60*60)
	late := NewEngine(Options{Location: loc, Now: func() time.Time {
		return time.Date(2024, time.March, 10, 1, 0, 0, 0, time.UTC)
	}})
	assert.Equal(t, "2024-03-09", late.Today().String())
}

func TestEngine_DueSets(t *testing.T) {
	f := newFixture()
	f.addCharge(1, "Bruno", "b@x.com", "", 5, billing.StatusPending)
	f.addCharge(2, "Ana", "a@x.com", "", 5, billing.StatusPending)
	f.addCharge(3, "Carla", "c@x.com", "", 0, billing.StatusPending)
	f.addCharge(4, "Davi", "d@x.com", "", 0, billing.StatusPaid)
	f.addCharge(5, "Eva", "e@x.com", "", -1, billing.StatusPending)
	f.addCharge(6, "Fábio", "f@x.com", "", 4, billing.StatusPending)
	f.addCharge(7, "Gil", "g@x.com", "", 6, billing.StatusPending)

	sets, err := f.engine.DueSets(context.Background())
	require.NoError(t, err)

	assert.Equal(t, testToday, sets.Today)
	assert.Equal(t, []int64{2, 1}, ids(sets.FiveDay), "sorted by student name")
	assert.Equal(t, []int64{3}, ids(sets.DueToday))

	for _, d := range sets.FiveDay {
		assert.NotContains(t, ids(sets.DueToday), d.Charge.ID)
	}
	assert.Equal(t, "Mãe de Ana", sets.FiveDay[0].Contact.ResponsibleName)
}

func TestEngine_DueSets_duplicateRowsAndUnknownStudent(t *testing.T) {
	f := newFixture()
	c := f.addCharge(1, "Ana", "a@x.com", "", 0, billing.StatusPending)
	f.charges.charges = append(f.charges.charges, c)
	delete(f.contacts, c.StudentID)

	sets, err := f.engine.DueSetsOn(context.Background(), testToday)
	require.NoError(t, err)
	require.Len(t, sets.DueToday, 1)
	assert.Equal(t, "Ana", sets.DueToday[0].Contact.StudentName)
	assert.Empty(t, sets.DueToday[0].Contact.Email)
}

func TestEngine_DueSets_storeError(t *testing.T) {
	f := newFixture()
	f.charges.err = errors.New("db down")

	_, err := f.engine.DueSets(context.Background())
	assert.Error(t, err)
}

func TestEngine_DispatchCharge_idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addCharge(42, "Ana", "mae.ana@x.com", "", 0, billing.StatusPending)

	res, err := f.engine.DispatchCharge(ctx, 42, KindDueToday, msgtemplate.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Equal(t, int64(42), res.ChargeID)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, []string{"mae.ana@x.com"}, f.mailer.sent[0].Addresses())
	assert.Equal(t, 1, f.log.count())

	res, err = f.engine.DispatchCharge(ctx, 42, KindDueToday, msgtemplate.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadySent, res.Outcome)
	assert.Len(t, f.mailer.sent, 1)
	assert.Equal(t, 1, f.log.count())

	// another channel is another notice
	f.contacts[420] = school.Contact{StudentID: 420, StudentName: "Ana", Phone: "11 98888-7777", Email: "mae.ana@x.com"}
	res, err = f.engine.DispatchCharge(ctx, 42, KindDueToday, msgtemplate.ChannelMessaging)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Equal(t, 2, f.log.count())

	assert.Equal(t, 2, f.recorder[OutcomeSent])
	assert.Equal(t, 1, f.recorder[OutcomeAlreadySent])
}

func TestEngine_SendAll_partialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addCharge(1, "Ana", "ana@x.com", "", 5, billing.StatusPending)
	f.addCharge(2, "Bia", "bia-sem-arroba", "", 5, billing.StatusPending)
	f.addCharge(3, "Caio", "caio@x.com", "", 5, billing.StatusPending)

	report, err := f.engine.SendAll(ctx, KindFiveDay, msgtemplate.ChannelEmail)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 3)
	assert.Equal(t, OutcomeFailed, report.Results[1].Outcome)
	assert.Equal(t, ReasonInvalidRecipient, report.Results[1].Reason)
	assert.Equal(t, OutcomeSent, report.Results[2].Outcome)
	assert.Equal(t, 2, f.log.count())

	// a second run only sees what is already logged
	report, err = f.engine.SendAll(ctx, KindFiveDay, msgtemplate.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, f.mailer.sent, 2)
}

func TestEngine_SendAll_contactStoreFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addCharge(1, "Ana", "ana@x.com", "", 0, billing.StatusPending)
	f.addCharge(2, "Bia", "bia@x.com", "", 0, billing.StatusPending)
	f.addCharge(3, "Caio", "caio@x.com", "", 0, billing.StatusPending)
	f.engine.opts.Contacts = failingContacts{
		contactStub: f.contacts,
		errs:        map[int64]error{20: errors.New("connection reset")},
	}

	sets, err := f.engine.DueSetsOn(ctx, testToday)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(sets.DueToday))

	report, err := f.engine.SendAll(ctx, KindDueToday, msgtemplate.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 3)
	assert.Equal(t, int64(2), report.Results[1].ChargeID)
	assert.Equal(t, "Bia", report.Results[1].StudentName)
	assert.Equal(t, OutcomeFailed, report.Results[1].Outcome)
	assert.Equal(t, ReasonStoreFailure, report.Results[1].Reason)
	assert.Contains(t, report.Results[1].Detail, "connection reset")

	var to []string
	for _, msg := range f.mailer.sent {
		to = append(to, msg.Addresses()...)
	}
	assert.Equal(t, []string{"ana@x.com", "caio@x.com"}, to)
	assert.Equal(t, 2, f.log.count())
	assert.Equal(t, 1, f.recorder[OutcomeFailed])
}

func TestEngine_SendAll_rejectsUnscheduledKind(t *testing.T) {
	f := newFixture()
	_, err := f.engine.SendAll(context.Background(), KindNewCharge, msgtemplate.ChannelEmail)
	assert.Equal(t, ErrNotScheduled, err)

	_, err = f.engine.SendAll(context.Background(), KindDueToday, msgtemplate.Channel("fax"))
	assert.Equal(t, ErrUnknownChannel, err)
}

func TestEngine_Dispatch_missingContact(t *testing.T) {
	f := newFixture()
	c := f.addCharge(1, "Ana", "", "  ", 0, billing.StatusPending)
	due := Due{Charge: c, Contact: f.contacts[c.StudentID]}

	for _, ch := range msgtemplate.AllChannels {
		res := f.engine.Dispatch(context.Background(), due, KindDueToday, ch, testToday)
		assert.Equal(t, OutcomeSkippedMissingContact, res.Outcome, ch)
		assert.Equal(t, ReasonInvalidRecipient, res.Reason, ch)
	}
	assert.Equal(t, 0, f.log.count())
}

func TestEngine_Dispatch_gatewayFailures(t *testing.T) {
	cases := []struct {
		err    error
		reason Reason
	}{
		{core.ErrMailNotConfigured, ReasonConfigurationMissing},
		{errors.Wrap(core.ErrMailNotConfigured, "loading credentials"), ReasonConfigurationMissing},
		{errors.New("connection refused"), ReasonTransportFailure},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			f := newFixture()
			c := f.addCharge(1, "Ana", "ana@x.com", "", 0, billing.StatusPending)
			f.mailer.err = tc.err

			res := f.engine.Dispatch(context.Background(), Due{Charge: c, Contact: f.contacts[c.StudentID]},
				KindDueToday, msgtemplate.ChannelEmail, testToday)
			assert.Equal(t, OutcomeFailed, res.Outcome)
			assert.Equal(t, tc.reason, res.Reason)
			assert.Equal(t, 0, f.log.count(), "failed sends are never recorded")

			// the next attempt goes through once the gateway recovers
			f.mailer.err = nil
			res = f.engine.Dispatch(context.Background(), Due{Charge: c, Contact: f.contacts[c.StudentID]},
				KindDueToday, msgtemplate.ChannelEmail, testToday)
			assert.Equal(t, OutcomeSent, res.Outcome)
			assert.Equal(t, 1, f.log.count())
		})
	}
}

func TestEngine_Dispatch_invalidRecipientFromGateway(t *testing.T) {
	f := newFixture()
	c := f.addCharge(1, "Ana", "ana@x.com", "", 0, billing.StatusPending)
	f.mailer.errTo = map[string]error{"ana@x.com": core.ErrInvalidRecipient}

	res := f.engine.Dispatch(context.Background(), Due{Charge: c, Contact: f.contacts[c.StudentID]},
		KindDueToday, msgtemplate.ChannelEmail, testToday)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, ReasonInvalidRecipient, res.Reason)
}

func TestEngine_Dispatch_storeFailures(t *testing.T) {
	f := newFixture()
	c := f.addCharge(1, "Ana", "ana@x.com", "", 0, billing.StatusPending)
	due := Due{Charge: c, Contact: f.contacts[c.StudentID]}

	f.log.hasErr = errors.New("locked")
	res := f.engine.Dispatch(context.Background(), due, KindDueToday, msgtemplate.ChannelEmail, testToday)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, ReasonStoreFailure, res.Reason)
	assert.Empty(t, f.mailer.sent)

	f.log.hasErr = nil
	f.log.recordErr = errors.New("disk full")
	res = f.engine.Dispatch(context.Background(), due, KindDueToday, msgtemplate.ChannelEmail, testToday)
	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Contains(t, res.Detail, "sent but not recorded")
	assert.Len(t, f.mailer.sent, 1)
}

func TestEngine_Dispatch_usesConfiguredTemplate(t *testing.T) {
	f := newFixture()
	c := f.addCharge(1, "Ana", "ana@x.com", "", 5, billing.StatusPending)
	f.templates["email/lembrete_5_dias"] = msgtemplate.Template{
		Name:    "lembrete_5_dias",
		Channel: msgtemplate.ChannelEmail,
		Subject: "Lembrete: {aluno}",
		Body:    "Prezada {responsavel}, {descricao} de R$ {valor} vence em {vencimento}. {desconhecido}",
	}

	res := f.engine.Dispatch(context.Background(), Due{Charge: c, Contact: f.contacts[c.StudentID]},
		KindFiveDay, msgtemplate.ChannelEmail, testToday)
	require.Equal(t, OutcomeSent, res.Outcome)
	assert.False(t, res.UsedFallback)

	require.Len(t, f.mailer.sent, 1)
	msg := f.mailer.sent[0]
	assert.Equal(t, "Lembrete: Ana", msg.Subject)
	assert.Equal(t, "Prezada Mãe de Ana, Mensalidade de R$ 350.50 vence em 15/03/2024. {desconhecido}", msg.BodyStr)
}

func TestEngine_Dispatch_fallbackTemplate(t *testing.T) {
	f := newFixture()
	c := f.addCharge(1, "Ana", "ana@x.com", "", 0, billing.StatusPending)
	// a configured template without a subject borrows the built-in one
	f.templates["email/vence_hoje"] = msgtemplate.Template{Name: "vence_hoje", Channel: msgtemplate.ChannelEmail, Body: "Hoje: {aluno}"}

	res := f.engine.Dispatch(context.Background(), Due{Charge: c, Contact: f.contacts[c.StudentID]},
		KindDueToday, msgtemplate.ChannelEmail, testToday)
	require.Equal(t, OutcomeSent, res.Outcome)
	assert.False(t, res.UsedFallback)
	assert.Equal(t, "Fatura Vence Hoje!", f.mailer.sent[0].Subject)
	assert.Equal(t, "Hoje: Ana", f.mailer.sent[0].BodyStr)

	delete(f.templates, "email/vence_hoje")
	c2 := f.addCharge(2, "Bia", "bia@x.com", "", 0, billing.StatusPending)
	res = f.engine.Dispatch(context.Background(), Due{Charge: c2, Contact: f.contacts[c2.StudentID]},
		KindDueToday, msgtemplate.ChannelEmail, testToday)
	require.Equal(t, OutcomeSent, res.Outcome)
	assert.True(t, res.UsedFallback)
	assert.Contains(t, f.mailer.sent[1].BodyStr, "A cobrança de Bia VENCE HOJE!")
	assert.Contains(t, f.mailer.sent[1].BodyStr, "R$ 350.50")
}

func TestEngine_Dispatch_messagingLink(t *testing.T) {
	f := newFixture()
	c := f.addCharge(1, "Ana", "", "(11) 98888-7777", 5, billing.StatusPending)
	f.templates["messaging/lembrete_5_dias"] = msgtemplate.Template{
		Name: "lembrete_5_dias", Channel: msgtemplate.ChannelMessaging, Body: "{aluno}: R$ {valor}",
	}

	res := f.engine.Dispatch(context.Background(), Due{Charge: c, Contact: f.contacts[c.StudentID]},
		KindFiveDay, msgtemplate.ChannelMessaging, testToday)
	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Equal(t, "link:5511988887777:Ana: R$ 350.50", res.Link)
	assert.Empty(t, f.mailer.sent)
	assert.Equal(t, 1, f.log.count())
}

func TestEngine_DispatchCharge_window(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addCharge(1, "Ana", "ana@x.com", "", 5, billing.StatusPending)
	f.addCharge(2, "Bia", "bia@x.com", "", 0, billing.StatusPaid)
	f.addCharge(3, "Caio", "caio@x.com", "", 12, billing.StatusPending)

	_, err := f.engine.DispatchCharge(ctx, 1, KindDueToday, msgtemplate.ChannelEmail)
	assert.Equal(t, ErrOutsideWindow, err)

	_, err = f.engine.DispatchCharge(ctx, 2, KindDueToday, msgtemplate.ChannelEmail)
	assert.Equal(t, ErrChargeNotPending, err)

	_, err = f.engine.DispatchCharge(ctx, 99, KindDueToday, msgtemplate.ChannelEmail)
	assert.Equal(t, billing.ErrNotFound, err)

	_, err = f.engine.DispatchCharge(ctx, 1, Kind("weekly"), msgtemplate.ChannelEmail)
	assert.Equal(t, ErrUnknownKind, err)

	// new charge notices go out whatever the due date
	res, err := f.engine.DispatchCharge(ctx, 3, KindNewCharge, msgtemplate.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Contains(t, f.mailer.sent[0].BodyStr, "Vencimento: 22/03/2024")

	res, err = f.engine.DispatchCharge(ctx, 1, KindFiveDay, msgtemplate.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, res.Outcome)
}
