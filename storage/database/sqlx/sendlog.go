package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/msgtemplate"
	"github.com/sonhodourado/secretaria/core/notice"
)

type sendLogRepository struct {
	baseRepository
	now func() time.Time
}

var _ notice.SendLog = (*sendLogRepository)(nil) // interface compliance check

func NewSendLogRepository(exec core.DBExecutor) *sendLogRepository {
	return &sendLogRepository{baseRepository: newBaseRepository(exec), now: time.Now}
}

func (repo sendLogRepository) HasSent(ctx context.Context, chargeID int64, kind notice.Kind, channel msgtemplate.Channel, on core.Date) (bool, error) {
	var n int
	q := repo.rebind("SELECT COUNT(*) FROM send_log WHERE charge_id = ? AND kind = ? AND channel = ? AND sent_on = ?")
	if err := repo.exec.GetContext(ctx, &n, q, chargeID, string(kind), string(channel), on.String()); err != nil {
		return false, errors.Wrap(err, "checking send log")
	}
	return n > 0, nil
}

// RecordSent ignores rows already logged.
func (repo sendLogRepository) RecordSent(ctx context.Context, rec notice.SendRecord) error {
	q := repo.rebind("INSERT INTO send_log (charge_id, kind, channel, sent_on, created_at) VALUES (?, ?, ?, ?, ?) " +
		"ON CONFLICT (charge_id, kind, channel, sent_on) DO NOTHING")
	_, err := repo.exec.ExecContext(ctx, q, rec.ChargeID, string(rec.Kind), string(rec.Channel), rec.SentOn.String(), repo.now().UTC())
	if err != nil {
		return errors.Wrap(err, "recording send")
	}
	return nil
}
