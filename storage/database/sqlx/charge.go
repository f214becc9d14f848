package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/billing"
)

type chargeRow struct {
	ID          int64           `db:"id"`
	StudentID   int64           `db:"student_id"`
	StudentName string          `db:"student_name"`
	Description string          `db:"description"`
	Amount      decimal.Decimal `db:"amount"`
	DueDate     core.Date       `db:"due_date"`
	Status      string          `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (row chargeRow) unboil() billing.Charge {
	return billing.Charge{
		ID:          row.ID,
		StudentID:   row.StudentID,
		StudentName: row.StudentName,
		Description: row.Description,
		Amount:      row.Amount,
		DueDate:     row.DueDate,
		Status:      row.Status,
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

type chargeRepository struct {
	baseRepository
}

var _ billing.Repository = (*chargeRepository)(nil) // interface compliance check

func NewChargeRepository(exec core.DBExecutor) *chargeRepository {
	return &chargeRepository{baseRepository: newBaseRepository(exec)}
}

func (repo chargeRepository) selectCharges() sq.SelectBuilder {
	return repo.sb.
		Select("ch.id", "ch.student_id", "s.name AS student_name", "ch.description", "ch.amount",
			"ch.due_date", "ch.status", "ch.created_at").
		From("charges ch").
		Join("students s ON s.id = ch.student_id")
}

func (repo chargeRepository) list(ctx context.Context, b sq.SelectBuilder) ([]billing.Charge, error) {
	var rows []chargeRow
	if err := repo.selectAll(ctx, &rows, b); err != nil {
		return nil, errors.Wrap(err, "selecting charges")
	}
	charges := make([]billing.Charge, 0, len(rows))
	for _, row := range rows {
		charges = append(charges, row.unboil())
	}
	return charges, nil
}

func (repo chargeRepository) CreateCharge(ctx context.Context, c billing.Charge) (billing.Charge, error) {
	id, err := repo.insert(ctx, repo.sb.Insert("charges").
		Columns("student_id", "description", "amount", "due_date", "status", "created_at").
		Values(c.StudentID, c.Description, c.Amount.StringFixed(2), c.DueDate, c.Status, c.CreatedAt.UTC()))
	if err != nil {
		return billing.Charge{}, errors.Wrap(err, "inserting charge")
	}
	return repo.GetCharge(ctx, id)
}

func (repo chargeRepository) GetCharge(ctx context.Context, id int64) (billing.Charge, error) {
	var row chargeRow
	if err := repo.get(ctx, &row, repo.selectCharges().Where(sq.Eq{"ch.id": id})); err != nil {
		return billing.Charge{}, trapNoRowsErr(err, billing.ErrNotFound, "selecting charge")
	}
	return row.unboil(), nil
}

func (repo chargeRepository) QueryOpenCharges(ctx context.Context, limit int) ([]billing.Charge, error) {
	return repo.list(ctx, repo.selectCharges().
		Where(sq.Eq{"ch.status": billing.StatusPending}).
		OrderBy("ch.due_date ASC", "ch.id ASC").
		Limit(uint64(limit)))
}

func (repo chargeRepository) ListPendingDueOn(ctx context.Context, date core.Date) ([]billing.Charge, error) {
	return repo.list(ctx, repo.selectCharges().
		Where(sq.Eq{"ch.status": billing.StatusPending, "ch.due_date": date.String()}).
		OrderBy("s.name ASC", "ch.id ASC"))
}

func (repo chargeRepository) MarkPaid(ctx context.Context, id int64) error {
	found, err := repo.modify(ctx, repo.sb.Update("charges").
		Set("status", billing.StatusPaid).
		Where(sq.Eq{"id": id, "status": billing.StatusPending}))
	if err != nil {
		return errors.Wrap(err, "marking charge as paid")
	}
	if !found {
		return billing.ErrNotFound
	}
	return nil
}
