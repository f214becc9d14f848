package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/billing"
	"github.com/sonhodourado/secretaria/core/dashboard"
	"github.com/sonhodourado/secretaria/core/school"
)

type dashboardRepository struct {
	baseRepository
}

var _ dashboard.Repository = (*dashboardRepository)(nil) // interface compliance check

func NewDashboardRepository(exec core.DBExecutor) *dashboardRepository {
	return &dashboardRepository{baseRepository: newBaseRepository(exec)}
}

func (repo dashboardRepository) Summary(ctx context.Context) (dashboard.Summary, error) {
	var row struct {
		ActiveStudents int64               `db:"active_students"`
		ActiveClasses  int64               `db:"active_classes"`
		ActiveTeachers int64               `db:"active_teachers"`
		PendingTotal   decimal.NullDecimal `db:"pending_total"`
	}
	q := repo.rebind(`SELECT
		(SELECT COUNT(*) FROM students WHERE status = ?) AS active_students,
		(SELECT COUNT(*) FROM classes WHERE is_active = ?) AS active_classes,
		(SELECT COUNT(*) FROM teachers WHERE status = ?) AS active_teachers,
		(SELECT SUM(CAST(amount AS NUMERIC)) FROM charges WHERE status = ?) AS pending_total`)
	err := repo.exec.GetContext(ctx, &row, q, school.StudentEnrolled, true, school.TeacherActive, billing.StatusPending)
	if err != nil {
		return dashboard.Summary{}, errors.Wrap(err, "selecting dashboard summary")
	}
	return dashboard.Summary{
		ActiveStudents: row.ActiveStudents,
		ActiveClasses:  row.ActiveClasses,
		ActiveTeachers: row.ActiveTeachers,
		PendingTotal:   row.PendingTotal.Decimal,
	}, nil
}

func (repo dashboardRepository) OverdueByMonth(ctx context.Context, from, before core.Date) ([]dashboard.MonthTotal, error) {
	var rows []struct {
		Month string              `db:"month"`
		Total decimal.NullDecimal `db:"total"`
	}
	q := repo.rebind(`SELECT substr(due_date, 1, 7) AS month, SUM(CAST(amount AS NUMERIC)) AS total
		FROM charges
		WHERE status = ? AND due_date >= ? AND due_date < ?
		GROUP BY substr(due_date, 1, 7)
		ORDER BY month`)
	if err := repo.exec.SelectContext(ctx, &rows, q, billing.StatusPending, from.String(), before.String()); err != nil {
		return nil, errors.Wrap(err, "selecting overdue totals")
	}
	totals := make([]dashboard.MonthTotal, 0, len(rows))
	for _, row := range rows {
		totals = append(totals, dashboard.MonthTotal{Month: row.Month, Total: row.Total.Decimal})
	}
	return totals, nil
}
