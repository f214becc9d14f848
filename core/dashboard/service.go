package dashboard

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sonhodourado/secretaria/core"
)

// DelinquencyMonths is how many months, the current one included, the delinquency report covers.
const DelinquencyMonths = 6

type (
	Summary struct {
		ActiveStudents int64           `json:"active_students"`
		ActiveClasses  int64           `json:"active_classes"`
		ActiveTeachers int64           `json:"active_teachers"`
		PendingTotal   decimal.Decimal `json:"pending_total"`
	}

	// MonthTotal is the pending amount of the charges due in Month ("YYYY-MM").
	MonthTotal struct {
		Month string          `json:"month"`
		Total decimal.Decimal `json:"total"`
	}

	Repository interface {
		Summary(ctx context.Context) (Summary, error)
		// OverdueByMonth sums pending charges due in [from, before) grouped by due month.
		OverdueByMonth(ctx context.Context, from, before core.Date) ([]MonthTotal, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Summary(ctx context.Context) (Summary, error) {
	s, err := svc.repo.Summary(ctx)
	if err != nil {
		return Summary{}, err
	}
	s.PendingTotal = s.PendingTotal.Round(2)
	return s, nil
}

// Delinquency returns one entry per month of the report window, oldest first, months without debt included.
// The current month counts all of its pending charges, the ones not due yet too.
func (svc *Service) Delinquency(ctx context.Context, today core.Date) ([]MonthTotal, error) {
	from := today.FirstOfMonth().AddMonths(-(DelinquencyMonths - 1))
	totals, err := svc.repo.OverdueByMonth(ctx, from, today.FirstOfMonth().AddMonths(1))
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]decimal.Decimal, len(totals))
	for _, mt := range totals {
		byMonth[mt.Month] = mt.Total
	}

	report := make([]MonthTotal, 0, DelinquencyMonths)
	for i := 0; i < DelinquencyMonths; i++ {
		month := from.AddMonths(i).Format("2006-01")
		report = append(report, MonthTotal{Month: month, Total: byMonth[month].Round(2)})
	}
	return report, nil
}
