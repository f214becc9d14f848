package billing

import (
	"context"
	"errors"
	"time"

	"github.com/sonhodourado/secretaria/core"
)

var (
	ErrNotFound        = errors.New("charge not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrDueDateRequired = errors.New("due date is required")
)

type (
	Repository interface {
		CreateCharge(ctx context.Context, c Charge) (Charge, error)
		GetCharge(ctx context.Context, id int64) (Charge, error)
		// QueryOpenCharges lists pending charges by due date.
		QueryOpenCharges(ctx context.Context, limit int) ([]Charge, error)
		ListPendingDueOn(ctx context.Context, date core.Date) ([]Charge, error)
		// MarkPaid returns ErrNotFound unless a pending charge with this id exists.
		MarkPaid(ctx context.Context, id int64) error
	}

	// StudentChecker confirms the debtor of a new charge exists.
	StudentChecker interface {
		StudentExists(ctx context.Context, id int64) (bool, error)
	}

	Service struct {
		repo     Repository
		students StudentChecker
	}
)

func NewService(repo Repository, students StudentChecker) *Service {
	return &Service{repo: repo, students: students}
}

func (svc *Service) Create(ctx context.Context, nc NewCharge) (Charge, error) {
	exists, err := svc.students.StudentExists(ctx, nc.StudentID)
	if err != nil {
		return Charge{}, err
	}
	if !exists {
		return Charge{}, core.NewFieldValidationError("student_id", ErrStudentNotFound)
	}

	return svc.repo.CreateCharge(ctx, Charge{
		StudentID:   nc.StudentID,
		Description: nc.Description,
		Amount:      nc.Amount.Round(2),
		DueDate:     nc.DueDate,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	})
}

func (svc *Service) Get(ctx context.Context, id int64) (Charge, error) {
	return svc.repo.GetCharge(ctx, id)
}

func (svc *Service) QueryOpen(ctx context.Context) ([]Charge, error) {
	return svc.repo.QueryOpenCharges(ctx, DefaultLimit)
}

func (svc *Service) ListPendingDueOn(ctx context.Context, date core.Date) ([]Charge, error) {
	return svc.repo.ListPendingDueOn(ctx, date)
}

// MarkPaid confirms the payment of a pending charge.
func (svc *Service) MarkPaid(ctx context.Context, id int64) error {
	return svc.repo.MarkPaid(ctx, id)
}
