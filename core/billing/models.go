package billing

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/sonhodourado/secretaria/core"
)

// Statuses
const (
	StatusPending = "pending"
	StatusPaid    = "paid"

	DefaultLimit = 50
)

type Charge struct {
	ID          int64           `json:"id"`
	StudentID   int64           `json:"student_id"`
	StudentName string          `json:"student_name,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     core.Date       `json:"due_date"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"` // UTC
}

func (c Charge) IsPending() bool {
	return c.Status == StatusPending
}

// NewCharge contains information needed to bill a student.
// NotifyEmail and NotifyMessaging ask for a new charge notice once it is saved.
type NewCharge struct {
	StudentID       int64           `json:"student_id" validate:"required,gt=0"`
	Description     string          `json:"description" validate:"required,notblank"`
	Amount          decimal.Decimal `json:"amount"`
	DueDate         core.Date       `json:"due_date"`
	NotifyEmail     bool            `json:"notify_email"`
	NotifyMessaging bool            `json:"notify_messaging"`
}

func (nc *NewCharge) Validate(validate *validator.Validate) error {
	nc.Description = core.CleanString(nc.Description)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	if nc.Amount.IsNegative() {
		return core.NewFieldValidationError("amount", ErrNegativeAmount)
	}
	if nc.DueDate.IsZero() {
		return core.NewFieldValidationError("due_date", ErrDueDateRequired)
	}
	return nil
}
