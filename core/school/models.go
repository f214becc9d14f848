package school

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/sonhodourado/secretaria/core"
)

// Statuses
const (
	StudentEnrolled = "enrolled"
	StudentInactive = "inactive"

	TeacherActive   = "active"
	TeacherInactive = "inactive"

	DefaultPosition = "Professor"
	DefaultLimit    = 50
)

type Teacher struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	CPF        string          `json:"cpf"`
	Phone      string          `json:"phone"`
	Position   string          `json:"position"`
	HiredOn    core.Date       `json:"hired_on"`
	BaseSalary decimal.Decimal `json:"base_salary"`
	Address    string          `json:"address"`
	Status     string          `json:"status"`
}

type Class struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	TeacherID   int64  `json:"teacher_id"`
	TeacherName string `json:"teacher_name,omitempty"`
	IsActive    bool   `json:"is_active"`
}

type Student struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	BirthDate  core.Date `json:"birth_date"`
	Birthplace string    `json:"birthplace"`
	MotherName string    `json:"mother_name"`
	FatherName string    `json:"father_name"`
	ClassID    int64     `json:"class_id"`
	ClassName  string    `json:"class_name,omitempty"`
	Status     string    `json:"status"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
}

// ResponsibleName is who notices are addressed to: the mother, else the father.
func (s Student) ResponsibleName() string {
	if s.MotherName != "" {
		return s.MotherName
	}
	return s.FatherName
}

// Contact is the part of a Student that payment notices need.
type Contact struct {
	StudentID       int64  `json:"student_id"`
	StudentName     string `json:"student_name"`
	ResponsibleName string `json:"responsible_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
}

func (s Student) Contact() Contact {
	return Contact{
		StudentID:       s.ID,
		StudentName:     s.Name,
		ResponsibleName: s.ResponsibleName(),
		Email:           s.Email,
		Phone:           s.Phone,
	}
}

type NewTeacher struct {
	Name       string          `json:"name" validate:"required,notblank"`
	CPF        string          `json:"cpf" validate:"required,hasdigits"`
	Phone      string          `json:"phone"`
	Position   string          `json:"position"`
	HiredOn    core.Date       `json:"hired_on"`
	BaseSalary decimal.Decimal `json:"base_salary"`
	Address    string          `json:"address"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.CPF = core.CleanString(nt.CPF)
	nt.Phone = core.CleanString(nt.Phone)
	nt.Position = core.CleanString(nt.Position)
	if nt.Position == "" {
		nt.Position = DefaultPosition
	}
	if err := validate.Struct(nt); err != nil {
		return err
	}
	if nt.BaseSalary.IsNegative() {
		return core.NewFieldValidationError("base_salary", ErrNegativeSalary)
	}
	return nil
}

type NewClass struct {
	Name      string `json:"name" validate:"required,notblank"`
	TeacherID int64  `json:"teacher_id" validate:"required,gt=0"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

type NewStudent struct {
	Name       string    `json:"name" validate:"required,notblank"`
	BirthDate  core.Date `json:"birth_date"`
	Birthplace string    `json:"birthplace"`
	MotherName string    `json:"mother_name"`
	FatherName string    `json:"father_name"`
	ClassID    int64     `json:"class_id" validate:"required,gt=0"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email" validate:"omitempty,email"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.MotherName = core.CleanString(ns.MotherName)
	ns.FatherName = core.CleanString(ns.FatherName)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

type QueryFilter struct {
	Search string `query:"search"`
	Limit  int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	if qf.Limit <= 0 || qf.Limit > DefaultLimit {
		qf.Limit = DefaultLimit
	}
}
