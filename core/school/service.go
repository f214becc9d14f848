package school

import (
	"context"
	"errors"

	"github.com/sonhodourado/secretaria/core"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrTeacherNotFound = errors.New("teacher not found")
	ErrClassNotFound   = errors.New("class not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrClassExists     = errors.New("a class with this name already exists")
	ErrNegativeSalary  = errors.New("base salary cannot be negative")
)

type (
	Repository interface {
		CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		GetTeacher(ctx context.Context, id int64) (Teacher, error)
		// QueryTeachers does a case-insensitive match of QueryFilter.Search on name or cpf.
		QueryTeachers(ctx context.Context, filter QueryFilter) ([]Teacher, error)

		ClassNameExists(ctx context.Context, name string) (bool, error)
		CreateClass(ctx context.Context, c Class) (Class, error)
		GetClass(ctx context.Context, id int64) (Class, error)
		QueryClasses(ctx context.Context) ([]Class, error)

		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudent(ctx context.Context, id int64) (Student, error)
		// QueryStudents only returns enrolled students; QueryFilter.Search matches the name.
		QueryStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error) {
	return svc.repo.CreateTeacher(ctx, Teacher{
		Name:       nt.Name,
		CPF:        nt.CPF,
		Phone:      nt.Phone,
		Position:   nt.Position,
		HiredOn:    nt.HiredOn,
		BaseSalary: nt.BaseSalary,
		Address:    nt.Address,
		Status:     TeacherActive,
	})
}

func (svc *Service) QueryTeachers(ctx context.Context, filter QueryFilter) ([]Teacher, error) {
	filter.Clean()
	return svc.repo.QueryTeachers(ctx, filter)
}

func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	exists, err := svc.repo.ClassNameExists(ctx, nc.Name)
	if err != nil {
		return Class{}, err
	}
	if exists {
		return Class{}, core.NewFieldValidationError("name", ErrClassExists)
	}

	teacher, err := svc.repo.GetTeacher(ctx, nc.TeacherID)
	if err != nil {
		if err == ErrNotFound {
			return Class{}, core.NewFieldValidationError("teacher_id", ErrTeacherNotFound)
		}
		return Class{}, err
	}

	class, err := svc.repo.CreateClass(ctx, Class{Name: nc.Name, TeacherID: teacher.ID, IsActive: true})
	if err != nil {
		return Class{}, err
	}
	class.TeacherName = teacher.Name
	return class, nil
}

func (svc *Service) QueryClasses(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryClasses(ctx)
}

func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	class, err := svc.repo.GetClass(ctx, ns.ClassID)
	if err != nil {
		if err == ErrNotFound {
			return Student{}, core.NewFieldValidationError("class_id", ErrClassNotFound)
		}
		return Student{}, err
	}

	std, err := svc.repo.CreateStudent(ctx, Student{
		Name:       ns.Name,
		BirthDate:  ns.BirthDate,
		Birthplace: ns.Birthplace,
		MotherName: ns.MotherName,
		FatherName: ns.FatherName,
		ClassID:    class.ID,
		Status:     StudentEnrolled,
		Phone:      ns.Phone,
		Email:      ns.Email,
	})
	if err != nil {
		return Student{}, err
	}
	std.ClassName = class.Name
	return std, nil
}

func (svc *Service) QueryStudents(ctx context.Context, filter QueryFilter) ([]Student, error) {
	filter.Clean()
	return svc.repo.QueryStudents(ctx, filter)
}

func (svc *Service) GetStudent(ctx context.Context, id int64) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

// GetContact returns the notice contact of a student, whatever its enrolment status.
func (svc *Service) GetContact(ctx context.Context, studentID int64) (Contact, error) {
	std, err := svc.repo.GetStudent(ctx, studentID)
	if err != nil {
		return Contact{}, err
	}
	return std.Contact(), nil
}

func (svc *Service) StudentExists(ctx context.Context, id int64) (bool, error) {
	if _, err := svc.repo.GetStudent(ctx, id); err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
