package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/school"
)

type (
	teacherRow struct {
		ID         int64           `db:"id"`
		Name       string          `db:"name"`
		CPF        string          `db:"cpf"`
		Phone      string          `db:"phone"`
		Position   string          `db:"position"`
		HiredOn    core.Date       `db:"hired_on"`
		BaseSalary decimal.Decimal `db:"base_salary"`
		Address    string          `db:"address"`
		Status     string          `db:"status"`
	}

	classRow struct {
		ID          int64       `db:"id"`
		Name        string      `db:"name"`
		TeacherID   null.Int64  `db:"teacher_id"`
		TeacherName null.String `db:"teacher_name"`
		IsActive    bool        `db:"is_active"`
	}

	studentRow struct {
		ID         int64       `db:"id"`
		Name       string      `db:"name"`
		BirthDate  core.Date   `db:"birth_date"`
		Birthplace string      `db:"birthplace"`
		MotherName string      `db:"mother_name"`
		FatherName string      `db:"father_name"`
		ClassID    null.Int64  `db:"class_id"`
		ClassName  null.String `db:"class_name"`
		Status     string      `db:"status"`
		Phone      string      `db:"phone"`
		Email      string      `db:"email"`
	}
)

func (row teacherRow) unboil() school.Teacher {
	return school.Teacher{
		ID:         row.ID,
		Name:       row.Name,
		CPF:        row.CPF,
		Phone:      row.Phone,
		Position:   row.Position,
		HiredOn:    row.HiredOn,
		BaseSalary: row.BaseSalary,
		Address:    row.Address,
		Status:     row.Status,
	}
}

func (row classRow) unboil() school.Class {
	return school.Class{
		ID:          row.ID,
		Name:        row.Name,
		TeacherID:   row.TeacherID.Int64,
		TeacherName: row.TeacherName.String,
		IsActive:    row.IsActive,
	}
}

func (row studentRow) unboil() school.Student {
	return school.Student{
		ID:         row.ID,
		Name:       row.Name,
		BirthDate:  row.BirthDate,
		Birthplace: row.Birthplace,
		MotherName: row.MotherName,
		FatherName: row.FatherName,
		ClassID:    row.ClassID.Int64,
		ClassName:  row.ClassName.String,
		Status:     row.Status,
		Phone:      row.Phone,
		Email:      row.Email,
	}
}

type schoolRepository struct {
	baseRepository
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(exec core.DBExecutor) *schoolRepository {
	return &schoolRepository{baseRepository: newBaseRepository(exec)}
}

func (repo schoolRepository) selectTeachers() sq.SelectBuilder {
	return repo.sb.
		Select("id", "name", "cpf", "phone", "position", "hired_on", "base_salary", "address", "status").
		From("teachers")
}

func (repo schoolRepository) CreateTeacher(ctx context.Context, t school.Teacher) (school.Teacher, error) {
	id, err := repo.insert(ctx, repo.sb.Insert("teachers").
		Columns("name", "cpf", "phone", "position", "hired_on", "base_salary", "address", "status").
		Values(t.Name, t.CPF, t.Phone, t.Position, t.HiredOn, t.BaseSalary.StringFixed(2), t.Address, t.Status))
	if err != nil {
		return school.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	t.ID = id
	return t, nil
}

func (repo schoolRepository) GetTeacher(ctx context.Context, id int64) (school.Teacher, error) {
	var row teacherRow
	if err := repo.get(ctx, &row, repo.selectTeachers().Where(sq.Eq{"id": id})); err != nil {
		return school.Teacher{}, trapNoRowsErr(err, school.ErrNotFound, "selecting teacher")
	}
	return row.unboil(), nil
}

func (repo schoolRepository) QueryTeachers(ctx context.Context, filter school.QueryFilter) ([]school.Teacher, error) {
	b := repo.selectTeachers().OrderBy("name ASC").Limit(uint64(filter.Limit))
	if filter.Search != "" {
		b = b.Where(repo.ilike(filter.Search, "name", "cpf"))
	}

	var rows []teacherRow
	if err := repo.selectAll(ctx, &rows, b); err != nil {
		return nil, errors.Wrap(err, "selecting teachers")
	}
	teachers := make([]school.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, row.unboil())
	}
	return teachers, nil
}

func (repo schoolRepository) ClassNameExists(ctx context.Context, name string) (bool, error) {
	var n int
	b := repo.sb.Select("COUNT(*)").From("classes").Where(sq.Expr("LOWER(name) = LOWER(?)", name))
	if err := repo.get(ctx, &n, b); err != nil {
		return false, errors.Wrap(err, "checking class name uniqueness")
	}
	return n > 0, nil
}

func (repo schoolRepository) CreateClass(ctx context.Context, c school.Class) (school.Class, error) {
	id, err := repo.insert(ctx, repo.sb.Insert("classes").
		Columns("name", "teacher_id", "is_active").
		Values(c.Name, null.NewInt64(c.TeacherID, c.TeacherID != 0), c.IsActive))
	if err != nil {
		return school.Class{}, errors.Wrap(err, "inserting class")
	}
	c.ID = id
	return c, nil
}

func (repo schoolRepository) selectClasses() sq.SelectBuilder {
	return repo.sb.
		Select("c.id", "c.name", "c.teacher_id", "t.name AS teacher_name", "c.is_active").
		From("classes c").
		LeftJoin("teachers t ON t.id = c.teacher_id")
}

func (repo schoolRepository) GetClass(ctx context.Context, id int64) (school.Class, error) {
	var row classRow
	if err := repo.get(ctx, &row, repo.selectClasses().Where(sq.Eq{"c.id": id})); err != nil {
		return school.Class{}, trapNoRowsErr(err, school.ErrNotFound, "selecting class")
	}
	return row.unboil(), nil
}

func (repo schoolRepository) QueryClasses(ctx context.Context) ([]school.Class, error) {
	var rows []classRow
	if err := repo.selectAll(ctx, &rows, repo.selectClasses().OrderBy("c.name ASC")); err != nil {
		return nil, errors.Wrap(err, "selecting classes")
	}
	classes := make([]school.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.unboil())
	}
	return classes, nil
}

func (repo schoolRepository) CreateStudent(ctx context.Context, s school.Student) (school.Student, error) {
	id, err := repo.insert(ctx, repo.sb.Insert("students").
		Columns("name", "birth_date", "birthplace", "mother_name", "father_name", "class_id", "status", "phone", "email").
		Values(s.Name, s.BirthDate, s.Birthplace, s.MotherName, s.FatherName,
			null.NewInt64(s.ClassID, s.ClassID != 0), s.Status, s.Phone, s.Email))
	if err != nil {
		return school.Student{}, errors.Wrap(err, "inserting student")
	}
	s.ID = id
	return s, nil
}

func (repo schoolRepository) selectStudents() sq.SelectBuilder {
	return repo.sb.
		Select("s.id", "s.name", "s.birth_date", "s.birthplace", "s.mother_name", "s.father_name",
			"s.class_id", "c.name AS class_name", "s.status", "s.phone", "s.email").
		From("students s").
		LeftJoin("classes c ON c.id = s.class_id")
}

func (repo schoolRepository) GetStudent(ctx context.Context, id int64) (school.Student, error) {
	var row studentRow
	if err := repo.get(ctx, &row, repo.selectStudents().Where(sq.Eq{"s.id": id})); err != nil {
		return school.Student{}, trapNoRowsErr(err, school.ErrNotFound, "selecting student")
	}
	return row.unboil(), nil
}

func (repo schoolRepository) QueryStudents(ctx context.Context, filter school.QueryFilter) ([]school.Student, error) {
	b := repo.selectStudents().
		Where(sq.Eq{"s.status": school.StudentEnrolled}).
		OrderBy("s.name ASC").
		Limit(uint64(filter.Limit))
	if filter.Search != "" {
		b = b.Where(repo.ilike(filter.Search, "s.name"))
	}

	var rows []studentRow
	if err := repo.selectAll(ctx, &rows, b); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]school.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.unboil())
	}
	return students, nil
}
