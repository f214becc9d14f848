// Package testutil prepares a migrated in-memory database and seeds records for tests.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/billing"
	"github.com/sonhodourado/secretaria/core/school"
	"github.com/sonhodourado/secretaria/core/user"
	"github.com/sonhodourado/secretaria/storage/database"
	sqlxrepos "github.com/sonhodourado/secretaria/storage/database/sqlx"
)

func init() {
	goose.SetLogger(log.New(io.Discard, "", 0))
}

// PrepareDB returns a fresh, migrated in-memory SQLite database closed at the end of the test.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open(database.SQLite, "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	// every connection to :memory: is its own database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateUser(t *testing.T, db *sqlx.DB, uname, pwd, sector string, isActive bool) user.User {
	t.Helper()
	usr := user.User{
		Username:  uname,
		Email:     uname + "@escola.test",
		Sector:    sector,
		IsActive:  isActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := sqlxrepos.NewUserRepository(db).CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateTeacher(t *testing.T, db *sqlx.DB, name string) school.Teacher {
	t.Helper()
	teacher, err := sqlxrepos.NewSchoolRepository(db).CreateTeacher(context.Background(), school.Teacher{
		Name:       name,
		CPF:        "123.456.789-00",
		Position:   school.DefaultPosition,
		BaseSalary: decimal.NewFromInt(3000),
		Status:     school.TeacherActive,
	})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return teacher
}

func CreateClass(t *testing.T, db *sqlx.DB, name string, teacherID int64) school.Class {
	t.Helper()
	class, err := sqlxrepos.NewSchoolRepository(db).CreateClass(context.Background(), school.Class{
		Name:      name,
		TeacherID: teacherID,
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return class
}

// CreateStudent enrolls a student; the mother is named after the student.
func CreateStudent(t *testing.T, db *sqlx.DB, name string, classID int64, email, phone string) school.Student {
	t.Helper()
	std, err := sqlxrepos.NewSchoolRepository(db).CreateStudent(context.Background(), school.Student{
		Name:       name,
		MotherName: "Mãe de " + name,
		ClassID:    classID,
		Status:     school.StudentEnrolled,
		Email:      email,
		Phone:      phone,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateCharge(t *testing.T, db *sqlx.DB, studentID int64, amount string, due core.Date, status string) billing.Charge {
	t.Helper()
	charge, err := sqlxrepos.NewChargeRepository(db).CreateCharge(context.Background(), billing.Charge{
		StudentID:   studentID,
		Description: "Mensalidade",
		Amount:      decimal.RequireFromString(amount),
		DueDate:     due,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateCharge() failed: %v", err)
	}
	return charge
}
