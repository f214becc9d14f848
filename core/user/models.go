package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/sonhodourado/secretaria/core"
)

// Sectors
const (
	SectorAdmin     = "Administrador"
	SectorSecretary = "Secretaria"
	SectorFinance   = "Financeiro"
	SectorTeacher   = "Professor"
)

// Permissions
const (
	PermDashboard = "dashboard:view"
	PermSchool    = "school:manage"
	PermBilling   = "billing:manage"
	PermNotices   = "notices:send"
	PermSettings  = "settings:manage"
)

var (
	AllSectors = []string{SectorAdmin, SectorSecretary, SectorFinance, SectorTeacher}

	sectorPermissions = map[string][]string{
		SectorAdmin:     {PermDashboard, PermSchool, PermBilling, PermNotices, PermSettings},
		SectorSecretary: {PermDashboard, PermSchool, PermNotices},
		SectorFinance:   {PermDashboard, PermBilling, PermNotices},
		SectorTeacher:   {PermDashboard, PermSchool},
	}
)

// SectorPermissions returns the permissions granted to members of `sector`.
func SectorPermissions(sector string) []string {
	perms := sectorPermissions[sector]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Sector       string    `json:"sector"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.Sector == SectorAdmin
}

func (u *User) Permissions() []string {
	return SectorPermissions(u.Sector)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Sector          string `json:"sector" validate:"required,sector"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Sector = core.CleanString(nu.Sector)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username)
}

type GetFilter struct {
	ID       int64
	Username string
}
