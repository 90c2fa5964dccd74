package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/ecomasomo/core"
)

// Role is the kind of account. The zero value is not a valid role.
type Role string

const (
	RoleStudent     Role = "student"      // -> STUDENT PORTAL: plays games & earns points
	RoleTeacher     Role = "teacher"      // -> TEACHER PORTAL
	RoleSchoolAdmin Role = "school_admin" // -> SCHOOL PORTAL
)

var (
	AllRoles = []Role{RoleStudent, RoleTeacher, RoleSchoolAdmin}

	// SignupRoles are the roles a user may pick when registering themselves.
	SignupRoles = []Role{RoleStudent, RoleTeacher}
)

// ParseRole returns the Role named by s, or ErrInvalidRole.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleStudent, RoleTeacher, RoleSchoolAdmin:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string { return string(r) }

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	School         string    `json:"school"`
	EducationLevel string    `json:"education_level"`
	TotalPoints    int64     `json:"total_points"`
	IsActive       bool      `json:"is_active"`
	PasswordHash   []byte    `json:"-"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
	LastLogin      time.Time `json:"last_login"` // UTC
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

func (u *User) IsStudent() bool     { return u.Role == RoleStudent }
func (u *User) IsTeacher() bool     { return u.Role == RoleTeacher }
func (u *User) IsSchoolAdmin() bool { return u.Role == RoleSchoolAdmin }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Username        string `json:"username" validate:"required,min=3,max=32,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            Role   `json:"role" validate:"omitempty,validrole"`
	School          string `json:"school" validate:"max=128"`
	EducationLevel  string `json:"education_level" validate:"max=64"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.School = core.CleanString(nu.School)
	nu.EducationLevel = core.CleanString(nu.EducationLevel)
	if nu.Role == "" {
		nu.Role = RoleStudent
	}
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Clean()
	return validate.Struct(nu)
}

// UpdateProfile defines what information a User may change on their own profile.
// It has no points: those only change through awards.
type UpdateProfile struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=128"`
	School         *string `json:"school" validate:"omitempty,max=128"`
	EducationLevel *string `json:"education_level" validate:"omitempty,max=64"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	for _, s := range []*string{up.Name, up.School, up.EducationLevel} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if up.Name != nil && *up.Name == "" {
		return core.NewFieldError("name", errEmptyName)
	}
	return validate.Struct(up)
}

func (up UpdateProfile) apply(usr *User) {
	if up.Name != nil {
		usr.Name = *up.Name
	}
	if up.School != nil {
		usr.School = *up.School
	}
	if up.EducationLevel != nil {
		usr.EducationLevel = *up.EducationLevel
	}
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

// GetFilter selects a single User. Only one field is expected to be set.
type GetFilter struct {
	ID              string
	Username        string
	Email           string
	UsernameOrEmail string
}
