package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ecomasomo/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidPoints  = errors.New("points must be a positive integer")
	ErrPointsOverflow = errors.New("points total out of range")

	errEmptyName    = errors.New("name cannot be blank")
	errInvalidValue = errors.New("invalid value")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// UpdateUser saves the profile attributes, IsActive, PasswordHash & LastLogin of usr.
		// TotalPoints is never written.
		UpdateUser(ctx context.Context, usr User) (User, error)
		// IncrementPoints atomically adds points to the stored total of the User with the given id
		// and returns the new total.
		IncrementPoints(ctx context.Context, id string, points int64) (int64, error)
		QueryLeaderboard(ctx context.Context, filter LeaderboardFilter) ([]LeaderboardEntry, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		UpdateProfile(ctx context.Context, id string, up UpdateProfile) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) (User, error)
		AwardPoints(ctx context.Context, id string, points int64) (int64, error)
		Leaderboard(ctx context.Context, filter LeaderboardFilter) ([]LeaderboardEntry, error)
	}

	service struct {
		repo    Repository
		cache   LeaderboardCache
		mailSvc core.EmailService
		logger  core.Logger
		tokens  *TokenGenerator
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	cache LeaderboardCache,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) Service {
	return &service{
		repo:    repo,
		cache:   cache,
		mailSvc: mailSvc,
		logger:  logger,
		tokens:  NewTokenGenerator(conf),
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return errors.Wrap(err, "checking username uniqueness")
		}
		return core.NewFieldError(field, err)
	}
	return nil
}

// Create creates a new active User from a validated NewUser and sends them a welcome email.
func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.CheckUniqueness(ctx, nu.Username, nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Name:           nu.Name,
		Username:       nu.Username,
		Email:          nu.Email,
		Role:           nu.Role,
		School:         nu.School,
		EducationLevel: nu.EducationLevel,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if !usr.Role.Valid() {
		return User{}, core.NewFieldError("role", ErrInvalidRole)
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// UpdateProfile applies a validated UpdateProfile to the User with the given id.
func (svc *service) UpdateProfile(ctx context.Context, id string, up UpdateProfile) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	up.apply(&usr)
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// RequestPasswordReset emails a password reset link to the active User with the given email.
func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return nil
	}
	token, err := svc.tokens.MakeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: passwordResetData{Name: usr.Name, UID: EncodeUID(usr), Token: token},
	})
	return nil
}

// ResetPassword sets a new password for the User encoded in data.UID, if data.Token is valid.
func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) (User, error) {
	id, err := decodeUID(data.UID)
	if err != nil {
		return User{}, core.NewFieldError("uid", errInvalidValue)
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, core.NewFieldError("uid", errInvalidValue)
		}
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokens.VerifyToken(usr, data.Token); err != nil {
		return User{}, core.NewFieldError("token", errInvalidValue)
	}
	return svc.SetPassword(ctx, usr, data.Password)
}

// AwardPoints adds a positive amount of points to the total of the User with the given id
// and returns the new total. The increment is done by the Repository in a single atomic step.
func (svc *service) AwardPoints(ctx context.Context, id string, points int64) (int64, error) {
	if points <= 0 {
		return 0, core.NewFieldError("points", ErrInvalidPoints)
	}
	total, err := svc.repo.IncrementPoints(ctx, id, points)
	if err != nil {
		return 0, errors.Wrap(err, "incrementing points")
	}
	return total, nil
}

func (svc *service) sendWelcomeMail(usr User) {
	if usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: welcomeData{Name: usr.Name, Username: usr.Username},
	})
}

type (
	welcomeData struct {
		Name     string
		Username string
	}

	passwordResetData struct {
		Name  string
		UID   string
		Token string
	}
)
