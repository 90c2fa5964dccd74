package echoapi

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecomasomo/core"
	"github.com/trezcool/ecomasomo/core/user"
)

const (
	tokenAudience   = "EcoMasomo"
	contextClaimKey = "userClaims"
	contextUserKey  = "user"
	bearerPrefix    = "Bearer "
)

// UserClaims represents the authorization claims transmitted via a JWT.
type UserClaims struct {
	jwt.RegisteredClaims
	OrigIssuedAt int64     `json:"oriat,omitempty"`
	Username     string    `json:"username,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         user.Role `json:"role"`
}

// Auth issues and verifies the bearer tokens of the API.
type Auth struct {
	appName      string
	secretKey    []byte
	expDelta     time.Duration
	refreshDelta time.Duration
	now          func() time.Time
}

func NewAuth(conf *core.Config) *Auth {
	return &Auth{
		appName:      conf.AppName,
		secretKey:    []byte(conf.SecretKey),
		expDelta:     conf.Server.JWTExpirationDelta,
		refreshDelta: conf.Server.JWTRefreshExpirationDelta,
		now:          time.Now,
	}
}

func (a *Auth) GetUserClaims(usr user.User, origIat ...int64) *UserClaims {
	now := a.now()
	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.appName,
			Subject:   usr.ID,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OrigIssuedAt: oriat,
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user claims.
func (a *Auth) GenerateToken(claims *UserClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// ParseToken verifies a token string and returns its claims.
// Tokens without a subject or a known role are rejected.
func (a *Auth) ParseToken(tokenString string) (*UserClaims, error) {
	claims := new(UserClaims)
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (interface{}, error) { return a.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(a.appName),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, errors.Wrap(err, "parsing token")
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, errors.New("incomplete claims")
	}
	return claims, nil
}

// Middleware authenticates requests carrying an `Authorization: Bearer <token>` header.
// The verified claims are stored in the echo.Context.
func (a *Auth) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
				return errMissingToken
			}

			claims, err := a.ParseToken(strings.TrimSpace(header[len(bearerPrefix):]))
			if err != nil {
				return errors.Wrap(errInvalidToken, err.Error())
			}
			ctx.Set(contextClaimKey, claims)
			return next(ctx)
		}
	}
}

func (a *Auth) authenticate(ctx echo.Context, uname, pwd string, svc user.Service) (*UserClaims, error) {
	c := ctx.Request().Context()
	usr, err := svc.GetByUsernameOrEmail(c, uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !usr.IsActive {
		return nil, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(c, usr)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return a.GetUserClaims(usr), nil
}

func (a *Auth) refreshToken(ctx echo.Context, svc user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := getContextUser(ctx, svc)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	// check if user is still active
	if !usr.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.refreshDelta)
	if a.now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := a.GenerateToken(a.GetUserClaims(usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

func getContextClaims(ctx echo.Context) (*UserClaims, error) {
	if claims, ok := ctx.Get(contextClaimKey).(*UserClaims); ok {
		return claims, nil
	}
	return nil, errUnauthorized
}

func getContextUser(ctx echo.Context, svc user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting context claims")
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}
