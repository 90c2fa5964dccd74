package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/ecomasomo/apps/api/echo"
	"github.com/trezcool/ecomasomo/core/user"
	emailsvc "github.com/trezcool/ecomasomo/services/email"
	testutil "github.com/trezcool/ecomasomo/tests"
)

func Test_userApi_signup(t *testing.T) {
	resetDB()

	testutil.CreateUser(t, usrRepo, "Amani", "amani", "amani@test.cd", "", user.RoleStudent, true)

	reqMsg := "this field is required"
	valid := func(mod func(nu *user.NewUser)) []byte {
		nu := user.NewUser{
			Name: "Zawadi", Username: "zawadi", Email: "zawadi@test.cd",
			Password: "Gr33n-Le@f", PasswordConfirm: "Gr33n-Le@f", School: "Green Valley",
		}
		if mod != nil {
			mod(&nu)
		}
		return marchallObj(t, nu)
	}

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": reqMsg, "username": reqMsg, "password": reqMsg, "password_confirm": reqMsg}),
		},
		{
			name: "invalid username", wantCode: http.StatusBadRequest,
			body:     valid(func(nu *user.NewUser) { nu.Username = "za wadi" }),
			wantData: marchallObj(t, map[string]string{"username": "only alphanumeric characters and underscores are allowed"}),
		},
		{
			name: "password too similar", wantCode: http.StatusBadRequest,
			body:     valid(func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "Zawadi@1", "Zawadi@1" }),
			wantData: marchallObj(t, map[string]string{"password": "password cannot be similar to user attributes"}),
		},
		{
			name: "unknown role", wantCode: http.StatusBadRequest,
			body:     valid(func(nu *user.NewUser) { nu.Role = "lol" }),
			wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		},
		{
			name: "role not allowed", wantCode: http.StatusBadRequest,
			body:     valid(func(nu *user.NewUser) { nu.Role = user.RoleSchoolAdmin }),
			wantData: marchallObj(t, map[string]string{"role": "this role cannot be chosen at signup"}),
		},
		{
			name: "username taken", wantCode: http.StatusBadRequest,
			body:     valid(func(nu *user.NewUser) { nu.Username = "AMANI" }),
			wantData: marchallObj(t, map[string]string{"username": "a user with this username already exists"}),
		},
		{
			name: "email taken", wantCode: http.StatusBadRequest,
			body:     valid(func(nu *user.NewUser) { nu.Email = "amani@test.cd" }),
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{name: "signed up", wantCode: http.StatusCreated, body: valid(nil)},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/signup"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ResetSentMessages()
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode != http.StatusCreated {
				checkCodeAndData(t, tt, rec)
				return
			}

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			var usr user.User
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usr))
			assert.NotEmpty(t, usr.ID)
			assert.Equal(t, "zawadi", usr.Username)
			assert.Equal(t, user.RoleStudent, usr.Role)
			assert.Equal(t, "Green Valley", usr.School)
			assert.Zero(t, usr.TotalPoints)
			assert.True(t, usr.IsActive)
			assert.NotContains(t, rec.Body.String(), "password")

			sent := emailsvc.GetSentMessages()
			require.Len(t, sent, 1)
			assert.Equal(t, "zawadi@test.cd", sent[0].To[0].Address)
		})
	}
}

func Test_userApi_login(t *testing.T) {
	resetDB()

	pwd := "Gr33n-Le@f"
	student := testutil.CreateUser(t, usrRepo, "Amani", "amani", "amani@test.cd", pwd, user.RoleStudent, true)
	testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", pwd, user.RoleStudent, false)

	reqMsg := "this field is required"
	authFailed := marchallObj(t, httpErr{Error: "authentication failed"})

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": reqMsg, "password": reqMsg}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest, wantData: authFailed,
			body: marchallObj(t, echoapi.LoginRequest{Username: "lol", Password: pwd}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest, wantData: authFailed,
			body: marchallObj(t, echoapi.LoginRequest{Username: "amani", Password: "lol"}),
		},
		{
			name: "inactive user", wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
			body: marchallObj(t, echoapi.LoginRequest{Username: "ndog", Password: pwd}),
		},
		{name: "by username", wantCode: http.StatusOK, body: marchallObj(t, echoapi.LoginRequest{Username: " Amani ", Password: pwd})},
		{name: "by email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.LoginRequest{Username: "amani@test.cd", Password: pwd})},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode != http.StatusOK {
				checkCodeAndData(t, tt, rec)
				return
			}

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			var respData echoapi.LoginResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &respData))
			require.NotEmpty(t, respData.Token)

			claims, err := app.Auth().ParseToken(respData.Token)
			require.NoError(t, err)
			assert.Equal(t, student.ID, claims.Subject)
			assert.Equal(t, user.RoleStudent, claims.Role)

			usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: student.ID})
			require.NoError(t, err)
			assert.False(t, usr.LastLogin.IsZero())
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	resetDB()

	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", "", user.RoleStudent, false) // 😂
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", user.RoleStudent, true)

	auth := app.Auth()
	oldOrigIat := time.Now().Add(-2 * conf.Server.JWTRefreshExpirationDelta).Unix() // older than threshold
	unrefreshableToken, err := auth.GenerateToken(auth.GetUserClaims(student, oldOrigIat))
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive user not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				var respData echoapi.LoginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &respData))
				assert.NotEmpty(t, respData.Token)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_resetPassword(t *testing.T) {
	resetDB()

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", user.RoleStudent, true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", "", user.RoleStudent, false)
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	pathRegex := regexp.MustCompile("/password-reset/.+/.+")

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{name: "required fields", wantCode: http.StatusBadRequest, wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "this field is required"})},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "inactive user", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: naughty.Email}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: student.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: student.Name, Address: student.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ResetSentMessages()

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			extra, ok := tt.extra.(extraTest)
			if !ok {
				return
			}
			sent := emailsvc.GetSentMessages()
			if !extra.emailSent {
				assert.Empty(t, sent)
				return
			}
			require.Len(t, sent, 1)
			msg := sent[0]
			assert.Equal(t, extra.to, msg.To[0])
			assert.Contains(t, msg.TextContent, extra.to.Name)
			assert.Contains(t, msg.HTMLContent, extra.to.Name)
			assert.Regexp(t, pathRegex, msg.TextContent)
			assert.Regexp(t, pathRegex, msg.HTMLContent)
		})
	}
}

func Test_userApi_confirmPasswordReset(t *testing.T) {
	resetDB()

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "lol", user.RoleStudent, true)
	tokens := user.NewTokenGenerator(conf)
	validUID := user.EncodeUID(student)
	validToken, err := tokens.MakeToken(student)
	require.NoError(t, err)

	// generate an expired token
	dayLate := conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	user.NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := tokens.MakeToken(student)
	user.NowFunc = time.Now // reset
	require.NoError(t, err)

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, user.ResetUserPassword{Token: reqMsg, UID: reqMsg, Password: reqMsg, PasswordConfirm: reqMsg}),
		},
		{
			name: "invalid pwd: min len", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "lol", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password must contain at least 8 characters"}),
		},
		{
			name: "invalid pwd: no whitespace", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "l o loll", PasswordConfirm: "l o loll"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password must not contain whitespace"}),
		},
		{
			name: "invalid pwd: not all numeric", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "12345678", PasswordConfirm: "12345678"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password cannot be entirely numeric"}),
		},
		{
			name: "invalid pwd: complexity", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "lol12345", PasswordConfirm: "lol12345"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"}),
		},
		{
			name: "invalid pwd: too common", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "P@$$w0rd", PasswordConfirm: "P@$$w0rd"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password is too common"}),
		},
		{
			name: "PasswordConfirm must = Password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "LolC@t123", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, user.ResetUserPassword{PasswordConfirm: "password_confirm must be equal to Password"}),
		},
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "!!", Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, user.ResetUserPassword{UID: "invalid value"}),
		},
		{
			name: "user not found", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: user.EncodeUID(user.User{ID: "999"}), Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, user.ResetUserPassword{UID: "invalid value"}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, user.ResetUserPassword{Token: "invalid value"}),
		},
		{
			name: "expired token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: expiredToken, UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, user.ResetUserPassword{Token: "invalid value"}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
		{
			name: "token already used", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "LolC@t456", PasswordConfirm: "LolC@t456"}),
			wantData: marchallObj(t, user.ResetUserPassword{Token: "invalid value"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: student.ID})
				require.NoError(t, err)
				assert.False(t, bytes.Equal(refreshed.PasswordHash, student.PasswordHash), "failed to update new password")
				assert.NoError(t, refreshed.CheckPassword("LolC@t123"))
			}
		})
	}
}

func Test_home(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Welcome to Eco Masomo API"))
}
