package user

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles {
		got, err := ParseRole(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
		assert.True(t, r.Valid())
	}
	for _, s := range []string{"", "admin", "Student", "principal"} {
		_, err := ParseRole(s)
		assert.Equal(t, ErrInvalidRole, err, s)
		assert.False(t, Role(s).Valid())
	}
}

func TestUser_Password(t *testing.T) {
	var usr User
	require.NoError(t, usr.SetPassword("Gr33n-Le@f"))
	assert.NoError(t, usr.CheckPassword("Gr33n-Le@f"))
	assert.Error(t, usr.CheckPassword("gr33n-le@f"))
}

func TestUser_JSON(t *testing.T) {
	usr := User{ID: "u-1", Username: "amani", Role: RoleStudent, TotalPoints: 40, PasswordHash: []byte("secret")}
	data, err := json.Marshal(usr)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.EqualValues(t, 40, got["total_points"])
	assert.Equal(t, "student", got["role"])
	assert.NotContains(t, got, "PasswordHash")
	assert.NotContains(t, got, "password_hash")
	assert.NotContains(t, string(data), "secret")
}

func TestUser_Roles(t *testing.T) {
	assert.True(t, (&User{Role: RoleStudent}).IsStudent())
	assert.True(t, (&User{Role: RoleTeacher}).IsTeacher())
	assert.True(t, (&User{Role: RoleSchoolAdmin}).IsSchoolAdmin())
	assert.False(t, (&User{Role: RoleTeacher}).IsStudent())
}
