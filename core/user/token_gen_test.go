package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecomasomo/core"
)

func TestTokenGenerator(t *testing.T) {
	gen := NewTokenGenerator(&core.Config{SecretKey: "s3cr3t", PasswordResetTimeoutDelta: 3 * 24 * time.Hour})
	usr := User{ID: "0b7f6a36-4a39-4a5e-9a55-2c1d3b6b1c2e", PasswordHash: []byte("hash")}
	defer func() { NowFunc = time.Now }()

	token, err := gen.MakeToken(usr)
	require.NoError(t, err)
	assert.NoError(t, gen.VerifyToken(usr, token))

	t.Run("uid round trip", func(t *testing.T) {
		id, err := decodeUID(EncodeUID(usr))
		require.NoError(t, err)
		assert.Equal(t, usr.ID, id)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, tok := range []string{"", "lol", "!!-sig", "MTIz-sig"} {
			assert.Equal(t, errInvalidToken, gen.VerifyToken(usr, tok), tok)
		}
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewTokenGenerator(&core.Config{SecretKey: "other", PasswordResetTimeoutDelta: 3 * 24 * time.Hour})
		assert.Equal(t, errInvalidToken, other.VerifyToken(usr, token))
	})

	t.Run("password changed", func(t *testing.T) {
		changed := usr
		changed.PasswordHash = []byte("new hash")
		assert.Equal(t, errInvalidToken, gen.VerifyToken(changed, token))
	})

	t.Run("logged in since", func(t *testing.T) {
		changed := usr
		changed.LastLogin = time.Now()
		assert.Equal(t, errInvalidToken, gen.VerifyToken(changed, token))
	})

	t.Run("expired", func(t *testing.T) {
		NowFunc = func() time.Time { return time.Now().Add(-4 * 24 * time.Hour) }
		old, err := gen.MakeToken(usr)
		NowFunc = time.Now
		require.NoError(t, err)
		assert.Equal(t, errTokenExpired, gen.VerifyToken(usr, old))
	})
}
