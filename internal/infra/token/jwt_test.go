package token

import (
	"testing"
	"time"

	"storefront/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_IssueAndParse(t *testing.T) {
	j := NewJWT("secret", time.Hour)
	now := time.Now()

	raw, exp, err := j.Issue("user-1", "Alice@Example.com", model.RoleUser, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), exp, time.Second)

	c, err := j.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.Subject)
	assert.Equal(t, model.RoleUser, c.Role)
	assert.Equal(t, "alice@example.com", c.OwnerKey())
}

func TestJWT_GuestOwnerKeyIsSubject(t *testing.T) {
	j := NewJWT("secret", time.Hour)

	raw, _, err := j.Issue("guest_abc", "", model.RoleGuest, time.Now())
	require.NoError(t, err)

	c, err := j.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "guest_abc", c.OwnerKey())
}

func TestJWT_Rejects(t *testing.T) {
	j := NewJWT("secret", time.Hour)

	t.Run("expired", func(t *testing.T) {
		raw, _, err := j.Issue("user-1", "", model.RoleUser, time.Now().Add(-2*time.Hour))
		require.NoError(t, err)
		_, err = j.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		raw, _, err := NewJWT("other", time.Hour).Issue("user-1", "", model.RoleUser, time.Now())
		require.NoError(t, err)
		_, err = j.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "user-1",
			"role": "ROOT",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = j.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("guest without guest key", func(t *testing.T) {
		raw, _, err := j.Issue("alice", "", model.RoleGuest, time.Now())
		require.NoError(t, err)
		_, err = j.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := j.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
