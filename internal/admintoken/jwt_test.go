package admintoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "revalid/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "revalid")

	token, err := svc.GenerateToken("case.admin@example.org", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "case.admin@example.org", claims.Admin)
	assert.Equal(t, "revalid", claims.Issuer)
}

func TestValidateToken(t *testing.T) {
	svc := NewService("test-signing-key", "revalid")

	t.Run("expired token is rejected", func(t *testing.T) {
		token, err := svc.GenerateToken("case.admin@example.org", -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("token signed with another key is rejected", func(t *testing.T) {
		other := NewService("different-key", "revalid")
		token, err := other.GenerateToken("case.admin@example.org", time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
