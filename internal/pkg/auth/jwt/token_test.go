package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func TestGenerateAndParseRoundTrip(t *testing.T) {
	payload := &Payload{
		ID:       "acct-1",
		Nickname: "User_ABC123",
		UserType: "registered",
	}

	token, err := GenerateToken(payload, testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := ParseToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "acct-1", parsed.ID)
	assert.Equal(t, "User_ABC123", parsed.Nickname)
	assert.Equal(t, "registered", parsed.UserType)
	assert.Equal(t, TokenIssuer, parsed.Issuer)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "acct-1"}, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "acct-1"}, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", testSecret)
	assert.Error(t, err)
}
