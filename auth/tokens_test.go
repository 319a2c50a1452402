package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthq/healthq/models"
)

func testUser() *models.User {
	return &models.User{
		ID:    "user-1",
		Email: "alice@example.com",
		Name:  "Alice A",
	}
}

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := NewTokens("test-secret")

	signed, err := tokens.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	userID, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokens_ParseMissing(t *testing.T) {
	tokens := NewTokens("test-secret")

	_, err := tokens.Parse("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestTokens_ParseMalformed(t *testing.T) {
	tokens := NewTokens("test-secret")

	_, err := tokens.Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_ParseWrongSecret(t *testing.T) {
	tokens := NewTokens("test-secret")

	signed, err := tokens.Issue(testUser())
	require.NoError(t, err)

	other := NewTokens("other-secret")
	_, err = other.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_ParseExpired(t *testing.T) {
	tokens := NewTokens("test-secret")

	issued := time.Now()
	tokens.now = func() time.Time { return issued }

	signed, err := tokens.Issue(testUser())
	require.NoError(t, err)

	// The signature is still valid eight days later; expiry alone must
	// reject the token.
	tokens.now = func() time.Time { return issued.Add(8 * 24 * time.Hour) }
	_, err = tokens.Parse(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokens_ParseJustBeforeExpiry(t *testing.T) {
	tokens := NewTokens("test-secret")

	issued := time.Now()
	tokens.now = func() time.Time { return issued }

	signed, err := tokens.Issue(testUser())
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(7*24*time.Hour - time.Minute) }
	userID, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokens_Authenticate(t *testing.T) {
	tokens := NewTokens("test-secret")

	signed, err := tokens.Issue(testUser())
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid bearer", header: "Bearer " + signed, want: "user-1"},
		{name: "no header", header: "", wantErr: ErrMissingToken},
		{name: "wrong scheme", header: "Basic " + signed, wantErr: ErrMissingToken},
		{name: "bare token", header: signed, wantErr: ErrMissingToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/chat", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			userID, err := tokens.Authenticate(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, userID)
		})
	}
}
