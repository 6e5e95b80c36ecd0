package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345"

func TestHashPassword(t *testing.T) {
	t.Run("Successfully hash password", func(t *testing.T) {
		password := "mySecurePassword123"
		hashed, err := HashPassword(password)

		assert.NoError(t, err)
		assert.NotEmpty(t, hashed)
		assert.NotEqual(t, password, hashed)
	})

	t.Run("Different hashes for same password", func(t *testing.T) {
		hash1, _ := HashPassword("samePassword")
		hash2, _ := HashPassword("samePassword")

		assert.NotEqual(t, hash1, hash2)
	})
}

func TestCheckPassword(t *testing.T) {
	hashed, _ := HashPassword("correctPassword")

	assert.True(t, CheckPassword(hashed, "correctPassword"))
	assert.False(t, CheckPassword(hashed, "wrongPassword"))
	assert.False(t, CheckPassword(hashed, ""))
}

func TestGenerateAccessToken(t *testing.T) {
	t.Run("Token contains correct claims", func(t *testing.T) {
		token, err := GenerateAccessToken("u1", "test@example.com", RoleAdmin, testSecret)
		require.NoError(t, err)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)

		assert.Equal(t, "u1", claims.UserID)
		assert.Equal(t, "u1", claims.Subject)
		assert.Equal(t, "test@example.com", claims.Email)
		assert.Equal(t, RoleAdmin, claims.Role)
		assert.Equal(t, "access", claims.TokenType)
		assert.Equal(t, jwtIssuer, claims.Issuer)
	})

	t.Run("Fail with empty secret", func(t *testing.T) {
		token, err := GenerateAccessToken("u1", "user@example.com", RoleUser, "")

		assert.Equal(t, ErrEmptyJWTSecret, err)
		assert.Empty(t, token)
	})
}

func TestGenerateTokens(t *testing.T) {
	access, refresh, err := GenerateTokens("u1", "user@example.com", RoleUser, testSecret, testSecret+"-refresh")
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	claims, err := ValidateToken(refresh, testSecret+"-refresh")
	require.NoError(t, err)
	assert.Equal(t, "refresh", claims.TokenType)
}

func TestValidateToken(t *testing.T) {
	t.Run("Wrong secret", func(t *testing.T) {
		token, _ := GenerateAccessToken("u1", "user@example.com", RoleUser, testSecret)

		_, err := ValidateToken(token, "another-secret")
		assert.Error(t, err)
	})

	t.Run("Malformed token", func(t *testing.T) {
		_, err := ValidateToken("not.a.jwt", testSecret)
		assert.Error(t, err)
	})

	t.Run("Expired token", func(t *testing.T) {
		claims := &JWTClaims{
			UserID:    "u1",
			TokenType: "access",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    jwtIssuer,
				Audience:  []string{jwtAudience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = ValidateToken(token, testSecret)
		assert.Equal(t, ErrTokenExpired, err)
	})

	t.Run("Empty secret", func(t *testing.T) {
		_, err := ValidateToken("anything", "")
		assert.Equal(t, ErrEmptyJWTSecret, err)
	})
}

func TestRefreshAccessToken(t *testing.T) {
	access, refresh, err := GenerateTokens("u1", "user@example.com", RoleUser, testSecret, testSecret)
	require.NoError(t, err)

	t.Run("Refresh token yields new access token", func(t *testing.T) {
		newAccess, claims, err := RefreshAccessToken(refresh, testSecret, testSecret)
		require.NoError(t, err)
		assert.NotEmpty(t, newAccess)
		assert.Equal(t, "u1", claims.UserID)
	})

	t.Run("Access token is rejected", func(t *testing.T) {
		_, _, err := RefreshAccessToken(access, testSecret, testSecret)
		assert.Equal(t, ErrInvalidTokenType, err)
	})
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		session *Session
		role    string
		want    Verdict
	}{
		{"anonymous", nil, RoleAdmin, Unauthorized},
		{"empty user id", &Session{Role: RoleAdmin}, RoleAdmin, Unauthorized},
		{"user asking admin", &Session{UserID: "u1", Role: RoleUser}, RoleAdmin, Unauthorized},
		{"admin", &Session{UserID: "a1", Role: RoleAdmin}, RoleAdmin, Authorized},
		{"user asking user", &Session{UserID: "u1", Role: RoleUser}, RoleUser, Authorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Authorize(tt.session, tt.role)
			assert.Equal(t, tt.want, d.Verdict)
			assert.Equal(t, tt.want == Authorized, d.Allowed())
			if !d.Allowed() {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}
