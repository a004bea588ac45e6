package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"quill/internal/config"
	"quill/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_AuthRequired(t *testing.T) {
	secret := "test-secret-key-12345678901234567890123456789012"
	s := &Server{
		config: &config.Config{JWTSecret: secret},
	}
	app := fiber.New()

	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		userID := c.Locals("userID")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": userID})
	})

	generateToken := func(userID uint, issuer, audience string, exp time.Duration) string {
		claims := jwt.MapClaims{
			"sub": strconv.FormatUint(uint64(userID), 10),
			"iss": issuer,
			"aud": audience,
			"exp": time.Now().Add(exp).Unix(),
			"jti": "test-jti-valid-length",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		str, _ := token.SignedString([]byte(secret))
		return str
	}

	tests := []struct {
		name            string
		authHeader      string
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:           "Valid Token",
			authHeader:     "Bearer " + generateToken(123, middleware.TokenIssuer, middleware.TokenAudience, time.Hour),
			expectedStatus: http.StatusOK,
		},
		{
			name:            "Expired Token",
			authHeader:      "Bearer " + generateToken(123, middleware.TokenIssuer, middleware.TokenAudience, -time.Hour),
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Not authorized, token failed",
		},
		{
			name:            "Invalid Issuer",
			authHeader:      "Bearer " + generateToken(123, "wrong-issuer", middleware.TokenAudience, time.Hour),
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Not authorized, token failed",
		},
		{
			name:            "Invalid Audience",
			authHeader:      "Bearer " + generateToken(123, middleware.TokenIssuer, "wrong-audience", time.Hour),
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Not authorized, token failed",
		},
		{
			name:            "Missing Header",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Not authorized, no token",
		},
		{
			name:            "Malformed Bearer Format",
			authHeader:      "BearerTokenOnly",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Not authorized, no token",
		},
		{
			name: "Invalid Subject Type",
			authHeader: "Bearer " + func() string {
				claims := jwt.MapClaims{"sub": 123, "iss": middleware.TokenIssuer, "aud": middleware.TokenAudience, "exp": time.Now().Add(time.Hour).Unix()}
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
				str, _ := token.SignedString([]byte(secret))
				return str
			}(),
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Not authorized, token failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]interface{}
			_ = json.NewDecoder(resp.Body).Decode(&body)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, float64(123), body["userID"])
			} else {
				assert.Equal(t, tt.expectedMessage, body["message"])
			}
		})
	}
}
