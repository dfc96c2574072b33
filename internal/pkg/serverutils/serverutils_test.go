package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"screening-bot-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, body io.Reader) ErrorBody {
	t.Helper()
	var out ErrorBody
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestErrorHandlerMapsAppErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantMsg    string
	}{
		{
			name:       "validation keeps message",
			err:        apperror.Validation(apperror.CodeTermsNotAccepted, "terms must be accepted"),
			wantStatus: 400,
			wantType:   apperror.CodeTermsNotAccepted,
			wantMsg:    "terms must be accepted",
		},
		{
			name:       "not found",
			err:        apperror.NotFound(apperror.CodeSessionNotFound, "session not found"),
			wantStatus: 404,
			wantType:   apperror.CodeSessionNotFound,
			wantMsg:    "session not found",
		},
		{
			name:       "upstream includes cause",
			err:        apperror.Upstream(apperror.CodeEmbeddingFailure, "embedding failed", errors.New("dial tcp")),
			wantStatus: 502,
			wantType:   apperror.CodeEmbeddingFailure,
			wantMsg:    "embedding failed: dial tcp",
		},
		{
			name:       "foreign error is internal",
			err:        errors.New("kaput"),
			wantStatus: 500,
			wantType:   "",
			wantMsg:    "kaput",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(ctx *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeBody(t, resp.Body)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantType, body.ErrorType)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestFiberErrorHandlerHandlesFiberErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: FiberErrorHandler})
	app.Get("/", func(ctx *fiber.Ctx) error { return ctx.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, fiber.StatusNotFound, decodeBody(t, resp.Body).Code)
}

func TestValidateRequest(t *testing.T) {
	type payload struct {
		SessionID string `validate:"required"`
		Age       int    `validate:"gte=0"`
	}

	require.NoError(t, ValidateRequest(payload{SessionID: "s-1", Age: 9}))

	err := ValidateRequest(payload{Age: -1})
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "SessionID failed on 'required'")
	assert.Contains(t, err.Error(), "Age failed on 'gte'")
}

func signToken(t *testing.T, secret string, method jwt.SigningMethod) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"user_id": "reviewer-1",
		"role":    "psychologist",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJwtMiddleware(t *testing.T) {
	const secret = "test-secret"

	app := fiber.New()
	app.Use(NewJwtMiddleware(secret))
	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.SendString(ctx.Locals("role").(string))
	})

	t.Run("missing header", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong secret", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "other", jwt.SigningMethodHS256))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, secret, jwt.SigningMethodHS256))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "psychologist", string(body))
	})
}
