package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/infrastructure/auth"
	"github.com/pharmabill/backend/internal/infrastructure/config"
	"github.com/pharmabill/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		Issuer:                "pharmabill-test",
		AccessTokenExpiration: expiration,
	})
}

func issueToken(t *testing.T, svc *auth.JWTService, tenantID uuid.UUID) string {
	t.Helper()
	tok, err := svc.GenerateToken(auth.TokenInput{TenantID: tenantID, UserID: uuid.New(), Username: "counter-1"})
	require.NoError(t, err)
	return tok.AccessToken
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
