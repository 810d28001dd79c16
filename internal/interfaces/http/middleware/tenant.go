package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/infrastructure/logger"
	"github.com/pharmabill/backend/internal/interfaces/http/dto"
)

// Tenant context keys. TenantIDKey holds the string form read by the
// request logger; tenantUUIDKey holds the parsed value used by handlers.
const (
	TenantIDKey   = "tenant_id"
	tenantUUIDKey = "tenant_uuid"
)

// RequireTenant resolves the pharmacy from the JWT claims. Every billing,
// catalog and report call is scoped to this tenant, so requests without a
// valid tenant claim are rejected. Must run after JWT middleware.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := GetJWTTenantID(c)
		tenantID, err := uuid.Parse(raw)
		if raw == "" || err != nil || tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Tenant context is required", GetRequestID(c)))
			return
		}

		c.Set(TenantIDKey, tenantID.String())
		c.Set(tenantUUIDKey, tenantID)

		ctx := logger.WithTenantID(c.Request.Context(), tenantID.String())
		if userID := GetJWTUserID(c); userID != "" {
			ctx = logger.WithUserID(ctx, userID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetTenantID returns the tenant resolved by RequireTenant
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(tenantUUIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
