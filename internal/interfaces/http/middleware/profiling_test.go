package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestControllerFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/medicines/:id":       "medicines",
		"/api/v1/bills":               "bills",
		"/api/v2/reports/sales-stats": "reports",
		"/health":                     "health",
		"/api/v1/:id":                 "",
		"":                            "",
	}
	for route, want := range tests {
		assert.Equal(t, want, controllerFromRoute(route), route)
	}
}

func TestProfiling_LabelsRequestContext(t *testing.T) {
	tenantID := uuid.New()
	labels := map[string]string{}

	r := gin.New()
	r.Use(withTenant(tenantID), Profiling(true))
	r.GET("/api/v1/bills/:id", func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(k, v string) bool {
			labels[k] = v
			return true
		})
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/bills/"+uuid.NewString(), nil))

	assert.Equal(t, "/api/v1/bills/:id", labels[ProfilingLabelRoute])
	assert.Equal(t, http.MethodGet, labels[ProfilingLabelMethod])
	assert.Equal(t, "bills", labels[ProfilingLabelController])
	assert.Equal(t, tenantID.String(), labels[ProfilingLabelTenantID])
}

func TestProfiling_Disabled(t *testing.T) {
	found := false
	r := gin.New()
	r.Use(Profiling(false))
	r.GET("/x", func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(string, string) bool {
			found = true
			return false
		})
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.False(t, found)
}
