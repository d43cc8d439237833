package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(authEvents.WithLabelValues("login", OutcomeFailure))
	AuthEvent("login", errors.New("nope"))
	assert.Equal(t, before+1, testutil.ToFloat64(authEvents.WithLabelValues("login", OutcomeFailure)))

	before = testutil.ToFloat64(mailDeliveries.WithLabelValues("smtp", OutcomeSuccess))
	MailDelivery("smtp", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(mailDeliveries.WithLabelValues("smtp", OutcomeSuccess)))

	HTTPRequest(http.MethodGet, "/api/health", http.StatusOK)
	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/health", "200")))
}

func TestHandler(t *testing.T) {
	HTTPRequest(http.MethodPost, "/api/auth/login", http.StatusUnauthorized)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `scibridge_http_requests_total{code="401",method="POST",path="/api/auth/login"}`)
}
