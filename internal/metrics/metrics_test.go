package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subwise/internal/core"
)

func TestResult(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("%w: 42", core.ErrNotFound), "not_found"},
		{&core.FieldError{Field: "name", Reason: "empty"}, "invalid"},
		{fmt.Errorf("%w: disk full", core.ErrPersistence), "persistence_error"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Result(tt.err))
	}
}

func TestStoreOperation(t *testing.T) {
	before := testutil.ToFloat64(storeOperations.WithLabelValues("add", "ok"))
	StoreOperation("add", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(storeOperations.WithLabelValues("add", "ok")))
}

func TestObserveSubscriptions(t *testing.T) {
	ObserveSubscriptions([]core.Subscription{
		{Status: core.StatusActive},
		{Status: core.StatusActive},
		{Status: core.StatusTrial},
	})
	assert.Equal(t, 2.0, testutil.ToFloat64(subscriptions.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(subscriptions.WithLabelValues("trial")))
	assert.Equal(t, 0.0, testutil.ToFloat64(subscriptions.WithLabelValues("cancelled")))
}

func TestRenewalsAdvancedIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(renewalsAdvanced)
	RenewalsAdvanced(0)
	RenewalsAdvanced(3)
	assert.Equal(t, before+3, testutil.ToFloat64(renewalsAdvanced))
}

func TestHandlerExposesCollectors(t *testing.T) {
	done := HTTPStarted()
	HTTPRequest(http.MethodGet, "GET /api/subscriptions", http.StatusOK, 5*time.Millisecond)
	done()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "subwise_http_requests_total"), "missing request counter")
	assert.True(t, strings.Contains(body, "subwise_http_request_duration_seconds"), "missing histogram")
}
