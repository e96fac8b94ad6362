package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := stdprometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v != lp.GetValue() {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestPrometheusMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := PrometheusMetrics(Namespace)

	m.ChainCall("getCampaignDetails", nil)
	m.ChainCall("getCampaignDetails", errors.New("timeout"))
	m.ChainCall("getCampaignDetails", nil)
	m.MailDelivered("verification", nil)

	assert.Equal(t, 2.0, counterValue(t, "fundchainx_chain_calls_total",
		map[string]string{"method": "getCampaignDetails", "result": "ok"}))
	assert.Equal(t, 1.0, counterValue(t, "fundchainx_chain_calls_total",
		map[string]string{"method": "getCampaignDetails", "result": "error"}))
	assert.Equal(t, 1.0, counterValue(t, "fundchainx_mail_sent_total",
		map[string]string{"kind": "verification", "result": "ok"}))

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/campaigns/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/campaigns/7", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1.0, counterValue(t, "fundchainx_http_requests_total",
		map[string]string{"route": "/api/campaigns/:id", "status": "404"}))
}

func TestNopMetrics(t *testing.T) {
	m := NopMetrics()
	assert.NotPanics(t, func() {
		m.ChainCall("claimRefund", nil)
		m.MailDelivered("reset", errors.New("smtp"))
	})
}
