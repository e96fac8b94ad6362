package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// Namespace 所有指标的命名空间
const Namespace = "fundchainx"

// Metrics 服务指标
type Metrics struct {
	// HTTP 请求数，按方法、路由、状态码区分
	HTTPRequests metrics.Counter
	// HTTP 请求耗时（秒）
	HTTPDuration metrics.Histogram
	// 合约调用次数，result 为 ok 或 error
	ChainCalls metrics.Counter
	// 邮件发送次数
	MailSent metrics.Counter
}

// PrometheusMetrics 注册到默认 registry，进程内只能调用一次
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   stdprometheus.DefBuckets,
		}, []string{"method", "route"}),
		ChainCalls: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "calls_total",
			Help:      "Number of contract calls and transactions.",
		}, []string{"method", "result"}),
		MailSent: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "sent_total",
			Help:      "Number of emails sent.",
		}, []string{"kind", "result"}),
	}
}

// NopMetrics 不记录任何数据
func NopMetrics() *Metrics {
	return &Metrics{
		HTTPRequests: discard.NewCounter(),
		HTTPDuration: discard.NewHistogram(),
		ChainCalls:   discard.NewCounter(),
		MailSent:     discard.NewCounter(),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ChainCall 记录一次合约调用
func (m *Metrics) ChainCall(method string, err error) {
	m.ChainCalls.With("method", method, "result", result(err)).Add(1)
}

// MailDelivered 记录一次邮件发送
func (m *Metrics) MailDelivered(kind string, err error) {
	m.MailSent.With("kind", kind, "result", result(err)).Add(1)
}

// Middleware 统计请求数与耗时，路由未匹配时 route 记为 unmatched
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequests.With("method", c.Request.Method, "route", path, "status", strconv.Itoa(c.Writer.Status())).Add(1)
		m.HTTPDuration.With("method", c.Request.Method, "route", path).Observe(time.Since(start).Seconds())
	}
}
