package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application-level counters. HTTP-level metrics come from fiberprometheus.
var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetapp_redis_errors_total",
		Help: "Total number of Redis command errors.",
	}, []string{"command"})

	// MailSends counts outbound mail attempts by outcome.
	MailSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetapp_mail_sends_total",
		Help: "Total number of outbound mail attempts.",
	}, []string{"outcome"})

	// OTPVerifications counts OTP verification attempts by result
	// (verified, invalid, expired, no_session).
	OTPVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetapp_otp_verifications_total",
		Help: "Total number of OTP verification attempts.",
	}, []string{"result"})

	// MediaDeletes counts media file reclamations by outcome.
	MediaDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetapp_media_deletes_total",
		Help: "Total number of media file delete attempts.",
	}, []string{"outcome"})
)

var (
	promOnce sync.Once
	promInst *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the fiberprometheus middleware for HTTP metrics. The
// collectors live in the default registry, so the instance is created once
// and shared across server instances.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInst = fiberprometheus.New(serviceName)
	})
	return promInst
}

// MetricsMiddleware wraps the fiberprometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
