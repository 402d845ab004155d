package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	models "MomentumScan/internal/domain/models"
	domrepo "MomentumScan/internal/domain/repository"
	"MomentumScan/internal/service/ratelimit"
	"MomentumScan/internal/usecase"
	xhttp "MomentumScan/pkg/http"
	xlogger "MomentumScan/pkg/logger"
)

// Screener is the use case surface the handlers need.
type Screener interface {
	Run(ctx context.Context, market string, period domrepo.Period) (*models.ScreenReport, error)
	Latest(ctx context.Context, market string, period domrepo.Period) (*models.ScreenReport, bool, error)
	Sentiment(ctx context.Context, period domrepo.Period) models.Sentiment
	Markets() []string
}

var _ Screener = (*usecase.ScreenUseCase)(nil)

// HealthChecker is any dependency /healthz should probe.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ScreenEchoHandler serves the screening API.
type ScreenEchoHandler struct {
	logger   *xlogger.Logger
	screener Screener
	rl       *ratelimit.Limiter
	checks   map[string]HealthChecker
}

type HandlerOption func(*ScreenEchoHandler)

// WithRunLimit caps synchronous screen runs per client IP.
func WithRunLimit(perMinute float64, burst int) HandlerOption {
	return func(h *ScreenEchoHandler) { h.rl = ratelimit.New(perMinute/60, burst) }
}

func WithHealthCheck(name string, c HealthChecker) HandlerOption {
	return func(h *ScreenEchoHandler) {
		if c != nil {
			h.checks[name] = c
		}
	}
}

func NewScreenEchoHandler(logger *xlogger.Logger, screener Screener, opts ...HandlerOption) *ScreenEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &ScreenEchoHandler{
		logger:   logger,
		screener: screener,
		rl:       ratelimit.New(0, 1),
		checks:   make(map[string]HealthChecker),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ScreenEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/screen", h.Screen)
	g.GET("/screen/latest", h.Latest)
	g.GET("/sentiment", h.Sentiment)
	g.GET("/markets", h.Markets)
}

// Screen runs a screen synchronously and returns the top-N report.
func (h *ScreenEchoHandler) Screen(c echo.Context) error {
	req := &models.ScreenRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	market := strings.ToLower(req.Market)
	if !h.knownMarket(market) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("unknown market %q", req.Market).
			WithParam("options", h.screener.Markets()))
	}
	if !h.rl.Allow(c.RealIP()) {
		h.logger.Warn("screen rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many screen runs, retry later"))
	}

	report, err := h.screener.Run(c.Request().Context(), market, domrepo.NormalizePeriod(req.Period))
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyUniverse) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no symbols for market %q", market).WithError(err))
		}
		h.logger.Error("screen run failed", xlogger.String("market", market), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("screen run failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, view(report, req.Top, req.Series))
}

// Latest returns the last cached report for a market and period.
func (h *ScreenEchoHandler) Latest(c echo.Context) error {
	req := &models.LatestScreenRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	period := domrepo.NormalizePeriod(req.Period)
	report, ok, err := h.screener.Latest(c.Request().Context(), req.Market, period)
	if err != nil {
		h.logger.Warn("latest report lookup failed", xlogger.String("market", req.Market), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("report cache unavailable").WithError(err))
	}
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no report for %s/%s yet", strings.ToLower(req.Market), period))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, view(report, req.Top, false))
}

func (h *ScreenEchoHandler) Sentiment(c echo.Context) error {
	req := &models.SentimentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.screener.Sentiment(c.Request().Context(), domrepo.NormalizePeriod(req.Period)))
}

func (h *ScreenEchoHandler) Markets(c echo.Context) error {
	periods := make([]string, len(domrepo.Periods))
	for i, p := range domrepo.Periods {
		periods[i] = string(p)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"markets": h.screener.Markets(),
		"periods": periods,
	})
}

// Health probes every registered dependency with a short deadline.
func (h *ScreenEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, chk := range h.checks {
		if err := chk.Health(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *ScreenEchoHandler) knownMarket(market string) bool {
	for _, m := range h.screener.Markets() {
		if m == market {
			return true
		}
	}
	return false
}

func view(r *models.ScreenReport, top int, withSeries bool) *models.ScreenReport {
	out := r.Top(top)
	if !withSeries {
		out = out.WithoutSeries()
	}
	return out
}
