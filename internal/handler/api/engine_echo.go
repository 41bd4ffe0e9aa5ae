package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
	domrepo "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/repository"
	icache "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/service/cache"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/service/metrics"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/service/ratelimit"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/usecase"
	xhttp "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/http"
	applogger "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/logger"
)

// EngineEchoHandler exposes the backtest and optimizer engine over HTTP.
type EngineEchoHandler struct {
	uc        *usecase.AnalysisUsecase
	cache     icache.BytesCache
	rl        *ratelimit.Limiter
	reportTTL time.Duration
	l         *applogger.Logger
}

func NewEngineEchoHandler(uc *usecase.AnalysisUsecase) *EngineEchoHandler {
	metrics.Register()
	return &EngineEchoHandler{uc: uc, rl: ratelimit.New(), reportTTL: 60 * time.Second}
}

// SetCache enables report caching keyed on the request and configuration.
func (h *EngineEchoHandler) SetCache(c icache.BytesCache, ttl time.Duration) {
	h.cache = c
	if ttl > 0 {
		h.reportTTL = ttl
	}
}

// SetLogger injects a structured logger.
func (h *EngineEchoHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *EngineEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/backtest", h.Backtest)
	g.POST("/optimize", h.Optimize)
	g.GET("/candles", h.Candles)
}

func (h *EngineEchoHandler) Backtest(c echo.Context) error {
	start := time.Now()
	endpoint := "backtest"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p := req.Params
	if p == nil {
		p = models.DefaultParams()
	}
	if err := p.Validate(); err != nil {
		return xhttp.AppErrorResponse(c, engineError(err))
	}
	if !h.rl.Allow(c.RealIP()+":backtest", 5, 2) {
		if h.l != nil {
			h.l.Warn("backtest rate_limited", applogger.String("remote", c.RealIP()))
		}
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	cacheKey := "backtest:" + req.Symbol + ":" + string(tf) + ":" + strconv.Itoa(req.Bars) + ":" + p.Hash()
	if h.cache != nil {
		if b, ok, err := h.cache.Get(c.Request().Context(), cacheKey); err != nil {
			if h.l != nil {
				h.l.Warn("backtest cache_get_error", applogger.Error(err))
			}
		} else if ok {
			if h.l != nil {
				h.l.Debug("backtest cache_hit", applogger.String("key", cacheKey))
			}
			return xhttp.SuccessResponse(c, json.RawMessage(b))
		}
	}

	report, err := h.uc.Backtest(c.Request().Context(), req.Symbol, req.Bars, tf, p)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		if h.l != nil {
			h.l.Error("backtest usecase error", applogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, engineError(err))
	}

	if h.cache != nil {
		if b, err := json.Marshal(report); err == nil {
			if err := h.cache.Set(c.Request().Context(), cacheKey, b, h.reportTTL); err != nil && h.l != nil {
				h.l.Warn("backtest cache_set_error", applogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *EngineEchoHandler) Optimize(c echo.Context) error {
	start := time.Now()
	endpoint := "optimize"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.OptimizeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p := req.Params
	if p == nil {
		p = models.DefaultParams()
	}
	if err := p.Validate(); err != nil {
		return xhttp.AppErrorResponse(c, engineError(err))
	}
	// Optimization runs are expensive, keep the budget tight per client.
	if !h.rl.Allow(c.RealIP()+":optimize", 2, 0.2) {
		if h.l != nil {
			h.l.Warn("optimize rate_limited", applogger.String("remote", c.RealIP()))
		}
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	result, err := h.uc.Optimize(c.Request().Context(), req.Symbol, req.Bars, tf, p)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		if h.l != nil {
			h.l.Error("optimize usecase error", applogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, engineError(err))
	}
	return xhttp.SuccessResponse(c, result)
}

func (h *EngineEchoHandler) Candles(c echo.Context) error {
	start := time.Now()
	endpoint := "candles"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	// Explicit time range wins over the latest-N default.
	var candles []models.Candle
	var err error
	if from, ok := xhttp.ParseTime(c.QueryParam("from")); ok {
		to := xhttp.ParseTimeDefault(c.QueryParam("to"), time.Now())
		candles, err = h.uc.CandlesRange(c.Request().Context(), req.Symbol, from, to, tf)
	} else {
		candles, err = h.uc.Candles(c.Request().Context(), req.Symbol, req.N, tf)
	}
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		if h.l != nil {
			h.l.Error("candles usecase error", applogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, engineError(err))
	}
	return xhttp.ListResponse(c, candles, int64(len(candles)))
}

// engineError maps domain failures onto transport errors: configuration and
// data problems are the client's, advisor problems are upstream's.
func engineError(err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidConfiguration):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrInsufficientData):
		return xhttp.NewAppError("ERR_INSUFFICIENT_DATA", "", err.Error(), http.StatusUnprocessableEntity).WithError(err)
	case errors.Is(err, models.ErrAdvisorTimeout), errors.Is(err, models.ErrAdvisorMalformed):
		return xhttp.NewAppError("ERR_ADVISOR", "", err.Error(), http.StatusBadGateway).WithError(err)
	default:
		return err
	}
}
