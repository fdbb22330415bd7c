package api

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"IPOPulse/internal/domain/models"
	"IPOPulse/internal/service/activity"
	"IPOPulse/internal/usecase"
	"IPOPulse/pkg/cache"
	xhttp "IPOPulse/pkg/http"
	xlogger "IPOPulse/pkg/logger"
	"IPOPulse/pkg/util"
)

// ListingsHandler exposes the aggregation boundary over HTTP. It is a
// thin shell: all semantics live in the aggregator.
type ListingsHandler struct {
	logger   *xlogger.Logger
	agg      *usecase.Aggregator
	recorder *activity.Recorder
	cache    cache.Service
	cacheTTL time.Duration
}

func NewListingsHandler(logger *xlogger.Logger, agg *usecase.Aggregator, recorder *activity.Recorder, passCache cache.Service, cacheTTL time.Duration) *ListingsHandler {
	return &ListingsHandler{
		logger:   logger,
		agg:      agg,
		recorder: recorder,
		cache:    passCache,
		cacheTTL: cacheTTL,
	}
}

func (h *ListingsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/offerings", h.operation(models.OpOfferings))
	g.GET("/demand", h.operation(models.OpDemand))
	g.GET("/sentiment", h.operation(models.OpSentiment))
	g.GET("/quota", h.Quota)
	g.GET("/probe/:source", h.Probe)
	g.GET("/activity", h.Activity)
}

func (h *ListingsHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// operation serves one aggregation operation, with a short-TTL cache so
// browser refreshes between passes don't trigger rescrapes.
func (h *ListingsHandler) operation(op models.Operation) echo.HandlerFunc {
	return func(c echo.Context) error {
		sources := splitSources(c.QueryParam("sources"))
		key := cacheKey(op, sources)

		if h.cache != nil {
			var cached models.AggregateResult
			if err := h.cache.Get(c.Request().Context(), key, &cached); err == nil {
				return xhttp.SuccessResponse(c, &cached)
			}
		}

		res := h.agg.Run(c.Request().Context(), op, sources)

		if h.cache != nil && res.SuccessfulSources > 0 {
			if err := h.cache.Set(c.Request().Context(), key, res, h.cacheTTL); err != nil {
				h.logger.Warn("pass cache write failed", xlogger.Error(err))
			}
		}
		return xhttp.SuccessResponse(c, res)
	}
}

func (h *ListingsHandler) Quota(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.agg.QuotaStatus())
}

func (h *ListingsHandler) Probe(c echo.Context) error {
	source := c.Param("source")
	if _, ok := h.agg.Adapter(source); !ok {
		return xhttp.NotFoundResponse(c, map[string]string{"source": source})
	}
	return xhttp.SuccessResponse(c, h.agg.Probe(c.Request().Context(), source))
}

func (h *ListingsHandler) Activity(c echo.Context) error {
	limit := util.ParseIntDefault(c.QueryParam("limit"), 50)
	entries, err := h.recorder.Recent(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("activity query failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if entries == nil {
		entries = []models.ActivityEntry{}
	}
	return xhttp.SuccessResponse(c, entries)
}

func splitSources(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func cacheKey(op models.Operation, sources []string) string {
	if len(sources) == 0 {
		return "pass:" + string(op)
	}
	return "pass:" + string(op) + ":" + strings.Join(sources, ",")
}
