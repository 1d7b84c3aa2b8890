package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mt5-wrapper/internal/interfaces"
	"mt5-wrapper/internal/logger"
	"mt5-wrapper/internal/metrics"
	"mt5-wrapper/internal/normalize"
	"mt5-wrapper/internal/recon"
	"mt5-wrapper/internal/store"
	"mt5-wrapper/internal/terminal"
	"mt5-wrapper/internal/types"
)

const version = "1.1.0"

// Server is the HTTP surface over the reconciliation engine. It owns no
// state of its own; every handler delegates to a collaborator and maps its
// error taxonomy onto status codes.
type Server struct {
	cfg        *store.Config
	sessions   interfaces.SessionProvider
	reconciler interfaces.Reconciler
	history    interfaces.History
	robots     interfaces.RobotRegistry
}

func New(
	cfg *store.Config,
	sessions interfaces.SessionProvider,
	reconciler interfaces.Reconciler,
	history interfaces.History,
	robots interfaces.RobotRegistry,
) *Server {
	return &Server{
		cfg:        cfg,
		sessions:   sessions,
		reconciler: reconciler,
		history:    history,
		robots:     robots,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.handleRoot)
	r.GET("/positions", s.handlePositions)
	r.GET("/positions/:ticket", s.handlePositionDetails)
	r.GET("/history", s.handleHistory)
	r.GET("/history/latest", s.handleLatestDeals)
	r.GET("/trade-details/:deal_ticket", s.handleTradeDetails)
	r.GET("/robots", s.handleRobots)

	if s.cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	return r
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "MT5 wrapper online",
		"version": version,
	})
}

func (s *Server) handlePositions(c *gin.Context) {
	ctx := c.Request.Context()

	term, release, err := s.sessions.Acquire(ctx)
	if err != nil {
		s.fail(c, "positions", err)
		return
	}
	defer release()

	positions, err := term.GetPositions(ctx)
	if err != nil {
		s.fail(c, "positions", err)
		return
	}

	out := make([]map[string]any, 0, len(positions))
	for _, p := range positions {
		raw, err := toRawRecord(p)
		if err != nil {
			s.fail(c, "positions", err)
			return
		}
		out = append(out, normalize.Record(raw))
	}

	metrics.IncRequest("positions", "ok")
	c.JSON(http.StatusOK, out)
}

func (s *Server) handlePositionDetails(c *gin.Context) {
	ticket, err := strconv.ParseInt(c.Param("ticket"), 10, 64)
	if err != nil {
		metrics.IncRequest("position_details", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "ticket must be an integer"})
		return
	}

	enriched, err := s.reconciler.EnrichPosition(c.Request.Context(), ticket)
	if err != nil {
		s.fail(c, "position_details", err)
		return
	}

	metrics.IncRequest("position_details", "ok")
	c.JSON(http.StatusOK, enriched)
}

func (s *Server) handleHistory(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		metrics.IncRequest("history", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "start_date must be YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		metrics.IncRequest("history", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "end_date must be YYYY-MM-DD"})
		return
	}

	deals, err := s.history.DealsBetween(c.Request.Context(), from, to)
	if err != nil {
		s.fail(c, "history", err)
		return
	}

	out, err := normalizeDeals(deals)
	if err != nil {
		s.fail(c, "history", err)
		return
	}

	metrics.IncRequest("history", "ok")
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleLatestDeals(c *gin.Context) {
	count := 10
	if v := c.Query("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			metrics.IncRequest("latest_deals", "bad_request")
			c.JSON(http.StatusBadRequest, gin.H{"detail": "count must be a non-negative integer"})
			return
		}
		count = n
	}

	deals, err := s.history.LatestDeals(c.Request.Context(), count)
	if err != nil {
		s.fail(c, "latest_deals", err)
		return
	}

	out, err := normalizeDeals(deals)
	if err != nil {
		s.fail(c, "latest_deals", err)
		return
	}

	metrics.IncRequest("latest_deals", "ok")
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleTradeDetails(c *gin.Context) {
	ticket, err := strconv.ParseInt(c.Param("deal_ticket"), 10, 64)
	if err != nil {
		metrics.IncRequest("trade_details", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "deal_ticket must be an integer"})
		return
	}

	trade, err := s.reconciler.EnrichDeal(c.Request.Context(), ticket)
	if err != nil {
		s.fail(c, "trade_details", err)
		return
	}

	metrics.IncRequest("trade_details", "ok")
	c.JSON(http.StatusOK, trade)
}

func (s *Server) handleRobots(c *gin.Context) {
	robots, err := s.robots.List(c.Request.Context())
	if err != nil {
		s.fail(c, "robots", err)
		return
	}

	metrics.IncRequest("robots", "ok")
	c.JSON(http.StatusOK, gin.H{"robots": robots})
}

// fail maps the engine's error taxonomy onto HTTP outcomes: missing primary
// entity → 404, unreachable terminal → 503, anything else → 500 with the
// detail logged, never leaked.
func (s *Server) fail(c *gin.Context, endpoint string, err error) {
	ctx := c.Request.Context()

	switch {
	case errors.Is(err, recon.ErrNotFound):
		metrics.IncRequest(endpoint, "not_found")
		c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	case errors.Is(err, terminal.ErrUnavailable):
		metrics.IncRequest(endpoint, "unavailable")
		logger.ErrorWithErr(ctx, "Terminal unavailable", err, "endpoint", endpoint)
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "could not connect to the MT5 terminal"})
	default:
		metrics.IncRequest(endpoint, "error")
		logger.ErrorWithErr(ctx, "Request failed", err, "endpoint", endpoint)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

// toRawRecord flattens a typed record into the map shape the normalizer
// operates on.
func toRawRecord(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("flatten record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("flatten record: %w", err)
	}
	return m, nil
}

func normalizeDeals(deals []types.Deal) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(deals))
	for _, d := range deals {
		raw, err := toRawRecord(d)
		if err != nil {
			return nil, err
		}
		out = append(out, normalize.Record(raw))
	}
	return out, nil
}
