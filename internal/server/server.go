// Package server exposes the read views over HTTP. Queries never fail due to
// ingestion problems; at worst they return views with placeholder fields.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gdash/internal/metrics"
	"gdash/internal/state"
)

// defaultLimit bounds the recent-orders and warehouse views when the caller
// does not pass ?limit=.
const defaultLimit = 50

type Server struct {
	store *state.Store
	mreg  *metrics.Registry
	log   *zap.SugaredLogger
}

func New(st *state.Store, mreg *metrics.Registry, log *zap.SugaredLogger) *Server {
	return &Server{store: st, mreg: mreg, log: log}
}

// Router builds the gin engine with the query boundary, health and metrics.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/orders", s.getOrders)
	api.GET("/loyalty", s.getLoyalty)
	api.GET("/warehouse/orders", s.getWarehouseOrders)
	api.GET("/debug", s.getDebug)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.mreg.Handler()))
	return r
}

func (s *Server) getOrders(c *gin.Context) {
	limit := limitParam(c)
	t0 := time.Now()
	views := s.store.RecentOrders(limit)
	s.mreg.ViewLatencySec.WithLabelValues("orders").Observe(time.Since(t0).Seconds())
	c.JSON(http.StatusOK, views)
}

func (s *Server) getLoyalty(c *gin.Context) {
	t0 := time.Now()
	views := s.store.LoyaltyRanking()
	s.mreg.ViewLatencySec.WithLabelValues("loyalty").Observe(time.Since(t0).Seconds())
	c.JSON(http.StatusOK, views)
}

func (s *Server) getWarehouseOrders(c *gin.Context) {
	limit := limitParam(c)
	t0 := time.Now()
	views := s.store.WarehouseOrders(limit)
	s.mreg.ViewLatencySec.WithLabelValues("warehouse").Observe(time.Since(t0).Seconds())
	c.JSON(http.StatusOK, views)
}

func (s *Server) getDebug(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Diagnostics())
}

func limitParam(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return defaultLimit
	}
	return n
}
