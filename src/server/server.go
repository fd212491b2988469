package server

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"portfolio-observer/src/alerts"
	"portfolio-observer/src/interfaces"
	"portfolio-observer/src/logger"
	"portfolio-observer/src/models"
	"portfolio-observer/src/utils"
)

// -----------------------------------------------------------------------------
// AlertServer: REST control surface plus the websocket hub pushing alert
// payloads. All mutations go through the engine; the server holds no domain
// state of its own beyond the latest broadcast payload.
// -----------------------------------------------------------------------------

type AlertServer struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Engine  *alerts.AlertEngine
	History *utils.HistoryStore
	engine  *gin.Engine

	// OnWatchlistChange is invoked after any watchlist mutation so the feed
	// can repoint its polling set.
	OnWatchlistChange func([]string)

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MLatestAlerts
	register   chan *Client
	unregister chan *Client

	latestState *models.MLatestAlerts
	stateMutex  sync.RWMutex
	done        chan struct{}
}

var _ interfaces.IDataExchanger = (*AlertServer)(nil)

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAlertServer(cfg *models.MConfig, eng *alerts.AlertEngine, history *utils.HistoryStore, log *logger.Logger) *AlertServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &AlertServer{
		Config:  cfg,
		Logger:  log,
		Engine:  eng,
		History: history,
		engine:  gin.Default(),
		clients: make(map[*Client]struct{}),
		// Buffered so a burst of recomputes never blocks the producer
		broadcast:   make(chan *models.MLatestAlerts, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		latestState: &models.MLatestAlerts{Type: "INITIAL"},
		done:        make(chan struct{}),
	}

	// CORS for the local UI
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *AlertServer) setupRoutes() {
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)

	s.engine.GET("/api/rules", s.getRules)
	s.engine.PATCH("/api/rules", s.patchRules)

	s.engine.GET("/api/alerts", s.getAlerts)
	s.engine.GET("/api/badge", s.getBadge)
	s.engine.POST("/api/badge/viewed", s.postBadgeViewed)

	s.engine.GET("/api/targets", s.getTargets)
	s.engine.POST("/api/targets", s.postTarget)
	s.engine.DELETE("/api/targets/:id", s.deleteTarget)

	s.engine.GET("/api/watchlist", s.getWatchlist)
	s.engine.POST("/api/watchlist", s.postWatchlistEntry)
	s.engine.DELETE("/api/watchlist/:code", s.deleteWatchlistEntry)

	s.engine.GET("/api/history/:code", s.getHistory)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *AlertServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// Stop terminates the hub loop. The receive channels stay open so a late
// register or broadcast never hits a closed channel; only the loop goes away.
func (s *AlertServer) Stop() error {
	close(s.done)
	return nil
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *AlertServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := len(s.clients)
	timestamp := s.latestState.Timestamp
	s.stateMutex.RUnlock()

	c.JSON(200, gin.H{
		"status":        "ok",
		"connections":   connections,
		"latest_update": timestamp,
	})
}

// -----------------------------------------------------------------------------

func (s *AlertServer) getConfig(c *gin.Context) {
	c.JSON(200, gin.H{
		"name":            s.Config.Name,
		"feed":            s.Config.Feed.Name,
		"update_interval": s.Config.Feed.UpdateIntervalSeconds,
	})
}

// -----------------------------------------------------------------------------

func (s *AlertServer) getRules(c *gin.Context) {
	c.JSON(200, s.Engine.Rules.Rules())
}

// -----------------------------------------------------------------------------

// patchRules merges a partial update into the rule set. Malformed numbers are
// coerced rather than rejected, so this never fails on threshold values.
func (s *AlertServer) patchRules(c *gin.Context) {
	var patch models.MRulePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid rule patch: %v", err)})
		return
	}

	rules := s.Engine.UpdateRules(patch)
	c.JSON(200, rules)
}

// -----------------------------------------------------------------------------

func (s *AlertServer) getAlerts(c *gin.Context) {
	latest := s.Engine.Latest()
	if scope := c.Query("scope"); scope != "" {
		latest = scopePayload(latest, scope)
	}
	c.JSON(200, latest)
}

// -----------------------------------------------------------------------------

func (s *AlertServer) getBadge(c *gin.Context) {
	c.JSON(200, gin.H{
		"badge":       s.Engine.Badge.Counts(),
		"badge_state": s.Engine.Badge.State(s.Engine.Rules.Rules()),
	})
}

// -----------------------------------------------------------------------------

func (s *AlertServer) postBadgeViewed(c *gin.Context) {
	var req struct {
		Scope string `json:"scope"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}
	if req.Scope != models.BadgeScopeCustom && req.Scope != models.BadgeScopeAll {
		c.JSON(400, gin.H{"error": fmt.Sprintf("unknown scope %q", req.Scope)})
		return
	}

	counts := s.Engine.MarkViewed(req.Scope)
	c.JSON(200, gin.H{
		"badge":       counts,
		"badge_state": s.Engine.Badge.State(s.Engine.Rules.Rules()),
	})
}

// -----------------------------------------------------------------------------

func (s *AlertServer) getTargets(c *gin.Context) {
	c.JSON(200, s.Engine.Targets())
}

// -----------------------------------------------------------------------------

func (s *AlertServer) postTarget(c *gin.Context) {
	var target models.MTargetAlert
	if err := c.ShouldBindJSON(&target); err != nil {
		c.JSON(400, gin.H{"error": "invalid target body"})
		return
	}
	if !target.Valid() {
		c.JSON(400, gin.H{"error": "target needs a code, a positive price and a direction of above/below"})
		return
	}

	saved, err := s.Engine.SaveTarget(target)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, saved)
}

// -----------------------------------------------------------------------------

func (s *AlertServer) deleteTarget(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid target id"})
		return
	}

	if err := s.Engine.DeleteTarget(id); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"deleted": id})
}

// -----------------------------------------------------------------------------

func (s *AlertServer) getWatchlist(c *gin.Context) {
	c.JSON(200, s.Engine.Watchlist())
}

// -----------------------------------------------------------------------------

func (s *AlertServer) postWatchlistEntry(c *gin.Context) {
	var entry models.MWatchlistEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(400, gin.H{"error": "invalid watchlist body"})
		return
	}
	if entry.Code == "" {
		c.JSON(400, gin.H{"error": "watchlist entry needs a code"})
		return
	}
	entry.Code = alerts.NormalizeCode(entry.Code)
	entry.Sector = strings.ToUpper(entry.Sector)

	if err := s.Engine.SaveWatchlistEntry(entry); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	if s.OnWatchlistChange != nil {
		s.OnWatchlistChange(s.Engine.WatchedCodes())
	}
	c.JSON(200, entry)
}

// -----------------------------------------------------------------------------

func (s *AlertServer) deleteWatchlistEntry(c *gin.Context) {
	code := alerts.NormalizeCode(c.Param("code"))
	if err := s.Engine.DeleteWatchlistEntry(code); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	if s.OnWatchlistChange != nil {
		s.OnWatchlistChange(s.Engine.WatchedCodes())
	}
	c.JSON(200, gin.H{"deleted": code})
}

// -----------------------------------------------------------------------------

func (s *AlertServer) getHistory(c *gin.Context) {
	code := alerts.NormalizeCode(c.Param("code"))

	n := 100
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(400, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = parsed
	}

	if s.History == nil || !s.History.HasCode(code) {
		c.JSON(404, gin.H{"error": fmt.Sprintf("no history for %s", code)})
		return
	}

	c.JSON(200, gin.H{
		"code":      code,
		"snapshots": s.History.RecentHistory(code, n),
	})
}
