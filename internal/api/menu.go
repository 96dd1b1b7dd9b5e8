package api

import (
	"bytes"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"menuopt/internal/engine"
	"menuopt/internal/export"
	"menuopt/internal/loader"
	"menuopt/internal/logger"
	"menuopt/internal/metrics"
	"menuopt/internal/monitoring"

	"github.com/gin-gonic/gin"
)

// View names used for metric labels
const (
	ViewRemoval     = "removal_candidates"
	ViewWaste       = "waste_ranking"
	ViewSuggestions = "high_waste_suggestions"
	ViewHighMargin  = "high_margin"
	ViewMostWasted  = "most_wasted"
	ViewRestock     = "restock_reduction"
	ViewIngredients = "ingredients"
)

// Options carries the collaborators of the API
type Options struct {
	JWTSecret string
	Columns   loader.Columns
	Logger    *logger.Logger
	Metrics   *metrics.MetricsCollector
	Monitor   *monitoring.Monitor
}

// MenuAPI serves the menu views and the chat assistant over HTTP
type MenuAPI struct {
	Router  *gin.Engine
	Engine  *engine.Engine
	columns loader.Columns
	secret  string
	log     *logger.Logger
	metrics *metrics.MetricsCollector
	monitor *monitoring.Monitor
}

// ChatRequest is the body of POST /api/v1/chat
type ChatRequest struct {
	Text string `json:"text"`
}

// ChatResponse is the reply to a chat request
type ChatResponse struct {
	Reply string `json:"reply"`
	Rule  string `json:"rule"`
}

// NewMenuAPI creates a new menu API instance
func NewMenuAPI(eng *engine.Engine, opts Options) *MenuAPI {
	if opts.Logger == nil {
		opts.Logger = logger.New(logger.DefaultConfig())
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewMetricsCollector()
	}
	if opts.Monitor == nil {
		opts.Monitor = monitoring.NewMonitor()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(opts.Logger.GinMiddleware())

	api := &MenuAPI{
		Router:  router,
		Engine:  eng,
		columns: opts.Columns,
		secret:  opts.JWTSecret,
		log:     opts.Logger.WithComponent("api"),
		metrics: opts.Metrics,
		monitor: opts.Monitor,
	}
	api.metrics.SetDatasetRows(eng.Len())

	api.setupRoutes()
	return api
}

// setupRoutes configures all API endpoints
func (m *MenuAPI) setupRoutes() {
	m.Router.Use(m.timeRequests())

	m.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "dishes": m.Engine.Len()})
	})

	v1 := m.Router.Group("/api/v1")
	v1.Use(AuthMiddleware(m.secret))
	{
		v1.GET("/menu", m.GetMenu)
		v1.GET("/ingredients", m.GetIngredients)
		v1.GET("/stats", m.GetStats)

		views := v1.Group("/views")
		views.GET("/removal-candidates", m.GetRemovalCandidates)
		views.GET("/waste-ranking", m.GetWasteRanking)
		views.GET("/high-waste-suggestions", m.GetHighWasteSuggestions)
		views.GET("/high-margin", m.GetHighMargin)
		views.GET("/most-wasted", m.GetMostWasted)
		views.GET("/restock-reduction", m.GetRestockReduction)

		v1.POST("/chat", m.Chat)
		v1.GET("/export/menu.csv", m.ExportMenu)
	}

	m.Router.GET("/ws", WebSocketAuthMiddleware(m.secret), m.handleWebSocket)
}

func (m *MenuAPI) timeRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.metrics.ObserveRequest(route, time.Since(start).Seconds())
	}
}

func (m *MenuAPI) recordView(view string) {
	m.metrics.RecordView(view)
	m.monitor.Increment("view_" + view)
}

// GetMenu returns the whole table
func (m *MenuAPI) GetMenu(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rows": m.Engine.Rows()})
}

func (m *MenuAPI) GetRemovalCandidates(c *gin.Context) {
	m.recordView(ViewRemoval)
	c.JSON(http.StatusOK, gin.H{"rows": m.Engine.RemovalCandidates()})
}

func (m *MenuAPI) GetWasteRanking(c *gin.Context) {
	m.recordView(ViewWaste)
	c.JSON(http.StatusOK, gin.H{"rows": m.Engine.WasteRanking()})
}

func (m *MenuAPI) GetHighWasteSuggestions(c *gin.Context) {
	m.recordView(ViewSuggestions)
	c.JSON(http.StatusOK, gin.H{"rows": m.Engine.HighWasteSuggestions()})
}

// GetHighMargin filters by ?threshold, which must lie in the slider range
func (m *MenuAPI) GetHighMargin(c *gin.Context) {
	threshold, err := parseThreshold(c.Query("threshold"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m.recordView(ViewHighMargin)
	c.JSON(http.StatusOK, gin.H{"threshold": threshold, "rows": m.Engine.HighMarginDishes(threshold)})
}

func (m *MenuAPI) GetMostWasted(c *gin.Context) {
	m.recordView(ViewMostWasted)
	row, err := m.Engine.MostWastedRow()
	if errors.Is(err, engine.ErrEmptyDataset) {
		c.JSON(http.StatusNotFound, gin.H{"error": engine.NoWasteText})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"row": row, "summary": m.Engine.WasteSummary(row)})
}

func (m *MenuAPI) GetRestockReduction(c *gin.Context) {
	m.recordView(ViewRestock)
	c.JSON(http.StatusOK, gin.H{"rows": m.Engine.RestockReduction()})
}

func (m *MenuAPI) GetIngredients(c *gin.Context) {
	m.recordView(ViewIngredients)
	c.JSON(http.StatusOK, gin.H{"ingredients": m.Engine.AllIngredientsText()})
}

// Chat answers a single question without keeping history
func (m *MenuAPI) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	reply, rule := m.answer(req.Text)
	c.JSON(http.StatusOK, ChatResponse{Reply: reply, Rule: rule})
}

func (m *MenuAPI) answer(text string) (string, string) {
	reply, rule := m.Engine.Answer(text)
	m.metrics.RecordChatQuery(rule)
	m.monitor.Increment("chat_queries")
	m.monitor.RecordMetric("last_chat_rule", rule)
	return reply, rule
}

// ExportMenu streams the table as a CSV attachment
func (m *MenuAPI) ExportMenu(c *gin.Context) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, m.Engine.Rows(), m.columns); err != nil {
		m.log.Error("menu export failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	m.monitor.Increment("menu_exports")
	c.Header("Content-Disposition", `attachment; filename="`+export.MenuFileName+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (m *MenuAPI) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, m.monitor.GetMetrics())
}

func parseThreshold(raw string) (float64, error) {
	if raw == "" {
		return engine.DefaultMarginThreshold, nil
	}
	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(threshold) {
		return 0, errors.New("threshold must be a number")
	}
	if threshold < engine.MinMarginThreshold || threshold > engine.MaxMarginThreshold {
		return 0, errors.New("threshold must be between " +
			strconv.Itoa(engine.MinMarginThreshold) + " and " + strconv.Itoa(engine.MaxMarginThreshold))
	}
	return threshold, nil
}
