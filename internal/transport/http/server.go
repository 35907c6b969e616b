// Package httpapi exposes read-only snapshots of the engine over HTTP:
// open positions, trade history, equity history, and breaker state. Nothing
// here mutates the engine.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"tidemark/internal/book"
	"tidemark/internal/breaker"
	"tidemark/internal/logger"

	"github.com/gin-gonic/gin"
)

// ServerConfig describes the server dependencies.
type ServerConfig struct {
	Addr    string
	Book    *book.Book
	Breaker *breaker.Breaker
	Pairs   func() []string
}

type Server struct {
	addr   string
	router *gin.Engine
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Book == nil || cfg.Breaker == nil {
		return nil, errors.New("http server requires book and breaker")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/positions", handlePositions(cfg.Book))
	api.GET("/trades", handleTrades(cfg.Book))
	api.GET("/equity", handleEquity(cfg.Book))
	api.GET("/state", handleState(cfg))

	return &Server{addr: cfg.Addr, router: router}, nil
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func handlePositions(bk *book.Book) gin.HandlerFunc {
	return func(c *gin.Context) {
		positions := bk.Snapshot()
		out := make([]gin.H, 0, len(positions))
		for _, p := range positions {
			out = append(out, gin.H{
				"pair":               p.Pair,
				"quantity":           p.Quantity,
				"entry_price":        p.EntryPrice,
				"opened_at":          p.OpenedAt.UTC(),
				"highest_price_seen": p.HighestPriceSeen,
				"stop_price":         p.StopPrice,
			})
		}
		c.JSON(http.StatusOK, gin.H{"positions": out, "count": len(out)})
	}
}

func handleTrades(bk *book.Book) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseLimit(c, 100)
		trades := bk.TradeTail(limit)
		out := make([]gin.H, 0, len(trades))
		for _, tr := range trades {
			row := gin.H{
				"id":        tr.ID,
				"pair":      tr.Pair,
				"side":      tr.Side,
				"price":     tr.Price,
				"quantity":  tr.Quantity,
				"timestamp": tr.Timestamp.UTC(),
				"origin":    string(tr.Origin),
			}
			if tr.HasProfit {
				row["realized_profit"] = tr.RealizedProfit
			}
			out = append(out, row)
		}
		c.JSON(http.StatusOK, gin.H{"trades": out, "count": len(out)})
	}
}

func handleEquity(bk *book.Book) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseLimit(c, 288)
		samples := bk.EquityTail(limit)
		out := make([]gin.H, 0, len(samples))
		for _, s := range samples {
			out = append(out, gin.H{
				"timestamp":    s.Timestamp.UTC(),
				"total_equity": s.TotalEquity,
			})
		}
		c.JSON(http.StatusOK, gin.H{"equity": out, "count": len(out)})
	}
}

func handleState(cfg ServerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{
			"breaker_state":  cfg.Breaker.State().String(),
			"tripped":        cfg.Breaker.Tripped(),
			"peak_equity":    cfg.Breaker.PeakEquity(),
			"open_positions": cfg.Book.Count(),
		}
		if at := cfg.Breaker.TrippedAt(); !at.IsZero() {
			resp["tripped_at"] = at.UTC()
		}
		if cfg.Pairs != nil {
			resp["watchlist"] = cfg.Pairs()
		}
		c.JSON(http.StatusOK, resp)
	}
}

func parseLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}
