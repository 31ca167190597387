package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"event-tickets/internal/auth"
)

// Routes holds the handlers mounted by NewRouter. Nil handlers are skipped.
type Routes struct {
	Auth        *AuthHandler
	Events      *EventHandler
	Accounts    *AccountHandler
	Stream      *StreamHandler
	Metrics     http.Handler
	CORSOrigins []string
}

// NewRouter builds the HTTP API
func NewRouter(r Routes) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	if len(r.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     r.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	if r.Metrics != nil {
		router.GET("/metrics", gin.WrapH(r.Metrics))
	}

	if r.Auth != nil {
		authRoutes := router.Group("/auth")
		{
			authRoutes.GET("/message", r.Auth.Message)
			authRoutes.POST("/wallet", r.Auth.WalletLogin)
			authRoutes.GET("/me", auth.AuthMiddleware(), r.Auth.GetMe)
		}
	}

	api := router.Group("/api")
	if r.Stream != nil {
		api.GET("/events/stream", r.Stream.Events)
	}
	protected := api.Group("")
	protected.Use(auth.AuthMiddleware())

	if r.Events != nil {
		api.GET("/events", r.Events.ListEvents)
		api.GET("/events/:id", r.Events.GetEvent)
		api.GET("/events/:id/tickets/:address", r.Events.GetTickets)
		api.GET("/events/:id/transactions", r.Events.GetTransactions)

		protected.POST("/events", r.Events.CreateEvent)
		protected.POST("/events/:id/buy", r.Events.BuyTickets)
		protected.POST("/events/:id/withdraw", r.Events.WithdrawFunds)
		protected.POST("/events/:id/tickets", r.Events.AddTickets)
		protected.POST("/events/:id/stop", r.Events.StopSale)
		protected.POST("/events/:id/continue", r.Events.ContinueSale)
	}

	if r.Accounts != nil {
		api.GET("/accounts/:address", r.Accounts.GetAccount)
		protected.POST("/accounts/deposit", r.Accounts.Deposit)
		protected.PUT("/accounts/me/receive", r.Accounts.SetReceive)
	}

	return router
}
