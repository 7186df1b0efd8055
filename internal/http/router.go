package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(logger *zap.Logger, wizardH *WizardHandler) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/countries", wizardH.ListCountries)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sessions := r.Group("/sessions")
	sessions.POST("", wizardH.CreateSession)
	sessions.GET("/:id", wizardH.GetSession)
	sessions.DELETE("/:id", wizardH.DeleteSession)

	sessions.POST("/:id/country", wizardH.SelectCountry)
	sessions.POST("/:id/start", wizardH.Start)
	sessions.PATCH("/:id/profile", wizardH.UpdateProfile)
	sessions.POST("/:id/clusters/toggle", wizardH.ToggleCluster)
	sessions.POST("/:id/next", wizardH.NextStep)
	sessions.POST("/:id/back", wizardH.BackToProfile)
	sessions.POST("/:id/submit", wizardH.Submit)
	sessions.POST("/:id/form", wizardH.BackToForm)
	sessions.POST("/:id/reset", wizardH.Reset)

	sessions.POST("/:id/recommendations/select", wizardH.SelectRecommendation)
	sessions.POST("/:id/compare/toggle", wizardH.ToggleCompare)
	sessions.DELETE("/:id/compare", wizardH.ClearCompare)

	sessions.POST("/:id/bot/open", wizardH.OpenBot)
	sessions.POST("/:id/bot/close", wizardH.CloseBot)
	sessions.POST("/:id/bot/messages", wizardH.SendBotMessage)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
