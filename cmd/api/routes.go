package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (app *application) routes() http.Handler {
	if app.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// simple logger middleware that uses zap
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		app.Logger.Sugar().Infow("http", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "duration", time.Since(start))
	})

	r.Use(app.corsMiddleware())
	if app.Config.Limiter.Enabled {
		r.Use(app.rateLimitMiddleware())
	}

	r.GET("/healthz", app.healthz)
	r.GET("/ws/interview", app.WS.Serve)

	v1 := r.Group("/api/v1")
	if app.Config.IsDevelopment() {
		v1.POST("/tokens/dev", app.devToken)
	}

	protected := v1.Group("/")
	protected.Use(app.AuthMiddleware())
	{
		protected.POST("/documents", app.createDocument)

		protected.GET("/analytics", app.getAnalytics)
		protected.GET("/sessions/:id", app.getSession)

		protected.POST("/roadmaps", app.createRoadmap)
		protected.GET("/roadmaps", app.listRoadmaps)
		protected.GET("/roadmaps/:id", app.getRoadmap)

		protected.POST("/admin/questions/import", app.importQuestions)
	}

	return r
}
