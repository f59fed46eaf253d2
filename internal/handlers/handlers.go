package handlers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"rebuy/internal/services"
)

// NewRouter builds the worker's small operations surface.
func NewRouter(worker *services.NotifyWorker) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	router.GET("/", HomeHandler)
	router.GET("/health", HealthHandler)
	router.GET("/status", StatusHandler(worker))

	return router
}

// HomeHandler handles requests to the root path "/"
func HomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "Rebuy notification worker")
}

// HealthHandler is a simple health check endpoint
func HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// StatusHandler reports the last completed tick.
func StatusHandler(worker *services.NotifyWorker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, worker.Snapshot())
	}
}
