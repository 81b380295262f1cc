package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"ladder-quiz-service/internal/app"
)

// NewRouter serves the REST API, the websocket endpoint and a health check.
func NewRouter(service *app.GameService) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(ErrorHandler())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/ws", gin.WrapF(NewWSHandler(service).ServeWS))
	NewRESTHandler(service).Register(router)
	return router
}
