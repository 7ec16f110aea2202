package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"healthtrip/handlers"
)

// RegisterRoutes wires the wizard endpoints onto the router.
func RegisterRoutes(r *gin.Engine, wh *handlers.WizardHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterWizardRoutes(r, wh)
}

// RegisterWizardRoutes registers all endpoints of the reservation wizard.
func RegisterWizardRoutes(r *gin.Engine, wh *handlers.WizardHandler) {
	api := r.Group("/api/wizard")
	{
		api.POST("/session", wh.OpenSession)
		api.GET("/session/:sessionID", wh.GetSession)
		api.PUT("/session/:sessionID/selection", wh.UpdateSelection)
		api.GET("/session/:sessionID/slots", wh.ListSlots)
		api.POST("/session/:sessionID/next", wh.NextStep)
		api.POST("/session/:sessionID/back", wh.PrevStep)
		api.POST("/session/:sessionID/submit", wh.SubmitSession)
		api.DELETE("/session/:sessionID", wh.CancelSession)
	}
}
