package cli

import (
	"time"

	"site-builder/config"
	"site-builder/database"
	routes "site-builder/internal/app/http"
	"site-builder/internal/app/http/middleware"
	"site-builder/internal/logging"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	config.LoadEnv()
	gin.SetMode(config.GIN_MODE)
	logging.Setup(config.LOG_LEVEL)
	database.InitDB()

	r := NewEngine()
	return r.Run(":" + config.PORT)
}

// NewEngine builds the gin engine with middleware and routes registered.
func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	// CORS before routes
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r)
	return r
}
