package router

import (
	"github.com/gin-gonic/gin"

	"nfedit/internal/handler"
	"nfedit/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	sessionH *handler.SessionHandler,
	healthH *handler.HealthHandler,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)

	v1 := r.Group("/api/v1")

	// Session routes (single editing session)
	sess := v1.Group("/session")
	sess.POST("", sessionH.Load)
	sess.GET("", sessionH.Snapshot)
	sess.DELETE("", sessionH.Reset)
	sess.PUT("/items/:index/cost", sessionH.EditCost)
	sess.POST("/items/:index/cost/normalize", sessionH.NormalizeCost)
	sess.PUT("/items/:index/unit", sessionH.EditUnit)
	sess.PUT("/items/:index/selected", sessionH.SelectItem)
	sess.PUT("/selection", sessionH.SelectAll)
	sess.POST("/unit", sessionH.BulkUnit)
	sess.PUT("/key", sessionH.EditKey)
	sess.PUT("/recipient-taxid", sessionH.EditRecipientTaxID)
	sess.POST("/export", sessionH.Export)
	sess.GET("/export.xlsx", sessionH.ExportXLSX)
	sess.GET("/export.csv", sessionH.ExportCSV)

	return r
}
