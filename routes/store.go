package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/SmartNuvem/smartpedidos-sub002/controllers/order"
	storeControllers "github.com/SmartNuvem/smartpedidos-sub002/controllers/store"
	streamControllers "github.com/SmartNuvem/smartpedidos-sub002/controllers/stream"
	"github.com/SmartNuvem/smartpedidos-sub002/events"
)

func SetupStoreRoutes(r *gin.Engine, db *gorm.DB, hub *events.Hub) {
	stores := r.Group("/stores/:slug")
	{
		// Public storefront
		stores.GET("/status", storeControllers.StatusHandler(db))
		stores.GET("/menu", storeControllers.MenuHandler(db))

		// Order intake
		stores.POST("/orders", orderControllers.CreateOrderHandler(db, hub))

		// Live event stream for dashboards (SSE)
		stores.GET("/events", streamControllers.StoreEventsHandler(db, hub))
	}

	// Unauthenticated receipt retrieval; the token is the credential.
	r.GET("/receipts/:token", orderControllers.ReceiptHandler(db))
}
