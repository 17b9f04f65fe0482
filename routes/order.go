package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/SmartNuvem/smartpedidos-sub002/controllers/order"
	storeControllers "github.com/SmartNuvem/smartpedidos-sub002/controllers/store"
	"github.com/SmartNuvem/smartpedidos-sub002/events"
	"github.com/SmartNuvem/smartpedidos-sub002/middleware"
)

func SetupOrderRoutes(r *gin.Engine, db *gorm.DB, hub *events.Hub) {
	orders := r.Group("/orders")
	orders.Use(middleware.StoreAuth)
	{
		// Fetch the store's orders, optionally by status
		orders.GET("/", orderControllers.ListOrdersHandler(db))

		// Fetch a single order
		orders.GET("/:orderID", orderControllers.GetOrderHandler(db))
	}

	store := r.Group("/store")
	store.Use(middleware.StoreAuth)
	{
		// Force the store open or closed, bypassing the schedule
		store.PUT("/hours-override", storeControllers.HoursOverrideHandler(db, hub))
	}
}
