package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	salonControllers "github.com/SmartNuvem/smartpedidos-sub002/controllers/salon"
	"github.com/SmartNuvem/smartpedidos-sub002/events"
	"github.com/SmartNuvem/smartpedidos-sub002/middleware"
)

func SetupSalonRoutes(r *gin.Engine, db *gorm.DB, hub *events.Hub) {
	salon := r.Group("/salon")
	salon.Use(middleware.StoreAuth)
	{
		salon.GET("/tables", salonControllers.ListTablesHandler(db))

		// Open/close one table's dine-in session
		salon.POST("/tables/:tableID/open", salonControllers.OpenTableHandler(db, hub))
		salon.POST("/tables/:tableID/close", salonControllers.CloseTableHandler(db, hub))

		// Resize the salon; refuses to drop an open table
		salon.PUT("/tables/count", salonControllers.SetTableCountHandler(db))
	}
}
