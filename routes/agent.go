package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/SmartNuvem/smartpedidos-sub002/controllers/order"
	salonControllers "github.com/SmartNuvem/smartpedidos-sub002/controllers/salon"
	streamControllers "github.com/SmartNuvem/smartpedidos-sub002/controllers/stream"
	"github.com/SmartNuvem/smartpedidos-sub002/events"
	"github.com/SmartNuvem/smartpedidos-sub002/middleware"
)

func SetupAgentRoutes(r *gin.Engine, db *gorm.DB, hub *events.Hub) {
	agent := r.Group("/agent")
	agent.Use(middleware.AgentAuth(db))
	{
		// websocket feed for real-time order updates
		agent.GET("/ws", streamControllers.AgentFeedHandler(hub))

		// Claim / confirm / reprint an order
		agent.PUT("/orders/:orderID/status", orderControllers.UpdateOrderStatusHandler(db, hub))

		// Poll print jobs (QUEUED by default) and acknowledge them
		agent.GET("/print-jobs", salonControllers.ListPrintJobsHandler(db))
		agent.PUT("/print-jobs/:jobID/printed", salonControllers.AckPrintJobHandler(db))
	}
}
