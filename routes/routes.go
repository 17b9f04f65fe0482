package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/SmartNuvem/smartpedidos-sub002/events"
)

// SetupRoutes is the single entry-point that wires up the public,
// store-staff and print-agent route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, hub *events.Hub) {
	// 1️⃣ Public storefront routes (no middleware)
	SetupStoreRoutes(r, db, hub)

	// 2️⃣ Store/waiter routes (JWT-protected)
	SetupOrderRoutes(r, db, hub)
	SetupSalonRoutes(r, db, hub)

	// 3️⃣ Print-agent routes (API-key-protected)
	SetupAgentRoutes(r, db, hub)
}
