package orderControllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SmartNuvem/smartpedidos-sub002/apperrors"
	"github.com/SmartNuvem/smartpedidos-sub002/events"
	"github.com/SmartNuvem/smartpedidos-sub002/models"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// lockForUpdate takes a row lock on dialects that support it. sqlite
// (used by the test suite) has no FOR UPDATE and serializes writers
// itself.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func mapOrderStatus(s string) (models.OrderStatus, error) {
	switch strings.ToUpper(s) {
	case string(models.OrderStatusNew):
		return models.OrderStatusNew, nil
	case string(models.OrderStatusPrinting):
		return models.OrderStatusPrinting, nil
	case string(models.OrderStatusPrinted):
		return models.OrderStatusPrinted, nil
	default:
		return "", apperrors.Newf(apperrors.CodeRejected, "invalid order status %q", s)
	}
}

// Transition moves an order through NEW -> PRINTING -> PRINTED, with
// PRINTING -> NEW as the reprint path. Repeat requests are idempotent
// no-ops returning the current state, which is how two print agents
// racing to claim the same order are resolved: the loser's request simply
// finds the work already done. The row is locked for the duration of the
// transaction so a claim cannot be half-applied.
func Transition(db *gorm.DB, hub *events.Hub, orderID uint, target models.OrderStatus) (models.OrderStatus, error) {
	var final models.OrderStatus
	changed := false
	var storeID uint

	err := db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := lockForUpdate(tx).
			First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "order not found")
			}
			return err
		}
		storeID = order.StoreID
		final = order.Status

		updates := map[string]interface{}{}
		switch target {
		case models.OrderStatusPrinting:
			// Claiming an order already past NEW is a no-op, not an error.
			if order.Status != models.OrderStatusNew {
				return nil
			}
			now := time.Now()
			updates["status"] = models.OrderStatusPrinting
			updates["printing_claimed_at"] = &now

		case models.OrderStatusPrinted:
			if order.Status == models.OrderStatusPrinted {
				return nil
			}
			if order.Status != models.OrderStatusPrinting {
				return apperrors.New(apperrors.CodeRejected, "order was never claimed for printing")
			}
			updates["status"] = models.OrderStatusPrinted

		case models.OrderStatusNew:
			if order.Status == models.OrderStatusNew {
				return nil
			}
			if order.Status != models.OrderStatusPrinting {
				return apperrors.New(apperrors.CodeRejected, "only a printing order can be sent back for reprint")
			}
			updates["status"] = models.OrderStatusNew
			updates["printing_claimed_at"] = nil
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Updates(updates).Error; err != nil {
			return err
		}
		final = target
		changed = true
		return nil
	})
	if err != nil {
		return "", err
	}

	if changed {
		hub.Publish(storeID, events.EventOrderUpdated, gin.H{"id": orderID, "status": final})
	}
	return final, nil
}

// UpdateOrderStatusHandler lets print agents claim, confirm, and reprint
// orders.
func UpdateOrderStatusHandler(db *gorm.DB, hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := strconv.ParseUint(c.Param("orderID"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "orderID must be numeric"})
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		target, err := mapOrderStatus(req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		final, err := Transition(db, hub, uint(orderID), target)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": orderID, "status": final})
	}
}
