package storeControllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/SmartNuvem/smartpedidos-sub002/availability"
	"github.com/SmartNuvem/smartpedidos-sub002/events"
	"github.com/SmartNuvem/smartpedidos-sub002/models"
)

func findStoreBySlug(db *gorm.DB, c *gin.Context) (models.Store, bool) {
	var store models.Store
	if err := db.Where("slug = ? AND is_active = ?", c.Param("slug"), true).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "store not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return models.Store{}, false
	}
	return store, true
}

// StatusHandler tells customers whether the store is taking orders.
func StatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		store, ok := findStoreBySlug(db, c)
		if !ok {
			return
		}
		var hours []models.StoreHour
		if err := db.Where("store_id = ?", store.ID).Find(&hours).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		open := availability.StoreOpenAt(store, hours, time.Now())
		resp := gin.H{"name": store.Name, "slug": store.Slug, "open": open}
		if !open && store.ClosedMessage != "" {
			resp["closed_message"] = store.ClosedMessage
		}
		c.JSON(http.StatusOK, resp)
	}
}

// MenuHandler returns the store's menu with only the products available
// right now, plus a hint telling clients when availability next changes
// so they can schedule a refresh.
func MenuHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		store, ok := findStoreBySlug(db, c)
		if !ok {
			return
		}

		var categories []models.Category
		if err := db.Where("store_id = ?", store.ID).
			Order("position ASC").
			Find(&categories).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var products []models.Product
		if err := db.Where("store_id = ? AND is_active = ?", store.ID, true).
			Preload("AvailabilityWindows").
			Preload("OptionGroups.Items").
			Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		loc := availability.StoreLocation(store)
		now := time.Now()
		available := make([]models.Product, 0, len(products))
		for _, p := range products {
			if availability.ProductAvailableAt(p, now, loc) {
				available = append(available, p)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"store":               gin.H{"name": store.Name, "slug": store.Slug},
			"categories":          categories,
			"products":            available,
			"next_change_minutes": availability.NextChangeMinutes(products, now, loc),
		})
	}
}

type HoursOverrideRequest struct {
	Override string `json:"override"`
}

// HoursOverrideHandler lets the store force itself open or closed,
// bypassing the weekly schedule. Dashboards get a menu_updated hint so
// they re-fetch the store state.
func HoursOverrideHandler(db *gorm.DB, hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req HoursOverrideRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		override := models.HoursOverride(req.Override)
		switch override {
		case models.OverrideNone, models.OverrideForceOpen, models.OverrideForceClosed:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "override must be empty, FORCE_OPEN or FORCE_CLOSED"})
			return
		}

		storeID := c.GetUint("store_id")
		if err := db.Model(&models.Store{}).Where("id = ?", storeID).
			Update("hours_override", override).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		hub.Publish(storeID, events.EventMenuUpdated, gin.H{"hours_override": override})
		c.JSON(http.StatusOK, gin.H{"hours_override": override})
	}
}
