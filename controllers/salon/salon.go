package salonControllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SmartNuvem/smartpedidos-sub002/apperrors"
	"github.com/SmartNuvem/smartpedidos-sub002/events"
	"github.com/SmartNuvem/smartpedidos-sub002/models"
)

// -------- Core Logic --------

// lockForUpdate takes a row lock on dialects that support it. sqlite
// (used by the test suite) has no FOR UPDATE and serializes writers
// itself.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// OpenTable starts a dine-in session. Opening an already-open table is a
// no-op returning the live session, so a double tap on the waiter app
// cannot spawn two sessions.
func OpenTable(db *gorm.DB, hub *events.Hub, storeID, tableID uint) (models.SalonTable, error) {
	var table models.SalonTable
	changed := false

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where("id = ? AND store_id = ?", tableID, storeID).
			First(&table).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "table not found")
			}
			return err
		}
		if table.Status == models.TableOpen && table.CurrentSessionID != nil {
			return nil
		}

		session := uuid.NewString()
		now := time.Now()
		table.Status = models.TableOpen
		table.CurrentSessionID = &session
		table.OpenedAt = &now
		table.ClosedAt = nil
		changed = true
		return tx.Model(&models.SalonTable{}).Where("id = ?", table.ID).
			Updates(map[string]interface{}{
				"status":             models.TableOpen,
				"current_session_id": session,
				"opened_at":          now,
				"closed_at":          nil,
			}).Error
	})
	if err != nil {
		return models.SalonTable{}, err
	}

	if changed {
		hub.Publish(storeID, events.EventTablesUpdated, gin.H{"table_id": table.ID, "status": table.Status})
	}
	return table, nil
}

// CloseTable aggregates the session's dine-in consumption into one queued
// cashier print job and frees the table. Summary construction and the
// table-state flip share one transaction: a crash cannot leave a closed
// table without its print job, or a print job for a still-open table.
func CloseTable(db *gorm.DB, hub *events.Hub, storeID, tableID uint) (models.PrintJob, error) {
	var job models.PrintJob

	err := db.Transaction(func(tx *gorm.DB) error {
		var table models.SalonTable
		if err := lockForUpdate(tx).
			Where("id = ? AND store_id = ?", tableID, storeID).
			First(&table).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "table not found")
			}
			return err
		}
		if table.Status != models.TableOpen || table.CurrentSessionID == nil {
			return apperrors.New(apperrors.CodeRejected, "table is not open")
		}
		session := *table.CurrentSessionID

		var orders []models.Order
		if err := tx.
			Where("store_id = ? AND table_id = ? AND table_session_id = ? AND fulfillment_type = ?",
				storeID, table.ID, session, models.FulfillmentDineIn).
			Preload("Items").
			Find(&orders).Error; err != nil {
			return err
		}

		now := time.Now()
		summary := buildTableSummary(table, session, orders, now)
		payload, err := json.Marshal(summary)
		if err != nil {
			return err
		}

		job = models.PrintJob{
			StoreID:        storeID,
			Type:           models.PrintJobCashierTableSummary,
			Status:         models.PrintJobQueued,
			TableID:        &table.ID,
			TableSessionID: &session,
			Payload:        payload,
		}
		if err := tx.Create(&job).Error; err != nil {
			return err
		}

		return tx.Model(&models.SalonTable{}).Where("id = ?", table.ID).
			Updates(map[string]interface{}{
				"status":             models.TableFree,
				"current_session_id": nil,
				"opened_at":          nil,
				"closed_at":          now,
			}).Error
	})
	if err != nil {
		return models.PrintJob{}, err
	}

	hub.Publish(storeID, events.EventTablesUpdated, gin.H{"table_id": tableID, "status": models.TableFree})
	return job, nil
}

// buildTableSummary groups the session's consumption by product name.
func buildTableSummary(table models.SalonTable, session string, orders []models.Order, closedAt time.Time) models.TableSummary {
	type acc struct {
		qty   int
		total int64
	}
	byName := make(map[string]*acc)
	var names []string
	for _, order := range orders {
		for _, item := range order.Items {
			a, ok := byName[item.Name]
			if !ok {
				a = &acc{}
				byName[item.Name] = a
				names = append(names, item.Name)
			}
			a.qty += item.Quantity
			a.total += item.UnitPriceCents * int64(item.Quantity)
		}
	}
	sort.Strings(names)

	summary := models.TableSummary{
		TableNumber: table.Number,
		SessionID:   session,
		ClosedAt:    closedAt,
	}
	for _, name := range names {
		a := byName[name]
		summary.Items = append(summary.Items, models.TableSummaryRow{
			Name:       name,
			Quantity:   a.qty,
			TotalCents: a.total,
		})
		summary.TotalCents += a.total
	}
	return summary
}

// SetTableCount resizes the salon to exactly count numbered tables.
// Tables above the new count are removed unless one of them is OPEN, in
// which case the whole resize is refused.
func SetTableCount(db *gorm.DB, storeID uint, count int) error {
	if count < 0 {
		return apperrors.New(apperrors.CodeRejected, "table count must not be negative")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var tables []models.SalonTable
		if err := lockForUpdate(tx).
			Where("store_id = ?", storeID).
			Order("number ASC").
			Find(&tables).Error; err != nil {
			return err
		}

		for _, t := range tables {
			if t.Number > count && t.Status == models.TableOpen {
				return apperrors.Newf(apperrors.CodeConflict,
					"table %d is open; close it before shrinking the salon", t.Number)
			}
		}

		if err := tx.Where("store_id = ? AND number > ?", storeID, count).
			Delete(&models.SalonTable{}).Error; err != nil {
			return err
		}

		have := make(map[int]bool, len(tables))
		for _, t := range tables {
			have[t.Number] = true
		}
		for n := 1; n <= count; n++ {
			if have[n] {
				continue
			}
			if err := tx.Create(&models.SalonTable{
				StoreID: storeID,
				Number:  n,
				Status:  models.TableFree,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AckPrintJob confirms physical printing. Acking an already-printed job
// is a no-op.
func AckPrintJob(db *gorm.DB, storeID, jobID uint) (models.PrintJob, error) {
	var job models.PrintJob
	if err := db.Where("id = ? AND store_id = ?", jobID, storeID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PrintJob{}, apperrors.New(apperrors.CodeNotFound, "print job not found")
		}
		return models.PrintJob{}, err
	}
	if job.Status == models.PrintJobPrinted {
		return job, nil
	}
	if err := db.Model(&models.PrintJob{}).Where("id = ?", job.ID).
		Update("status", models.PrintJobPrinted).Error; err != nil {
		return models.PrintJob{}, err
	}
	job.Status = models.PrintJobPrinted
	return job, nil
}

// -------- Handlers --------

func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error(), "code": apperrors.CodeOf(err)})
}

func tableIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("tableID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tableID must be numeric"})
		return 0, false
	}
	return uint(id), true
}

func ListTablesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tables []models.SalonTable
		if err := db.Where("store_id = ?", c.GetUint("store_id")).
			Order("number ASC").
			Find(&tables).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, tables)
	}
}

func OpenTableHandler(db *gorm.DB, hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		tableID, ok := tableIDParam(c)
		if !ok {
			return
		}
		table, err := OpenTable(db, hub, c.GetUint("store_id"), tableID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, table)
	}
}

func CloseTableHandler(db *gorm.DB, hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		tableID, ok := tableIDParam(c)
		if !ok {
			return
		}
		job, err := CloseTable(db, hub, c.GetUint("store_id"), tableID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

type SetTableCountRequest struct {
	Count *int `json:"count" binding:"required"`
}

func SetTableCountHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SetTableCountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := SetTableCount(db, c.GetUint("store_id"), *req.Count); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "salon resized"})
	}
}

// ListPrintJobsHandler returns the store's print jobs filtered by status,
// QUEUED by default — the poll endpoint for agent devices.
func ListPrintJobsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := strings.ToUpper(c.DefaultQuery("status", string(models.PrintJobQueued)))
		q := db.Where("store_id = ? AND status = ?", c.GetUint("store_id"), status)
		if jobType := c.Query("type"); jobType != "" {
			q = q.Where("type = ?", strings.ToUpper(jobType))
		}
		var jobs []models.PrintJob
		if err := q.Order("created_at ASC").Find(&jobs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, jobs)
	}
}

func AckPrintJobHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID, err := strconv.ParseUint(c.Param("jobID"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "jobID must be numeric"})
			return
		}
		job, err := AckPrintJob(db, c.GetUint("store_id"), uint(jobID))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, job)
	}
}
