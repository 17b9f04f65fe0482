package orderControllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SmartNuvem/smartpedidos-sub002/apperrors"
	"github.com/SmartNuvem/smartpedidos-sub002/availability"
	"github.com/SmartNuvem/smartpedidos-sub002/events"
	"github.com/SmartNuvem/smartpedidos-sub002/models"
	"github.com/SmartNuvem/smartpedidos-sub002/notify"
	"github.com/SmartNuvem/smartpedidos-sub002/pricing"
)

// -------- Request Structs --------

type SelectedGroupRequest struct {
	GroupID uint   `json:"group_id" binding:"required"`
	ItemIDs []uint `json:"item_ids"`
}

type CartLineRequest struct {
	ProductID uint                   `json:"product_id" binding:"required"`
	Quantity  int                    `json:"quantity" binding:"required,min=1"`
	Notes     string                 `json:"notes"`
	Options   []SelectedGroupRequest `json:"options"`
}

type legacyCustomer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type CreateOrderRequest struct {
	FulfillmentType string            `json:"fulfillment_type" binding:"required"`
	PaymentMethod   string            `json:"payment_method"`
	ChangeForCents  int64             `json:"change_for_cents"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	Customer        *legacyCustomer   `json:"customer"`
	Name            string            `json:"name"`
	Phone           string            `json:"phone"`
	TableID         *uint             `json:"table_id"`
	DeliveryAreaID  *uint             `json:"delivery_area_id"`
	Items           []CartLineRequest `json:"items" binding:"required,min=1"`
}

// normalize folds the older request shapes (nested customer object, bare
// name/phone fields) into CustomerName/CustomerPhone so the pipeline only
// ever sees one shape.
func (r *CreateOrderRequest) normalize() {
	if r.CustomerName == "" && r.Customer != nil {
		r.CustomerName = r.Customer.Name
	}
	if r.CustomerName == "" {
		r.CustomerName = r.Name
	}
	if r.CustomerPhone == "" && r.Customer != nil {
		r.CustomerPhone = r.Customer.Phone
	}
	if r.CustomerPhone == "" {
		r.CustomerPhone = r.Phone
	}
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
}

type CreateOrderResult struct {
	ID            uint                 `json:"id"`
	ShortCode     string               `json:"short_code"`
	ReceiptToken  string               `json:"receipt_token"`
	Status        models.OrderStatus   `json:"status"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	TotalCents    int64                `json:"total_cents"`
}

// -------- Helpers --------

func mapFulfillmentType(s string) (models.FulfillmentType, error) {
	switch strings.ToUpper(s) {
	case string(models.FulfillmentPickup):
		return models.FulfillmentPickup, nil
	case string(models.FulfillmentDelivery):
		return models.FulfillmentDelivery, nil
	case string(models.FulfillmentDineIn):
		return models.FulfillmentDineIn, nil
	default:
		return "", apperrors.Newf(apperrors.CodeRejected, "invalid fulfillment type %q", s)
	}
}

func mapPaymentMethod(s string) (models.PaymentMethod, error) {
	switch strings.ToUpper(s) {
	case string(models.PaymentPix):
		return models.PaymentPix, nil
	case string(models.PaymentCash):
		return models.PaymentCash, nil
	case string(models.PaymentCard):
		return models.PaymentCard, nil
	default:
		return "", apperrors.Newf(apperrors.CodeInvalidPayment, "invalid payment method %q", s)
	}
}

func paymentAccepted(store models.Store, method models.PaymentMethod) bool {
	switch method {
	case models.PaymentPix:
		return store.AcceptPix
	case models.PaymentCash:
		return store.AcceptCash
	case models.PaymentCard:
		return store.AcceptCard
	}
	return false
}

// generateShortCode makes the human-readable order reference staff read
// out loud; the receipt token stays a full uuid.
func generateShortCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func closedMessage(store models.Store) string {
	if store.ClosedMessage != "" {
		return store.ClosedMessage
	}
	return "store is currently closed"
}

// -------- Core Logic --------

// CreateOrder runs the full intake pipeline: gate on store/fulfillment
// availability, validate every line against the live menu, price it, and
// persist order + items + option snapshots in one transaction. Any
// validation failure aborts the whole order; there are no partial writes.
func CreateOrder(db *gorm.DB, hub *events.Hub, storeSlug string, req CreateOrderRequest) (*CreateOrderResult, error) {
	req.normalize()

	var store models.Store
	if err := db.Where("slug = ? AND is_active = ?", storeSlug, true).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "store not found")
		}
		return nil, err
	}

	fulfillment, err := mapFulfillmentType(req.FulfillmentType)
	if err != nil {
		return nil, err
	}
	switch fulfillment {
	case models.FulfillmentPickup:
		if !store.PickupEnabled {
			return nil, apperrors.New(apperrors.CodeRejected, "pickup is disabled for this store")
		}
	case models.FulfillmentDelivery:
		if !store.DeliveryEnabled {
			return nil, apperrors.New(apperrors.CodeRejected, "delivery is disabled for this store")
		}
	case models.FulfillmentDineIn:
		if !store.DineInEnabled {
			return nil, apperrors.New(apperrors.CodeRejected, "dine-in is disabled for this store")
		}
	}

	var hours []models.StoreHour
	if err := db.Where("store_id = ?", store.ID).Find(&hours).Error; err != nil {
		return nil, err
	}
	if !availability.StoreOpenAt(store, hours, time.Now()) {
		return nil, apperrors.New(apperrors.CodeRejected, closedMessage(store))
	}

	var table models.SalonTable
	var paymentMethod models.PaymentMethod
	if fulfillment == models.FulfillmentDineIn {
		if req.TableID == nil {
			return nil, apperrors.New(apperrors.CodeRejected, "dine-in orders require a table")
		}
		if err := db.Where("id = ? AND store_id = ?", *req.TableID, store.ID).First(&table).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.New(apperrors.CodeNotFound, "table not found")
			}
			return nil, err
		}
		if table.Status != models.TableOpen || table.CurrentSessionID == nil {
			return nil, apperrors.New(apperrors.CodeRejected, "table is not open")
		}
	} else {
		if req.CustomerName == "" || req.CustomerPhone == "" {
			return nil, apperrors.New(apperrors.CodeRejected, "customer name and phone are required")
		}
		paymentMethod, err = mapPaymentMethod(req.PaymentMethod)
		if err != nil {
			return nil, err
		}
		if !paymentAccepted(store, paymentMethod) {
			return nil, apperrors.Newf(apperrors.CodeInvalidPayment, "payment method %s is not accepted", paymentMethod)
		}
	}

	items, subtotal, err := buildOrderItems(db, store, req.Items)
	if err != nil {
		return nil, err
	}

	var deliveryFee int64
	var deliveryAreaID *uint
	if fulfillment == models.FulfillmentDelivery {
		if req.DeliveryAreaID == nil {
			return nil, apperrors.New(apperrors.CodeInvalidDeliveryArea, "delivery orders require a delivery area")
		}
		var area models.DeliveryArea
		if err := db.Where("id = ? AND store_id = ? AND is_active = ?", *req.DeliveryAreaID, store.ID, true).
			First(&area).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.New(apperrors.CodeInvalidDeliveryArea, "delivery area not found")
			}
			return nil, err
		}
		deliveryFee = area.FeeCents
		deliveryAreaID = &area.ID
	}

	convenienceFee := store.ConvenienceFeeCents
	total := subtotal + deliveryFee + convenienceFee

	if paymentMethod == models.PaymentCash && store.RequireChangeInfo {
		if req.ChangeForCents < total {
			return nil, apperrors.New(apperrors.CodeInvalidPayment, "cash orders must state change for at least the order total")
		}
	}

	status := models.OrderStatusNew
	var claimedAt *time.Time
	if store.AutoPrint {
		status = models.OrderStatusPrinting
		now := time.Now()
		claimedAt = &now
	}

	order := models.Order{
		StoreID:             store.ID,
		Status:              status,
		FulfillmentType:     fulfillment,
		PaymentMethod:       paymentMethod,
		CustomerName:        req.CustomerName,
		CustomerPhone:       req.CustomerPhone,
		ChangeForCents:      req.ChangeForCents,
		DeliveryFeeCents:    deliveryFee,
		ConvenienceFeeCents: convenienceFee,
		TotalCents:          total,
		DeliveryAreaID:      deliveryAreaID,
		ShortCode:           generateShortCode(),
		ReceiptToken:        uuid.NewString(),
		PrintingClaimedAt:   claimedAt,
		Items:               items,
	}
	if fulfillment == models.FulfillmentDineIn {
		order.TableID = &table.ID
		order.TableSessionID = table.CurrentSessionID
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&order).Error
	}); err != nil {
		return nil, err
	}

	hub.Publish(store.ID, events.EventOrderCreated, gin.H{
		"id":               order.ID,
		"short_code":       order.ShortCode,
		"status":           order.Status,
		"fulfillment_type": order.FulfillmentType,
		"total_cents":      order.TotalCents,
		"table_id":         order.TableID,
	})
	if fulfillment == models.FulfillmentDineIn {
		hub.Publish(store.ID, events.EventTablesUpdated, gin.H{"table_id": table.ID})
	}

	// Chat-bot notification is best-effort; it must never fail the order.
	go notify.OrderCreated(store.Slug, order)

	return &CreateOrderResult{
		ID:            order.ID,
		ShortCode:     order.ShortCode,
		ReceiptToken:  order.ReceiptToken,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		TotalCents:    order.TotalCents,
	}, nil
}

// buildOrderItems validates each cart line against the store's live menu
// and prices it. The returned items carry frozen prices and option
// snapshots; subtotal is the sum of unit price times quantity.
func buildOrderItems(db *gorm.DB, store models.Store, lines []CartLineRequest) ([]models.OrderItem, int64, error) {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	var products []models.Product
	if err := db.Where("store_id = ? AND is_active = ? AND id IN ?", store.ID, true, ids).
		Preload("OptionGroups.Items").
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var items []models.OrderItem
	var subtotal int64
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, 0, apperrors.Newf(apperrors.CodeInvalidProduct, "product %d is unavailable", line.ProductID)
		}

		item, err := buildOrderItem(product, line)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
		subtotal += item.UnitPriceCents * int64(item.Quantity)
	}
	return items, subtotal, nil
}

func buildOrderItem(product models.Product, line CartLineRequest) (models.OrderItem, error) {
	groupByID := make(map[uint]models.OptionGroup, len(product.OptionGroups))
	for _, g := range product.OptionGroups {
		groupByID[g.ID] = g
	}

	// Selected items per group: de-duplicated, active items only.
	selected := make(map[uint][]models.OptionItem)
	for _, sel := range line.Options {
		group, ok := groupByID[sel.GroupID]
		if !ok {
			return models.OrderItem{}, apperrors.Newf(apperrors.CodeInvalidOptions,
				"option group %d does not belong to product %q", sel.GroupID, product.Name)
		}
		itemByID := make(map[uint]models.OptionItem, len(group.Items))
		for _, it := range group.Items {
			if it.IsActive {
				itemByID[it.ID] = it
			}
		}
		seen := make(map[uint]bool)
		for _, itemID := range sel.ItemIDs {
			if seen[itemID] {
				continue
			}
			seen[itemID] = true
			it, ok := itemByID[itemID]
			if !ok {
				return models.OrderItem{}, apperrors.Newf(apperrors.CodeInvalidOptions,
					"option %d is not available in group %q", itemID, group.Name)
			}
			selected[group.ID] = append(selected[group.ID], it)
		}
	}

	var priceGroups []pricing.SelectedGroup
	var snapshots []models.OrderItemOption
	for _, group := range product.OptionGroups {
		picks := selected[group.ID]

		minRequired := group.MinSelect
		if group.Required && minRequired < 1 {
			minRequired = 1
		}
		maxAllowed := group.MaxSelect
		if group.Type == models.OptionGroupSingle {
			maxAllowed = 1
		}
		if len(picks) < minRequired {
			return models.OrderItem{}, apperrors.Newf(apperrors.CodeInvalidOptions,
				"group %q requires at least %d selection(s)", group.Name, minRequired)
		}
		if maxAllowed > 0 && len(picks) > maxAllowed {
			return models.OrderItem{}, apperrors.Newf(apperrors.CodeInvalidOptions,
				"group %q allows at most %d selection(s)", group.Name, maxAllowed)
		}

		if len(picks) == 0 {
			continue
		}
		pg := pricing.SelectedGroup{Name: group.Name}
		for _, it := range picks {
			pg.Deltas = append(pg.Deltas, it.PriceDeltaCents)
			snapshots = append(snapshots, models.OrderItemOption{
				GroupName:       group.Name,
				ItemName:        it.Name,
				PriceDeltaCents: it.PriceDeltaCents,
			})
		}
		priceGroups = append(priceGroups, pg)
	}

	quote := pricing.Quote(product.PricingRule, product.BasePriceCents, priceGroups)
	switch product.PricingRule {
	case models.PricingRuleMaxOption:
		if !quote.HasFlavorSelection {
			return models.OrderItem{}, apperrors.Newf(apperrors.CodeInvalidOptions,
				"product %q requires at least one flavor", product.Name)
		}
	case models.PricingRuleHalfSum:
		if quote.FlavorCount < 1 || quote.FlavorCount > 2 {
			return models.OrderItem{}, apperrors.Newf(apperrors.CodeInvalidOptions,
				"product %q takes one or two flavors, got %d", product.Name, quote.FlavorCount)
		}
	}

	return models.OrderItem{
		ProductID:      product.ID,
		Name:           product.Name,
		Quantity:       line.Quantity,
		UnitPriceCents: quote.UnitPriceCents,
		Notes:          line.Notes,
		Options:        snapshots,
	}, nil
}

// -------- Handlers --------

func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error(), "code": apperrors.CodeOf(err)})
}

// CreateOrderHandler is the public order intake endpoint.
func CreateOrderHandler(db *gorm.DB, hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := CreateOrder(db, hub, c.Param("slug"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

// ListOrdersHandler returns the authenticated store's orders, newest
// first, optionally filtered by status.
func ListOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID := c.GetUint("store_id")
		q := db.Where("store_id = ?", storeID)
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", strings.ToUpper(status))
		}
		var orders []models.Order
		if err := q.
			Preload("Items").
			Preload("Items.Options").
			Order("created_at DESC").
			Limit(200).
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GetOrderHandler returns a single order scoped to the caller's store.
func GetOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID := c.GetUint("store_id")
		var order models.Order
		if err := db.Where("id = ? AND store_id = ?", c.Param("orderID"), storeID).
			Preload("Items").
			Preload("Items.Options").
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// ReceiptHandler fetches an order by its opaque receipt token. No auth:
// the token itself is the credential.
func ReceiptHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var order models.Order
		if err := db.Where("receipt_token = ?", c.Param("token")).
			Preload("Items").
			Preload("Items.Options").
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "receipt not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
