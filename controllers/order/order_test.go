package orderControllers

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/SmartNuvem/smartpedidos-sub002/apperrors"
	"github.com/SmartNuvem/smartpedidos-sub002/events"
	"github.com/SmartNuvem/smartpedidos-sub002/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One in-memory sqlite database per connection otherwise.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Store{},
		&models.StoreHour{},
		&models.DeliveryArea{},
		&models.Category{},
		&models.Product{},
		&models.AvailabilityWindow{},
		&models.OptionGroup{},
		&models.OptionItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemOption{},
		&models.SalonTable{},
		&models.PrintJob{},
	))
	return db
}

func seedStore(t *testing.T, db *gorm.DB, mutate func(*models.Store)) models.Store {
	t.Helper()
	store := models.Store{
		Name:            "Cantina da Praça",
		Slug:            "cantina",
		Timezone:        "UTC",
		IsActive:        true,
		PickupEnabled:   true,
		DeliveryEnabled: true,
		DineInEnabled:   true,
		AcceptPix:       true,
		AcceptCash:      true,
		AcceptCard:      true,
		HoursOverride:   models.OverrideForceOpen,
	}
	if mutate != nil {
		mutate(&store)
	}
	require.NoError(t, db.Create(&store).Error)
	return store
}

func seedProduct(t *testing.T, db *gorm.DB, storeID uint, mutate func(*models.Product)) models.Product {
	t.Helper()
	product := models.Product{
		StoreID:        storeID,
		Name:           "Margherita",
		BasePriceCents: 2500,
		PricingRule:    models.PricingRuleSum,
		IsActive:       true,
	}
	if mutate != nil {
		mutate(&product)
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func pickupRequest(lines ...CartLineRequest) CreateOrderRequest {
	return CreateOrderRequest{
		FulfillmentType: "PICKUP",
		PaymentMethod:   "PIX",
		CustomerName:    "Ana",
		CustomerPhone:   "+5511999990000",
		Items:           lines,
	}
}

func decodeFrame(t *testing.T, frame []byte) (string, map[string]interface{}) {
	t.Helper()
	parts := bytes.SplitN(bytes.TrimSuffix(frame, []byte("\n\n")), []byte("\n"), 2)
	require.Len(t, parts, 2)
	event := string(bytes.TrimPrefix(parts[0], []byte("event: ")))
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimPrefix(parts[1], []byte("data: ")), &data))
	return event, data
}

func TestCreateOrderPickup(t *testing.T) {
	db := setupDB(t)
	hub := events.NewHub()
	store := seedStore(t, db, nil)
	product := seedProduct(t, db, store.ID, nil)

	sub := hub.Subscribe(store.ID)

	result, err := CreateOrder(db, hub, "cantina", pickupRequest(
		CartLineRequest{ProductID: product.ID, Quantity: 2},
	))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusNew, result.Status)
	assert.Equal(t, int64(5000), result.TotalCents)
	assert.NotEmpty(t, result.ReceiptToken)
	assert.Len(t, result.ShortCode, 8)

	var stored models.Order
	require.NoError(t, db.Preload("Items").First(&stored, result.ID).Error)
	assert.Nil(t, stored.PrintingClaimedAt)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Margherita", stored.Items[0].Name)
	assert.Equal(t, int64(2500), stored.Items[0].UnitPriceCents)

	// A subscriber connected beforehand sees the order come in.
	select {
	case frame := <-sub.Frames():
		event, data := decodeFrame(t, frame)
		assert.Equal(t, events.EventOrderCreated, event)
		assert.Equal(t, float64(result.ID), data["id"])
	default:
		t.Fatal("expected an order.created event")
	}
}

func TestCreateOrderAutoPrintClaimsImmediately(t *testing.T) {
	db := setupDB(t)
	store := seedStore(t, db, func(s *models.Store) { s.AutoPrint = true })
	product := seedProduct(t, db, store.ID, nil)

	result, err := CreateOrder(db, events.NewHub(), "cantina", pickupRequest(
		CartLineRequest{ProductID: product.ID, Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPrinting, result.Status)

	var stored models.Order
	require.NoError(t, db.First(&stored, result.ID).Error)
	assert.NotNil(t, stored.PrintingClaimedAt)
}

func TestCreateOrderClosedStore(t *testing.T) {
	db := setupDB(t)
	store := seedStore(t, db, func(s *models.Store) {
		s.HoursOverride = models.OverrideForceClosed
		s.ClosedMessage = "volte amanhã!"
	})
	product := seedProduct(t, db, store.ID, nil)

	_, err := CreateOrder(db, events.NewHub(), "cantina", pickupRequest(
		CartLineRequest{ProductID: product.ID, Quantity: 1},
	))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRejected, apperrors.CodeOf(err))
	assert.Equal(t, "volte amanhã!", err.Error())
}

func TestCreateOrderUnknownStore(t *testing.T) {
	db := setupDB(t)
	_, err := CreateOrder(db, events.NewHub(), "nope", pickupRequest(
		CartLineRequest{ProductID: 1, Quantity: 1},
	))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestCreateOrderInactiveProductFailsWholeOrder(t *testing.T) {
	db := setupDB(t)
	store := seedStore(t, db, nil)
	ok := seedProduct(t, db, store.ID, nil)
	dead := seedProduct(t, db, store.ID, func(p *models.Product) {
		p.Name = "Discontinued"
		p.IsActive = false
	})

	_, err := CreateOrder(db, events.NewHub(), "cantina", pickupRequest(
		CartLineRequest{ProductID: ok.ID, Quantity: 1},
		CartLineRequest{ProductID: dead.ID, Quantity: 1},
	))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidProduct, apperrors.CodeOf(err))

	// No partial writes.
	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func seedSingleRequiredGroup(t *testing.T, db *gorm.DB, productID uint) (models.OptionGroup, []models.OptionItem) {
	t.Helper()
	group := models.OptionGroup{
		ProductID: productID,
		Name:      "Size",
		Type:      models.OptionGroupSingle,
		Required:  true,
		MaxSelect: 1,
	}
	require.NoError(t, db.Create(&group).Error)
	items := []models.OptionItem{
		{GroupID: group.ID, Name: "Small", PriceDeltaCents: 0, IsActive: true},
		{GroupID: group.ID, Name: "Large", PriceDeltaCents: 500, IsActive: true},
	}
	require.NoError(t, db.Create(&items).Error)
	return group, items
}

func TestCreateOrderSingleRequiredGroupCardinality(t *testing.T) {
	db := setupDB(t)
	hub := events.NewHub()
	store := seedStore(t, db, nil)
	product := seedProduct(t, db, store.ID, nil)
	group, items := seedSingleRequiredGroup(t, db, product.ID)

	// Zero selections: rejected.
	_, err := CreateOrder(db, hub, "cantina", pickupRequest(
		CartLineRequest{ProductID: product.ID, Quantity: 1},
	))
	assert.Equal(t, apperrors.CodeInvalidOptions, apperrors.CodeOf(err))

	// Two selections: rejected.
	_, err = CreateOrder(db, hub, "cantina", pickupRequest(
		CartLineRequest{ProductID: product.ID, Quantity: 1, Options: []SelectedGroupRequest{
			{GroupID: group.ID, ItemIDs: []uint{items[0].ID, items[1].ID}},
		}},
	))
	assert.Equal(t, apperrors.CodeInvalidOptions, apperrors.CodeOf(err))

	// Exactly one: accepted, delta added under SUM.
	result, err := CreateOrder(db, hub, "cantina", pickupRequest(
		CartLineRequest{ProductID: product.ID, Quantity: 1, Options: []SelectedGroupRequest{
			{GroupID: group.ID, ItemIDs: []uint{items[1].ID}},
		}},
	))
	require.NoError(t, err)
	assert.Equal(t, int64(3000), result.TotalCents)

	var options []models.OrderItemOption
	require.NoError(t, db.Find(&options).Error)
	require.Len(t, options, 1)
	assert.Equal(t, "Size", options[0].GroupName)
	assert.Equal(t, "Large", options[0].ItemName)
}

func TestCreateOrderForeignGroupRejected(t *testing.T) {
	db := setupDB(t)
	store := seedStore(t, db, nil)
	product := seedProduct(t, db, store.ID, nil)
	other := seedProduct(t, db, store.ID, func(p *models.Product) { p.Name = "Calzone" })
	group, items := seedSingleRequiredGroup(t, db, other.ID)

	_, err := CreateOrder(db, events.NewHub(), "cantina", pickupRequest(
		CartLineRequest{ProductID: product.ID, Quantity: 1, Options: []SelectedGroupRequest{
			{GroupID: group.ID, ItemIDs: []uint{items[0].ID}},
		}},
	))
	assert.Equal(t, apperrors.CodeInvalidOptions, apperrors.CodeOf(err))
}

func seedFlavorProduct(t *testing.T, db *gorm.DB, storeID uint, rule models.PricingRule) (models.Product, models.OptionGroup, []models.OptionItem) {
	t.Helper()
	product := seedProduct(t, db, storeID, func(p *models.Product) {
		p.Name = "Pizza Grande"
		p.PricingRule = rule
		p.BasePriceCents = 1000
	})
	group := models.OptionGroup{
		ProductID: product.ID,
		Name:      "Flavors",
		Type:      models.OptionGroupMulti,
		MaxSelect: 2,
	}
	require.NoError(t, db.Create(&group).Error)
	items := []models.OptionItem{
		{GroupID: group.ID, Name: "Calabresa", PriceDeltaCents: 301, IsActive: true},
		{GroupID: group.ID, Name: "Quatro Queijos", PriceDeltaCents: 501, IsActive: true},
	}
	require.NoError(t, db.Create(&items).Error)
	return product, group, items
}

func TestCreateOrderMaxOptionRequiresFlavor(t *testing.T) {
	db := setupDB(t)
	store := seedStore(t, db, nil)
	product, _, _ := seedFlavorProduct(t, db, store.ID, models.PricingRuleMaxOption)

	_, err := CreateOrder(db, events.NewHub(), "cantina", pickupRequest(
		CartLineRequest{ProductID: product.ID, Quantity: 1},
	))
	assert.Equal(t, apperrors.CodeInvalidOptions, apperrors.CodeOf(err))
}

func TestCreateOrderHalfSumPricesPerFlavor(t *testing.T) {
	db := setupDB(t)
	store := seedStore(t, db, nil)
	product, group, items := seedFlavorProduct(t, db, store.ID, models.PricingRuleHalfSum)

	result, err := CreateOrder(db, events.NewHub(), "cantina", pickupRequest(
		CartLineRequest{ProductID: product.ID, Quantity: 1, Options: []SelectedGroupRequest{
			{GroupID: group.ID, ItemIDs: []uint{items[0].ID, items[1].ID}},
		}},
	))
	require.NoError(t, err)
	// floor(301/2)+floor(501/2) = 400; the base price plays no part.
	assert.Equal(t, int64(400), result.TotalCents)
}

func TestCreateOrderDeliveryFee(t *testing.T) {
	db := setupDB(t)
	store := seedStore(t, db, nil)
	product := seedProduct(t, db, store.ID, nil)
	area := models.DeliveryArea{StoreID: store.ID, Name: "Centro", FeeCents: 700, IsActive: true}
	require.NoError(t, db.Create(&area).Error)

	req := pickupRequest(CartLineRequest{ProductID: product.ID, Quantity: 1})
	req.FulfillmentType = "DELIVERY"

	// Missing area.
	_, err := CreateOrder(db, events.NewHub(), "cantina", req)
	assert.Equal(t, apperrors.CodeInvalidDeliveryArea, apperrors.CodeOf(err))

	// Valid area adds its fee.
	req.DeliveryAreaID = &area.ID
	result, err := CreateOrder(db, events.NewHub(), "cantina", req)
	require.NoError(t, err)
	assert.Equal(t, int64(3200), result.TotalCents)

	var stored models.Order
	require.NoError(t, db.First(&stored, result.ID).Error)
	assert.Equal(t, int64(700), stored.DeliveryFeeCents)
	assert.Equal(t, stored.TotalCents, stored.DeliveryFeeCents+stored.ConvenienceFeeCents+int64(2500))
}

func TestCreateOrderConvenienceFee(t *testing.T) {
	db := setupDB(t)
	store := seedStore(t, db, func(s *models.Store) { s.ConvenienceFeeCents = 99 })
	product := seedProduct(t, db, store.ID, nil)

	result, err := CreateOrder(db, events.NewHub(), "cantina", pickupRequest(
		CartLineRequest{ProductID: product.ID, Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, int64(2599), result.TotalCents)
}

func TestCreateOrderCashChange(t *testing.T) {
	db := setupDB(t)
	store := seedStore(t, db, func(s *models.Store) { s.RequireChangeInfo = true })
	product := seedProduct(t, db, store.ID, nil)

	req := pickupRequest(CartLineRequest{ProductID: product.ID, Quantity: 1})
	req.PaymentMethod = "CASH"
	req.ChangeForCents = 2000 // below the 2500 total

	_, err := CreateOrder(db, events.NewHub(), "cantina", req)
	assert.Equal(t, apperrors.CodeInvalidPayment, apperrors.CodeOf(err))

	req.ChangeForCents = 5000
	result, err := CreateOrder(db, events.NewHub(), "cantina", req)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethod("CASH"), result.PaymentMethod)
}

func TestCreateOrderPaymentNotAccepted(t *testing.T) {
	db := setupDB(t)
	store := seedStore(t, db, func(s *models.Store) { s.AcceptCard = false })
	product := seedProduct(t, db, store.ID, nil)

	req := pickupRequest(CartLineRequest{ProductID: product.ID, Quantity: 1})
	req.PaymentMethod = "CARD"

	_, err := CreateOrder(db, events.NewHub(), "cantina", req)
	assert.Equal(t, apperrors.CodeInvalidPayment, apperrors.CodeOf(err))
}

func TestCreateOrderDineIn(t *testing.T) {
	db := setupDB(t)
	hub := events.NewHub()
	store := seedStore(t, db, nil)
	product := seedProduct(t, db, store.ID, nil)

	session := "sess-1"
	table := models.SalonTable{StoreID: store.ID, Number: 4, Status: models.TableOpen, CurrentSessionID: &session}
	require.NoError(t, db.Create(&table).Error)
	closed := models.SalonTable{StoreID: store.ID, Number: 5, Status: models.TableFree}
	require.NoError(t, db.Create(&closed).Error)

	req := CreateOrderRequest{
		FulfillmentType: "DINE_IN",
		TableID:         &table.ID,
		Items:           []CartLineRequest{{ProductID: product.ID, Quantity: 1}},
	}
	result, err := CreateOrder(db, hub, "cantina", req)
	require.NoError(t, err)

	var stored models.Order
	require.NoError(t, db.First(&stored, result.ID).Error)
	require.NotNil(t, stored.TableSessionID)
	assert.Equal(t, session, *stored.TableSessionID)

	// A table without an open session refuses orders.
	req.TableID = &closed.ID
	_, err = CreateOrder(db, hub, "cantina", req)
	assert.Equal(t, apperrors.CodeRejected, apperrors.CodeOf(err))

	// No table at all refuses too.
	req.TableID = nil
	_, err = CreateOrder(db, hub, "cantina", req)
	assert.Equal(t, apperrors.CodeRejected, apperrors.CodeOf(err))
}

func TestCreateOrderLegacyCustomerShapes(t *testing.T) {
	db := setupDB(t)
	store := seedStore(t, db, nil)
	product := seedProduct(t, db, store.ID, nil)

	req := CreateOrderRequest{
		FulfillmentType: "PICKUP",
		PaymentMethod:   "PIX",
		Customer:        &legacyCustomer{Name: "Bruno", Phone: "+5511888880000"},
		Items:           []CartLineRequest{{ProductID: product.ID, Quantity: 1}},
	}
	result, err := CreateOrder(db, events.NewHub(), "cantina", req)
	require.NoError(t, err)

	var stored models.Order
	require.NoError(t, db.First(&stored, result.ID).Error)
	assert.Equal(t, "Bruno", stored.CustomerName)
	assert.Equal(t, "+5511888880000", stored.CustomerPhone)
}
