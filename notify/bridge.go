// Package notify is the outbound chat-bot bridge. Calls are fire-and
// forget: a failed notification is logged and dropped, never surfaced to
// the order-creation caller.
package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SmartNuvem/smartpedidos-sub002/models"
)

var client = &http.Client{Timeout: 5 * time.Second}

type orderCreatedPayload struct {
	Event           string                 `json:"event"`
	StoreSlug       string                 `json:"store_slug"`
	OrderID         uint                   `json:"order_id"`
	ShortCode       string                 `json:"short_code"`
	FulfillmentType models.FulfillmentType `json:"fulfillment_type"`
	TotalCents      int64                  `json:"total_cents"`
	CustomerName    string                 `json:"customer_name,omitempty"`
	CustomerPhone   string                 `json:"customer_phone,omitempty"`
}

// OrderCreated pushes an order-created notification to the configured
// webhook. A missing CHATBOT_WEBHOOK_URL disables the bridge entirely.
func OrderCreated(storeSlug string, order models.Order) {
	url := os.Getenv("CHATBOT_WEBHOOK_URL")
	if url == "" {
		return
	}

	body, err := json.Marshal(orderCreatedPayload{
		Event:           "order.created",
		StoreSlug:       storeSlug,
		OrderID:         order.ID,
		ShortCode:       order.ShortCode,
		FulfillmentType: order.FulfillmentType,
		TotalCents:      order.TotalCents,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
	})
	if err != nil {
		logrus.WithError(err).Error("notify: marshal order payload failed")
		return
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Warn("notify: chat-bot bridge unreachable")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logrus.WithFields(logrus.Fields{
			"order_id": order.ID,
			"status":   resp.StatusCode,
		}).Warn("notify: chat-bot bridge rejected notification")
	}
}
