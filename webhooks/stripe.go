package webhooks

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"

	"github.com/jaider012/easy-reals/models"
)

type Handler struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewHandler(db *gorm.DB, log zerolog.Logger) *Handler {
	return &Handler{DB: db, Log: log}
}

// HandleStripeWebhook keeps user subscription fields in sync with the
// billing provider. Signature verified; unrecognized events are ignored.
func (h *Handler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	signatureHeader := c.GetHeader("Stripe-Signature")
	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	event, err := webhook.ConstructEvent(payload, signatureHeader, webhookSecret)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
		return
	}

	switch event.Type {
	case "invoice.payment_succeeded":
		h.handleInvoicePaymentSucceeded(event)
	case "customer.subscription.updated":
		h.handleSubscriptionUpdated(event)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(event)
	default:
		h.Log.Debug().Str("type", string(event.Type)).Msg("ignoring stripe event")
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) handleInvoicePaymentSucceeded(event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.Log.Error().Err(err).Msg("parsing invoice event")
		return
	}
	if invoice.Customer == nil {
		return
	}

	h.setSubscription(invoice.Customer.ID, models.SubscriptionActive, nil)
}

func (h *Handler) handleSubscriptionUpdated(event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.Log.Error().Err(err).Msg("parsing subscription event")
		return
	}
	if sub.Customer == nil {
		return
	}

	status := models.SubscriptionActive
	switch sub.Status {
	case stripe.SubscriptionStatusTrialing:
		status = models.SubscriptionTrial
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusUnpaid:
		status = models.SubscriptionCanceled
	}

	var endsAt *time.Time
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0)
		endsAt = &t
	}

	h.setSubscription(sub.Customer.ID, status, endsAt)
}

func (h *Handler) handleSubscriptionDeleted(event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.Log.Error().Err(err).Msg("parsing subscription event")
		return
	}
	if sub.Customer == nil {
		return
	}

	h.setSubscription(sub.Customer.ID, models.SubscriptionCanceled, nil)
}

func (h *Handler) setSubscription(customerID, status string, endsAt *time.Time) {
	res := h.DB.Model(&models.User{}).
		Where("stripe_customer_id = ?", customerID).
		Updates(map[string]interface{}{
			"subscription_status":  status,
			"subscription_ends_at": endsAt,
		})
	if res.Error != nil {
		h.Log.Error().Err(res.Error).Str("customer", customerID).Msg("updating subscription")
		return
	}
	if res.RowsAffected == 0 {
		h.Log.Warn().Str("customer", customerID).Msg("stripe event for unknown customer")
		return
	}
	h.Log.Info().Str("customer", customerID).Str("status", status).Msg("subscription updated")
}
