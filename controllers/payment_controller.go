package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/techcare-io/techcare-api/config"
	"github.com/techcare-io/techcare-api/middleware"
)

// CreatePaymentIntentRequest represents the request body for starting a payment
type CreatePaymentIntentRequest struct {
	BookingID uint    `json:"booking_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Currency  string  `json:"currency"`
}

// ConfirmPaymentRequest represents the request body for finalizing a payment
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
	BookingID       uint   `json:"booking_id" binding:"required"`
}

// RefundRequest represents the request body for a refund
type RefundRequest struct {
	PaymentIntentID string   `json:"payment_intent_id" binding:"required"`
	Amount          *float64 `json:"amount" binding:"omitempty,gt=0"`
	Reason          string   `json:"reason"`
}

// CreatePaymentIntent handles POST /api/payment/create-payment-intent.
// Returns the provider client secret; card data never touches this server.
func CreatePaymentIntent(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	var req CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	intent, err := paymentService.CreateIntent(user, req.BookingID, req.Amount, req.Currency)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
		"amount":            intent.Amount,
		"currency":          intent.Currency,
	})
}

// ConfirmPayment handles POST /api/payment/confirm-payment. Idempotent on
// the provider intent id, so a retry or a race with the webhook cannot
// double-apply.
func ConfirmPayment(c *gin.Context) {
	if _, err := middleware.GetCurrentUser(c); err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	payment, alreadyConfirmed, err := paymentService.Confirm(req.PaymentIntentID, req.BookingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"payment":           payment,
		"already_confirmed": alreadyConfirmed,
	})
}

// Refund handles POST /api/payment/refund - full or partial refund by the
// owning customer or an admin.
func Refund(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	payment, err := paymentService.Refund(user, req.PaymentIntentID, req.Amount, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, payment)
}

// PaymentWebhook handles POST /api/payment/webhook - Stripe's signed event
// channel. payment_intent.succeeded funnels into the same confirmation path
// as the client call, deduplicated on the intent id.
func PaymentWebhook(c *gin.Context) {
	cfg := config.GetConfig()
	if cfg == nil || cfg.StripeWebhookSecret == "" {
		respondError(c, http.StatusServiceUnavailable, "PAYMENT_NOT_CONFIGURED", "Webhook secret is not configured")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 65536))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Could not read webhook payload")
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), cfg.StripeWebhookSecret)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature verification failed")
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Could not decode payment intent")
			return
		}

		bookingID, err := strconv.ParseUint(intent.Metadata["booking_id"], 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Payment intent has no booking_id metadata")
			return
		}

		if _, _, err := paymentService.Confirm(intent.ID, uint(bookingID)); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	respondData(c, http.StatusOK, gin.H{"received": true})
}
