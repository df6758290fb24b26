package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/techcare-io/techcare-api/config"
	"github.com/techcare-io/techcare-api/middleware"
	"github.com/techcare-io/techcare-api/models"
	"github.com/techcare-io/techcare-api/utils/logger"
)

func TestCreatePaymentIntent(t *testing.T) {
	db, _ := setupTestDB(t)

	customerUser, customer := createTestCustomer(t, db, "1")
	otherCustomerUser, _ := createTestCustomer(t, db, "2")

	booking := models.Booking{
		CustomerID:       customer.ID,
		DeviceType:       "laptop",
		IssueDescription: "Dead pixel",
		Status:           models.BookingStatusBidAccepted,
		PaymentStatus:    models.PaymentStatusUnpaid,
	}
	db.Create(&booking)

	tests := []struct {
		name           string
		auth0ID        string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name:    "Successfully create intent in cents",
			auth0ID: customerUser.Auth0ID,
			requestBody: map[string]interface{}{
				"booking_id": booking.ID,
				"amount":     45.5,
				"currency":   "usd",
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.NotEmpty(t, data["payment_intent_id"])
				assert.NotEmpty(t, data["client_secret"])
				assert.Equal(t, float64(4550), data["amount"])
				assert.Equal(t, "usd", data["currency"])
			},
		},
		{
			name:    "Zero-decimal currency is not scaled",
			auth0ID: customerUser.Auth0ID,
			requestBody: map[string]interface{}{
				"booking_id": booking.ID,
				"amount":     500,
				"currency":   "jpy",
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, float64(500), data["amount"])
			},
		},
		{
			name:    "Fail on someone else's booking",
			auth0ID: otherCustomerUser.Auth0ID,
			requestBody: map[string]interface{}{
				"booking_id": booking.ID,
				"amount":     45.5,
			},
			expectedStatus: http.StatusForbidden,
			expectedError:  "FORBIDDEN",
		},
		{
			name:    "Fail with zero amount",
			auth0ID: customerUser.Auth0ID,
			requestBody: map[string]interface{}{
				"booking_id": booking.ID,
				"amount":     0,
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:    "Fail with unknown booking",
			auth0ID: customerUser.Auth0ID,
			requestBody: map[string]interface{}{
				"booking_id": 9999,
				"amount":     45.5,
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "BOOKING_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/payment/create-payment-intent",
				mockAuthMiddleware(tt.auth0ID, "customer", "mock-token"),
				middleware.LoadProfile(),
				CreatePaymentIntent,
			)

			body, _ := json.Marshal(tt.requestBody)
			req, _ := http.NewRequest(http.MethodPost, "/payment/create-payment-intent", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			assert.NoError(t, err)

			if tt.expectedError != "" {
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
			}

			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}
}

func TestCreatePaymentIntent_NotConfigured(t *testing.T) {
	db, _ := setupTestDB(t)

	// Rebuild the service layer without a payment provider
	Init(db, nil, 100, logger.NewNop())

	customerUser, customer := createTestCustomer(t, db, "1")
	booking := models.Booking{
		CustomerID:       customer.ID,
		DeviceType:       "phone",
		IssueDescription: "Charging port",
		Status:           models.BookingStatusBidAccepted,
		PaymentStatus:    models.PaymentStatusUnpaid,
	}
	db.Create(&booking)

	router := setupTestRouter()
	router.POST("/payment/create-payment-intent",
		mockAuthMiddleware(customerUser.Auth0ID, "customer", "mock-token"),
		middleware.LoadProfile(),
		CreatePaymentIntent,
	)

	body, _ := json.Marshal(map[string]interface{}{
		"booking_id": booking.ID,
		"amount":     45.5,
	})
	req, _ := http.NewRequest(http.MethodPost, "/payment/create-payment-intent", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "PAYMENT_NOT_CONFIGURED", errorData["code"])
}

func TestConfirmPayment(t *testing.T) {
	db, provider := setupTestDB(t)

	customerUser, customer := createTestCustomer(t, db, "1")

	booking := models.Booking{
		CustomerID:       customer.ID,
		DeviceType:       "laptop",
		IssueDescription: "Coffee spill",
		Status:           models.BookingStatusBidAccepted,
		PaymentStatus:    models.PaymentStatusUnpaid,
	}
	db.Create(&booking)

	intent, err := provider.CreateIntent(7500, "usd", map[string]string{})
	assert.NoError(t, err)

	router := setupTestRouter()
	router.POST("/payment/confirm-payment",
		mockAuthMiddleware(customerUser.Auth0ID, "customer", "mock-token"),
		middleware.LoadProfile(),
		ConfirmPayment,
	)

	confirm := func() (*httptest.ResponseRecorder, map[string]interface{}) {
		body, _ := json.Marshal(map[string]interface{}{
			"payment_intent_id": intent.ID,
			"booking_id":        booking.ID,
		})
		req, _ := http.NewRequest(http.MethodPost, "/payment/confirm-payment", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		return w, response
	}

	t.Run("Fail while intent has not succeeded", func(t *testing.T) {
		w, response := confirm()
		assert.Equal(t, http.StatusBadRequest, w.Code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "INVALID_STATE", errorData["code"])
	})

	provider.MarkSucceeded(intent.ID)

	t.Run("Confirm creates payment and marks booking paid", func(t *testing.T) {
		w, response := confirm()
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].(map[string]interface{})
		assert.False(t, data["already_confirmed"].(bool))
		payment := data["payment"].(map[string]interface{})
		assert.Equal(t, 75.0, payment["amount"])
		assert.Equal(t, "succeeded", payment["status"])

		var updated models.Booking
		db.First(&updated, booking.ID)
		assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
		assert.Equal(t, models.BookingStatusConfirmed, updated.Status)
	})

	t.Run("Second confirm is idempotent", func(t *testing.T) {
		w, response := confirm()
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].(map[string]interface{})
		assert.True(t, data["already_confirmed"].(bool))

		// Still exactly one payment row for the intent
		var count int64
		db.Model(&models.Payment{}).
			Where("stripe_payment_intent_id = ?", intent.ID).
			Count(&count)
		assert.Equal(t, int64(1), count)

		// And exactly one payment notification
		db.Model(&models.Notification{}).
			Where("user_id = ? AND type = ?", customerUser.ID, models.NotificationPaymentReceived).
			Count(&count)
		assert.Equal(t, int64(1), count)
	})
}

func TestRefund(t *testing.T) {
	db, provider := setupTestDB(t)

	customerUser, customer := createTestCustomer(t, db, "1")
	otherCustomerUser, _ := createTestCustomer(t, db, "2")
	adminUser := createTestAdmin(t, db, "1")

	booking := models.Booking{
		CustomerID:       customer.ID,
		DeviceType:       "phone",
		IssueDescription: "Bad repair",
		Status:           models.BookingStatusConfirmed,
		PaymentStatus:    models.PaymentStatusPaid,
	}
	db.Create(&booking)

	intent, _ := provider.CreateIntent(10000, "usd", map[string]string{})
	provider.MarkSucceeded(intent.ID)

	payment := models.Payment{
		BookingID:             booking.ID,
		CustomerID:            customer.ID,
		Amount:                100,
		Currency:              "usd",
		StripePaymentIntentID: intent.ID,
		Status:                models.PaymentRecordSucceeded,
	}
	db.Create(&payment)

	refund := func(auth0ID, role string, body map[string]interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
		router := setupTestRouter()
		router.POST("/payment/refund",
			mockAuthMiddleware(auth0ID, role, "mock-token"),
			middleware.LoadProfile(),
			Refund,
		)

		raw, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, "/payment/refund", bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		return w, response
	}

	t.Run("Stranger cannot refund", func(t *testing.T) {
		w, _ := refund(otherCustomerUser.Auth0ID, "customer", map[string]interface{}{
			"payment_intent_id": intent.ID,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Partial refund by owner", func(t *testing.T) {
		w, _ := refund(customerUser.Auth0ID, "customer", map[string]interface{}{
			"payment_intent_id": intent.ID,
			"amount":            40,
			"reason":            "partial rework",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var updated models.Payment
		db.First(&updated, payment.ID)
		assert.Equal(t, models.PaymentRecordPartiallyRefunded, updated.Status)
		assert.NotNil(t, updated.RefundID)
		assert.NotNil(t, updated.RefundedAt)

		var updatedBooking models.Booking
		db.First(&updatedBooking, booking.ID)
		assert.Equal(t, models.PaymentStatusPartiallyRefunded, updatedBooking.PaymentStatus)
	})

	t.Run("Full refund by admin", func(t *testing.T) {
		w, _ := refund(adminUser.Auth0ID, "admin", map[string]interface{}{
			"payment_intent_id": intent.ID,
			"reason":            "admin override",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var updated models.Payment
		db.First(&updated, payment.ID)
		assert.Equal(t, models.PaymentRecordRefunded, updated.Status)

		var updatedBooking models.Booking
		db.First(&updatedBooking, booking.ID)
		assert.Equal(t, models.PaymentStatusRefunded, updatedBooking.PaymentStatus)
	})

	t.Run("Refunding twice fails", func(t *testing.T) {
		w, response := refund(customerUser.Auth0ID, "customer", map[string]interface{}{
			"payment_intent_id": intent.ID,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "INVALID_STATE", errorData["code"])
	})

	t.Run("Unknown intent fails", func(t *testing.T) {
		w, response := refund(customerUser.Auth0ID, "customer", map[string]interface{}{
			"payment_intent_id": "pi_missing",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "PAYMENT_NOT_FOUND", errorData["code"])
	})
}

func TestPaymentWebhook_NotConfigured(t *testing.T) {
	setupTestDB(t)

	router := setupTestRouter()
	router.POST("/payment/webhook", PaymentWebhook)

	req, _ := http.NewRequest(http.MethodPost, "/payment/webhook", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPaymentWebhook_BadSignature(t *testing.T) {
	setupTestDB(t)
	config.GetConfig().StripeWebhookSecret = "whsec_test"

	router := setupTestRouter()
	router.POST("/payment/webhook", PaymentWebhook)

	req, _ := http.NewRequest(http.MethodPost, "/payment/webhook", bytes.NewBufferString(`{"type":"payment_intent.succeeded"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_SIGNATURE", errorData["code"])
}
