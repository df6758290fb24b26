package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/techcare-io/techcare-api/middleware"
	"github.com/techcare-io/techcare-api/models"
)

func TestCreateBooking(t *testing.T) {
	db, _ := setupTestDB(t)

	customerUser, customer := createTestCustomer(t, db, "1")
	_, technician := createTestTechnician(t, db, "1")

	tests := []struct {
		name           string
		auth0ID        string
		role           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name:    "Successfully create open booking",
			auth0ID: customerUser.Auth0ID,
			role:    "customer",
			requestBody: map[string]interface{}{
				"device_type":       "laptop",
				"device_brand":      "Lenovo",
				"issue_description": "Screen flickers on battery",
				"address":           "12 Main St",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "pending", data["status"])
				assert.Equal(t, "unpaid", data["payment_status"])
				assert.Equal(t, float64(customer.ID), data["customer_id"])
				assert.Nil(t, data["technician_id"])
				assert.Nil(t, data["price"])
			},
		},
		{
			name:    "Direct assignment starts confirmed",
			auth0ID: customerUser.Auth0ID,
			role:    "customer",
			requestBody: map[string]interface{}{
				"device_type":       "phone",
				"issue_description": "Cracked screen",
				"technician_id":     technician.ID,
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "confirmed", data["status"])
				assert.Equal(t, float64(technician.ID), data["technician_id"])
			},
		},
		{
			name:    "Fail with missing device type",
			auth0ID: customerUser.Auth0ID,
			role:    "customer",
			requestBody: map[string]interface{}{
				"issue_description": "Does not power on",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:    "Fail with missing issue description",
			auth0ID: customerUser.Auth0ID,
			role:    "customer",
			requestBody: map[string]interface{}{
				"device_type": "tablet",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:    "Fail with unknown technician",
			auth0ID: customerUser.Auth0ID,
			role:    "customer",
			requestBody: map[string]interface{}{
				"device_type":       "phone",
				"issue_description": "Cracked screen",
				"technician_id":     9999,
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "TECHNICIAN_NOT_FOUND",
		},
		{
			name:    "Fail with user not found",
			auth0ID: "auth0|nonexistent",
			role:    "customer",
			requestBody: map[string]interface{}{
				"device_type":       "phone",
				"issue_description": "Cracked screen",
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "USER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/bookings",
				mockAuthMiddleware(tt.auth0ID, tt.role, "mock-token"),
				middleware.LoadProfile(),
				CreateBooking,
			)

			body, _ := json.Marshal(tt.requestBody)
			req, _ := http.NewRequest(http.MethodPost, "/bookings", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			assert.NoError(t, err)

			if tt.expectedError != "" {
				assert.False(t, response["success"].(bool))
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
			}

			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}
}

func TestCreateBooking_DirectAssignmentCounters(t *testing.T) {
	db, _ := setupTestDB(t)

	customerUser, _ := createTestCustomer(t, db, "1")
	_, technician := createTestTechnician(t, db, "1")

	router := setupTestRouter()
	router.POST("/bookings",
		mockAuthMiddleware(customerUser.Auth0ID, "customer", "mock-token"),
		middleware.LoadProfile(),
		CreateBooking,
	)

	body, _ := json.Marshal(map[string]interface{}{
		"device_type":       "phone",
		"issue_description": "Cracked screen",
		"technician_id":     technician.ID,
	})
	req, _ := http.NewRequest(http.MethodPost, "/bookings", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var updated models.Technician
	db.First(&updated, technician.ID)
	assert.Equal(t, 1, updated.ActiveJobs)
	assert.Equal(t, 1, updated.TotalJobs)

	// The technician was notified inside the same transaction
	var count int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", technician.UserID, models.NotificationBookingAssigned).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetBooking_BidVisibility(t *testing.T) {
	db, _ := setupTestDB(t)

	customerUser, customer := createTestCustomer(t, db, "1")
	otherCustomerUser, _ := createTestCustomer(t, db, "2")
	techUser1, technician1 := createTestTechnician(t, db, "1")
	_, technician2 := createTestTechnician(t, db, "2")
	adminUser := createTestAdmin(t, db, "1")

	booking := models.Booking{
		CustomerID:       customer.ID,
		DeviceType:       "laptop",
		IssueDescription: "Broken hinge",
		Status:           models.BookingStatusPending,
		PaymentStatus:    models.PaymentStatusUnpaid,
	}
	db.Create(&booking)

	// Two bids, inserted higher-first to verify ordering
	db.Create(&models.Bid{BookingID: booking.ID, TechnicianID: technician1.ID, Amount: 80, Status: models.BidStatusPending})
	db.Create(&models.Bid{BookingID: booking.ID, TechnicianID: technician2.ID, Amount: 60, Status: models.BidStatusPending})

	newRouter := func(auth0ID, role string) *gin.Engine {
		router := setupTestRouter()
		router.GET("/bookings/:id",
			mockAuthMiddleware(auth0ID, role, "mock-token"),
			middleware.LoadProfile(),
			GetBooking,
		)
		return router
	}

	get := func(router *gin.Engine) (*httptest.ResponseRecorder, map[string]interface{}) {
		req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/bookings/%d", booking.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		return w, response
	}

	t.Run("Owner sees all bids lowest first", func(t *testing.T) {
		w, response := get(newRouter(customerUser.Auth0ID, "customer"))
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].(map[string]interface{})
		bids := data["bids"].([]interface{})
		assert.Len(t, bids, 2)
		first := bids[0].(map[string]interface{})
		assert.Equal(t, float64(60), first["amount"])
	})

	t.Run("Technician sees only own bid", func(t *testing.T) {
		w, response := get(newRouter(techUser1.Auth0ID, "technician"))
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].(map[string]interface{})
		bids := data["bids"].([]interface{})
		assert.Len(t, bids, 1)
		own := bids[0].(map[string]interface{})
		assert.Equal(t, float64(technician1.ID), own["technician_id"])
	})

	t.Run("Admin sees all bids", func(t *testing.T) {
		w, response := get(newRouter(adminUser.Auth0ID, "admin"))
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].(map[string]interface{})
		assert.Len(t, data["bids"].([]interface{}), 2)
	})

	t.Run("Other customer is forbidden", func(t *testing.T) {
		w, response := get(newRouter(otherCustomerUser.Auth0ID, "customer"))
		assert.Equal(t, http.StatusForbidden, w.Code)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "FORBIDDEN", errorData["code"])
	})
}

func TestSelectBid(t *testing.T) {
	db, _ := setupTestDB(t)

	customerUser, customer := createTestCustomer(t, db, "1")
	techUser1, technician1 := createTestTechnician(t, db, "1")
	_, technician2 := createTestTechnician(t, db, "2")

	booking := models.Booking{
		CustomerID:       customer.ID,
		DeviceType:       "phone",
		IssueDescription: "Battery drains fast",
		Status:           models.BookingStatusPending,
		PaymentStatus:    models.PaymentStatusUnpaid,
	}
	db.Create(&booking)

	bid1 := models.Bid{BookingID: booking.ID, TechnicianID: technician1.ID, Amount: 45, Status: models.BidStatusPending}
	bid2 := models.Bid{BookingID: booking.ID, TechnicianID: technician2.ID, Amount: 50, Status: models.BidStatusPending}
	db.Create(&bid1)
	db.Create(&bid2)

	router := setupTestRouter()
	router.POST("/bookings/:id/select-bid",
		mockAuthMiddleware(customerUser.Auth0ID, "customer", "mock-token"),
		middleware.LoadProfile(),
		SelectBid,
	)

	selectBid := func(bookingID, bidID uint) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]interface{}{"bid_id": bidID})
		req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/bookings/%d/select-bid", bookingID), bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := selectBid(booking.ID, bid1.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Booking
	db.First(&updated, booking.ID)
	assert.Equal(t, models.BookingStatusBidAccepted, updated.Status)
	assert.Equal(t, technician1.ID, *updated.TechnicianID)
	assert.Equal(t, 45.0, *updated.Price)

	// Assignment claims the winning technician's counters
	var assigned models.Technician
	db.First(&assigned, technician1.ID)
	assert.Equal(t, 1, assigned.ActiveJobs)
	assert.Equal(t, 1, assigned.TotalJobs)

	// Winner accepted, sibling rejected
	var winner, loser models.Bid
	db.First(&winner, bid1.ID)
	db.First(&loser, bid2.ID)
	assert.Equal(t, models.BidStatusAccepted, winner.Status)
	assert.Equal(t, models.BidStatusRejected, loser.Status)

	// Winner notified exactly once
	var count int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", techUser1.ID, models.NotificationBidAccepted).
		Count(&count)
	assert.Equal(t, int64(1), count)

	t.Run("Retry of the same accept is a no-op success", func(t *testing.T) {
		w := selectBid(booking.ID, bid1.ID)
		assert.Equal(t, http.StatusOK, w.Code)

		var retried models.Booking
		db.First(&retried, booking.ID)
		assert.Equal(t, technician1.ID, *retried.TechnicianID)

		// No duplicate notification
		var count int64
		db.Model(&models.Notification{}).
			Where("user_id = ? AND type = ?", techUser1.ID, models.NotificationBidAccepted).
			Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Selecting the losing bid after acceptance fails", func(t *testing.T) {
		w := selectBid(booking.ID, bid2.ID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCancelBooking(t *testing.T) {
	db, _ := setupTestDB(t)

	customerUser, customer := createTestCustomer(t, db, "1")
	_, technician := createTestTechnician(t, db, "1")

	router := setupTestRouter()
	router.POST("/bookings/:id/cancel",
		mockAuthMiddleware(customerUser.Auth0ID, "customer", "mock-token"),
		middleware.LoadProfile(),
		CancelBooking,
	)

	cancel := func(bookingID uint) *httptest.ResponseRecorder {
		req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/bookings/%d/cancel", bookingID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("Cancel pending booking", func(t *testing.T) {
		booking := models.Booking{
			CustomerID:       customer.ID,
			DeviceType:       "tablet",
			IssueDescription: "Wifi broken",
			Status:           models.BookingStatusPending,
			PaymentStatus:    models.PaymentStatusUnpaid,
		}
		db.Create(&booking)

		w := cancel(booking.ID)
		assert.Equal(t, http.StatusOK, w.Code)

		var updated models.Booking
		db.First(&updated, booking.ID)
		assert.Equal(t, models.BookingStatusCancelled, updated.Status)
	})

	t.Run("Cancel assigned booking releases technician", func(t *testing.T) {
		db.Model(&models.Technician{}).Where("id = ?", technician.ID).Update("active_jobs", 1)

		booking := models.Booking{
			CustomerID:       customer.ID,
			TechnicianID:     &technician.ID,
			DeviceType:       "laptop",
			IssueDescription: "Keyboard dead",
			Status:           models.BookingStatusConfirmed,
			PaymentStatus:    models.PaymentStatusUnpaid,
		}
		db.Create(&booking)

		w := cancel(booking.ID)
		assert.Equal(t, http.StatusOK, w.Code)

		var updated models.Technician
		db.First(&updated, technician.ID)
		assert.Equal(t, 0, updated.ActiveJobs)
	})

	t.Run("Cannot cancel in_progress booking", func(t *testing.T) {
		booking := models.Booking{
			CustomerID:       customer.ID,
			TechnicianID:     &technician.ID,
			DeviceType:       "phone",
			IssueDescription: "Water damage",
			Status:           models.BookingStatusInProgress,
			PaymentStatus:    models.PaymentStatusPaid,
		}
		db.Create(&booking)

		w := cancel(booking.ID)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(t, "INVALID_STATE", errorData["code"])
	})

	t.Run("Cannot cancel completed booking", func(t *testing.T) {
		booking := models.Booking{
			CustomerID:       customer.ID,
			TechnicianID:     &technician.ID,
			DeviceType:       "phone",
			IssueDescription: "Speaker rattle",
			Status:           models.BookingStatusCompleted,
			PaymentStatus:    models.PaymentStatusPaid,
		}
		db.Create(&booking)

		w := cancel(booking.ID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListBookings(t *testing.T) {
	db, _ := setupTestDB(t)

	customerUser, customer := createTestCustomer(t, db, "1")
	_, otherCustomer := createTestCustomer(t, db, "2")

	for i := 0; i < 3; i++ {
		db.Create(&models.Booking{
			CustomerID:       customer.ID,
			DeviceType:       "laptop",
			IssueDescription: fmt.Sprintf("Issue %d", i),
			Status:           models.BookingStatusPending,
			PaymentStatus:    models.PaymentStatusUnpaid,
		})
	}
	db.Create(&models.Booking{
		CustomerID:       otherCustomer.ID,
		DeviceType:       "phone",
		IssueDescription: "Not mine",
		Status:           models.BookingStatusPending,
		PaymentStatus:    models.PaymentStatusUnpaid,
	})

	router := setupTestRouter()
	router.GET("/bookings",
		mockAuthMiddleware(customerUser.Auth0ID, "customer", "mock-token"),
		middleware.LoadProfile(),
		ListBookings,
	)

	req, _ := http.NewRequest(http.MethodGet, "/bookings", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.True(t, response["success"].(bool))
	assert.Len(t, response["data"].([]interface{}), 3)
}
