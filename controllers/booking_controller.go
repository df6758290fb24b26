package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/techcare-io/techcare-api/middleware"
	"github.com/techcare-io/techcare-api/services"
)

// CreateBookingRequest represents the request body for creating a booking
type CreateBookingRequest struct {
	DeviceType       string     `json:"device_type" binding:"required"`
	DeviceBrand      string     `json:"device_brand"`
	DeviceModel      string     `json:"device_model"`
	IssueDescription string     `json:"issue_description" binding:"required"`
	Address          string     `json:"address"`
	EstimatedCost    *float64   `json:"estimated_cost" binding:"omitempty,gt=0"`
	ScheduledDate    *time.Time `json:"scheduled_date"`
	TechnicianID     *uint      `json:"technician_id"`
}

// SelectBidRequest represents the request body for accepting a bid
type SelectBidRequest struct {
	BidID uint `json:"bid_id" binding:"required"`
}

// CreateBooking handles POST /api/bookings - creates a repair booking.
// Without a technician the booking opens for bidding; with one it is a
// direct assignment.
func CreateBooking(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	booking, err := workflowService.CreateBooking(user, services.CreateBookingInput{
		DeviceType:       req.DeviceType,
		DeviceBrand:      req.DeviceBrand,
		DeviceModel:      req.DeviceModel,
		IssueDescription: req.IssueDescription,
		Address:          req.Address,
		EstimatedCost:    req.EstimatedCost,
		ScheduledDate:    req.ScheduledDate,
		TechnicianID:     req.TechnicianID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusCreated, booking)
}

// ListBookings handles GET /api/bookings - lists the caller's bookings.
func ListBookings(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	bookings, err := workflowService.ListCustomerBookings(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, bookings)
}

// GetBooking handles GET /api/bookings/:id - fetches a booking with its
// bids. The owning customer and admins see every bid, lowest first; a
// technician only ever sees their own bid.
func GetBooking(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := workflowService.GetBookingForActor(user, bookingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Attach a presigned photo URL when a photo exists
	if booking.PhotoS3Key != nil {
		if s3Service := services.GetS3Service(); s3Service != nil {
			if url, err := s3Service.GetPresignedURL(*booking.PhotoS3Key); err == nil && url != "" {
				booking.PhotoURL = &url
			}
		}
	}

	respondData(c, http.StatusOK, booking)
}

// SelectBid handles POST /api/bookings/:id/select-bid - accepts a bid,
// assigning the technician and rejecting the competing bids.
func SelectBid(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SelectBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	booking, err := workflowService.AcceptBid(user, bookingID, req.BidID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, booking)
}

// CancelBooking handles POST /api/bookings/:id/cancel - cancels a booking
// that has not reached a terminal state.
func CancelBooking(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := workflowService.CancelBooking(user, bookingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, booking)
}
