package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techcare-io/techcare-api/middleware"
	"github.com/techcare-io/techcare-api/models"
)

// SubmitBidRequest represents the request body for submitting a bid
type SubmitBidRequest struct {
	BookingID uint    `json:"booking_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Message   string  `json:"message"`
}

// UpdateBookingStatusRequest represents the request body for a status update
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SubmitBid handles POST /api/technicians/bids - submits a bid on an open
// booking.
func SubmitBid(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	var req SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	bid, err := workflowService.SubmitBid(user, req.BookingID, req.Amount, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusCreated, bid)
}

// ListMyBids handles GET /api/technicians/bids - lists the caller's bids.
func ListMyBids(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	bids, err := workflowService.ListTechnicianBids(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, bids)
}

// ListAvailableJobs handles GET /api/technicians/available - lists open,
// unassigned bookings technicians can bid on.
func ListAvailableJobs(c *gin.Context) {
	bookings, err := workflowService.ListOpenBookings()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, bookings)
}

// ListMyJobs handles GET /api/technicians/jobs - lists bookings assigned to
// the caller.
func ListMyJobs(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	bookings, err := workflowService.ListTechnicianJobs(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, bookings)
}

// AcceptBooking handles PATCH /api/technicians/bookings/:id/accept - the
// direct-assignment path: claim an open booking without bidding.
func AcceptBooking(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := workflowService.AcceptBooking(user, bookingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, booking)
}

// UpdateBookingStatus handles PATCH /api/technicians/bookings/:id/status -
// moves an assigned booking to in_progress or completed.
func UpdateBookingStatus(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	booking, err := workflowService.UpdateStatus(user, bookingID, models.BookingStatus(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, booking)
}

// CompleteBooking handles PATCH /api/technicians/bookings/:id/complete -
// marks an assigned booking completed, settling counters and earnings.
func CompleteBooking(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := workflowService.UpdateStatus(user, bookingID, models.BookingStatusCompleted)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, booking)
}
