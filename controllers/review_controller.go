package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techcare-io/techcare-api/config"
	"github.com/techcare-io/techcare-api/middleware"
)

// CreateReviewRequest represents the request body for creating a review
type CreateReviewRequest struct {
	BookingID uint   `json:"booking_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment"`
}

// UpdateReviewRequest represents the request body for editing a review
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment"`
}

// CreateReview handles POST /api/reviews - reviews a completed booking and
// recomputes the technician's rating aggregate.
func CreateReview(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	review, err := reviewService.Create(user, req.BookingID, req.Rating, req.Comment)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusCreated, review)
}

// UpdateReview handles PUT /api/reviews/:id - edits the caller's review.
func UpdateReview(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	review, err := reviewService.Update(user, reviewID, req.Rating, req.Comment)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/reviews/:id - removes the caller's
// review and recomputes the aggregate.
func DeleteReview(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := reviewService.Delete(user, reviewID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

// ListTechnicianReviews handles GET /api/reviews/technician/:technicianId -
// public list of a technician's published reviews.
func ListTechnicianReviews(c *gin.Context) {
	technicianID, ok := parseIDParam(c, "technicianId")
	if !ok {
		return
	}

	reviews, err := reviewService.ListForTechnician(technicianID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, reviews)
}

// ReviewStats handles GET /api/reviews/stats/:technicianId - public rating
// average, count and star distribution.
func ReviewStats(c *gin.Context) {
	technicianID, ok := parseIDParam(c, "technicianId")
	if !ok {
		return
	}

	stats, err := ratingService.Stats(config.GetDB(), technicianID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, stats)
}
