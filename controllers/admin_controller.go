package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techcare-io/techcare-api/config"
	"github.com/techcare-io/techcare-api/middleware"
	"github.com/techcare-io/techcare-api/models"
)

// UpdateRoleRequest represents the request body for changing a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user customer technician admin"`
}

// SetReviewStatusRequest represents the request body for review moderation
type SetReviewStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=published hidden"`
}

// AdminListUsers handles GET /api/admin/users.
func AdminListUsers(c *gin.Context) {
	db := config.GetDB()

	query := db.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Order("created_at desc").Find(&users).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load users")
		return
	}

	respondData(c, http.StatusOK, users)
}

// AdminUpdateUserRole handles PATCH /api/admin/users/:id/role. Role changes
// are admin-assisted only; a technician promotion also provisions the
// technician row if it is missing.
func AdminUpdateUserRole(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	db := config.GetDB()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	if err := db.Model(&user).Update("role", req.Role).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update role")
		return
	}

	if req.Role == models.RoleTechnician {
		var technician models.Technician
		if err := db.Where("user_id = ?", user.ID).First(&technician).Error; err != nil {
			db.Create(&models.Technician{
				UserID: user.ID,
				Name:   user.Name,
				Email:  user.Email,
			})
		}
	}

	respondData(c, http.StatusOK, user)
}

// AdminVerifyTechnician handles PATCH /api/admin/technicians/:id/verify.
// Only verified technicians appear in search.
func AdminVerifyTechnician(c *gin.Context) {
	technicianID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	var technician models.Technician
	if err := db.First(&technician, technicianID).Error; err != nil {
		respondError(c, http.StatusNotFound, "TECHNICIAN_NOT_FOUND", "Technician not found")
		return
	}

	if err := db.Model(&technician).Update("is_verified", true).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to verify technician")
		return
	}

	respondData(c, http.StatusOK, technician)
}

// AdminListBookings handles GET /api/admin/bookings.
func AdminListBookings(c *gin.Context) {
	db := config.GetDB()

	query := db.Model(&models.Booking{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var bookings []models.Booking
	if err := query.Preload("Customer").Preload("Technician").
		Order("created_at desc").
		Find(&bookings).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load bookings")
		return
	}

	respondData(c, http.StatusOK, bookings)
}

// AdminListReviews handles GET /api/admin/reviews - moderation queue,
// hidden reviews included.
func AdminListReviews(c *gin.Context) {
	db := config.GetDB()

	query := db.Model(&models.Review{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var reviews []models.Review
	if err := query.Preload("Customer").Preload("Technician").
		Order("created_at desc").
		Find(&reviews).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load reviews")
		return
	}

	respondData(c, http.StatusOK, reviews)
}

// AdminSetReviewStatus handles PATCH /api/admin/reviews/:id/status -
// publishes or hides a review; the rating aggregate follows.
func AdminSetReviewStatus(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetReviewStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	review, err := reviewService.SetStatus(reviewID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, review)
}

// AdminDeleteReview handles DELETE /api/admin/reviews/:id.
func AdminDeleteReview(c *gin.Context) {
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
