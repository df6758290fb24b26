package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techcare-io/techcare-api/config"
	"github.com/techcare-io/techcare-api/middleware"
	"github.com/techcare-io/techcare-api/models"
)

// AddFavoriteRequest represents the request body for saving a technician
type AddFavoriteRequest struct {
	TechnicianID uint `json:"technician_id" binding:"required"`
}

// customerForUser loads the customer row behind the calling user, writing
// the error response itself.
func customerForUser(c *gin.Context) (*models.Customer, bool) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}

	db := config.GetDB()
	var customer models.Customer
	if err := db.Where("user_id = ?", user.ID).First(&customer).Error; err != nil {
		respondError(c, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer profile not found")
		return nil, false
	}

	return &customer, true
}

// GetCustomerProfile handles GET /api/customers/me - the caller's customer
// row, including loyalty points.
func GetCustomerProfile(c *gin.Context) {
	customer, ok := customerForUser(c)
	if !ok {
		return
	}

	respondData(c, http.StatusOK, customer)
}

// ListFavorites handles GET /api/customers/favorites.
func ListFavorites(c *gin.Context) {
	customer, ok := customerForUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var favorites []models.Favorite
	if err := db.Where("customer_id = ?", customer.ID).
		Preload("Technician").
		Order("created_at desc").
		Find(&favorites).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load favorites")
		return
	}

	respondData(c, http.StatusOK, favorites)
}

// AddFavorite handles POST /api/customers/favorites.
func AddFavorite(c *gin.Context) {
	customer, ok := customerForUser(c)
	if !ok {
		return
	}

	var req AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	db := config.GetDB()
	var technician models.Technician
	if err := db.First(&technician, req.TechnicianID).Error; err != nil {
		respondError(c, http.StatusNotFound, "TECHNICIAN_NOT_FOUND", "Technician not found")
		return
	}

	favorite := models.Favorite{
		CustomerID:   customer.ID,
		TechnicianID: technician.ID,
	}
	if err := db.Create(&favorite).Error; err != nil {
		respondError(c, http.StatusConflict, "ALREADY_FAVORITED", "Technician is already in your favorites")
		return
	}

	respondData(c, http.StatusCreated, favorite)
}

// RemoveFavorite handles DELETE /api/customers/favorites/:technicianId.
func RemoveFavorite(c *gin.Context) {
	customer, ok := customerForUser(c)
	if !ok {
		return
	}

	technicianID, ok := parseIDParam(c, "technicianId")
	if !ok {
		return
	}

	db := config.GetDB()
	result := db.Where("customer_id = ? AND technician_id = ?", customer.ID, technicianID).
		Delete(&models.Favorite{})
	if result.Error != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to remove favorite")
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "FAVORITE_NOT_FOUND", "Technician is not in your favorites")
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": true})
}
