package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techcare-io/techcare-api/config"
	"github.com/techcare-io/techcare-api/middleware"
	"github.com/techcare-io/techcare-api/models"
)

// CreateGigRequest represents the request body for publishing a gig
type CreateGigRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	DeviceTypes []string `json:"device_types"`
	Price       float64  `json:"price" binding:"required,gt=0"`
}

// UpdateGigRequest represents the request body for editing a gig
type UpdateGigRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	DeviceTypes []string `json:"device_types"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0"`
	Active      *bool    `json:"active"`
}

// technicianForUser loads the technician row behind the calling user,
// writing the error response itself.
func technicianForUser(c *gin.Context) (*models.Technician, bool) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}

	db := config.GetDB()
	var technician models.Technician
	if err := db.Where("user_id = ?", user.ID).First(&technician).Error; err != nil {
		respondError(c, http.StatusNotFound, "TECHNICIAN_NOT_FOUND", "Technician profile not found")
		return nil, false
	}

	return &technician, true
}

// CreateGig handles POST /api/technicians/gigs.
func CreateGig(c *gin.Context) {
	technician, ok := technicianForUser(c)
	if !ok {
		return
	}

	var req CreateGigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	gig := models.Gig{
		TechnicianID: technician.ID,
		Title:        req.Title,
		Description:  req.Description,
		DeviceTypes:  req.DeviceTypes,
		Price:        req.Price,
		Active:       true,
	}

	db := config.GetDB()
	if err := db.Create(&gig).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create gig")
		return
	}

	respondData(c, http.StatusCreated, gig)
}

// ListMyGigs handles GET /api/technicians/gigs.
func ListMyGigs(c *gin.Context) {
	technician, ok := technicianForUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var gigs []models.Gig
	if err := db.Where("technician_id = ?", technician.ID).
		Order("created_at desc").
		Find(&gigs).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load gigs")
		return
	}

	respondData(c, http.StatusOK, gigs)
}

// UpdateGig handles PUT /api/technicians/gigs/:id.
func UpdateGig(c *gin.Context) {
	technician, ok := technicianForUser(c)
	if !ok {
		return
	}

	gigID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateGigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	db := config.GetDB()
	var gig models.Gig
	if err := db.First(&gig, gigID).Error; err != nil {
		respondError(c, http.StatusNotFound, "GIG_NOT_FOUND", "Gig not found")
		return
	}
	if gig.TechnicianID != technician.ID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not own this gig")
		return
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DeviceTypes != nil {
		gig.DeviceTypes = req.DeviceTypes
		if err := db.Model(&gig).Update("device_types", gig.DeviceTypes).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update gig")
			return
		}
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := db.Model(&gig).Updates(updates).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update gig")
			return
		}
	}

	respondData(c, http.StatusOK, gig)
}

// DeleteGig handles DELETE /api/technicians/gigs/:id.
func DeleteGig(c *gin.Context) {
	technician, ok := technicianForUser(c)
	if !ok {
		return
	}

	gigID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	result := db.Where("id = ? AND technician_id = ?", gigID, technician.ID).Delete(&models.Gig{})
	if result.Error != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete gig")
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "GIG_NOT_FOUND", "Gig not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": true})
}
