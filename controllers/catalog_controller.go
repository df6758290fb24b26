package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techcare-io/techcare-api/config"
	"github.com/techcare-io/techcare-api/models"
)

// ListServices handles GET /api/services - public repair-category catalog.
func ListServices(c *gin.Context) {
	db := config.GetDB()

	query := db.Where("active = ?", true)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var catalog []models.Service
	if err := query.Order("name asc").Find(&catalog).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load services")
		return
	}

	respondData(c, http.StatusOK, catalog)
}

// ListGigs handles GET /api/gigs - public list of active fixed-price offers.
func ListGigs(c *gin.Context) {
	db := config.GetDB()

	var gigs []models.Gig
	if err := db.Where("active = ?", true).
		Preload("Technician").
		Order("created_at desc").
		Find(&gigs).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load gigs")
		return
	}

	respondData(c, http.StatusOK, gigs)
}
