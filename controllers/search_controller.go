package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/techcare-io/techcare-api/services"
)

// SearchTechnicians handles GET /api/technicians/search - public filtered,
// paginated technician directory.
func SearchTechnicians(c *gin.Context) {
	params := services.SearchParams{
		Query:          c.Query("q"),
		Expertise:      c.Query("expertise"),
		Brand:          c.Query("brand"),
		Specialization: c.Query("specialization"),
		SortBy:         c.Query("sort"),
	}

	if raw := c.Query("min_rating"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "min_rating must be a number")
			return
		}
		params.MinRating = &value
	}
	if raw := c.Query("max_price"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "max_price must be a number")
			return
		}
		params.MaxPrice = &value
	}
	if raw := c.Query("limit"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			params.Limit = value
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			params.Offset = value
		}
	}

	technicians, err := searchService.Search(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, technicians)
}

// NearbyTechnicians handles GET /api/technicians/nearby - public
// fixed-radius search around a point. Distances are planar approximations,
// good enough for a city, not for geodesy.
func NearbyTechnicians(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "lat is required and must be a number")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "lng is required and must be a number")
		return
	}

	radius := 0.0
	if raw := c.Query("radius_km"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "radius_km must be a number")
			return
		}
	}

	results, err := searchService.Nearby(lat, lng, radius)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, results)
}
