package services

import (
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/techcare-io/techcare-api/models"
)

// SearchService runs the technician directory queries.
type SearchService struct {
	db *gorm.DB
}

// NewSearchService creates a search service.
func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

// SearchParams filters and orders a technician search.
type SearchParams struct {
	Query          string
	Expertise      string
	Brand          string
	Specialization string
	MinRating      *float64
	MaxPrice       *float64
	SortBy         string // rating | price | recent
	Limit          int
	Offset         int
}

// Search returns verified technicians matching the filters. Text and
// numeric filters run in SQL; expertise/brand containment is applied over
// the candidates because those live in JSON columns.
func (s *SearchService) Search(params SearchParams) ([]models.Technician, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}

	query := s.db.Model(&models.Technician{}).Where("is_verified = ?", true)

	if params.Query != "" {
		pattern := "%" + strings.ToLower(params.Query) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if params.Specialization != "" {
		query = query.Where("LOWER(specialization) = ?", strings.ToLower(params.Specialization))
	}
	if params.MinRating != nil {
		query = query.Where("rating >= ?", *params.MinRating)
	}
	if params.MaxPrice != nil {
		query = query.Where("hourly_rate <= ?", *params.MaxPrice)
	}

	switch params.SortBy {
	case "price":
		query = query.Order("hourly_rate asc")
	case "recent":
		query = query.Order("created_at desc")
	default:
		query = query.Order("rating desc")
	}

	var candidates []models.Technician
	if err := query.Offset(params.Offset).Limit(params.Limit).Find(&candidates).Error; err != nil {
		return nil, err
	}

	if params.Expertise == "" && params.Brand == "" {
		return candidates, nil
	}

	matched := candidates[:0]
	for _, t := range candidates {
		if params.Expertise != "" && !containsFold(t.Expertise, params.Expertise) {
			continue
		}
		if params.Brand != "" && !containsFold(t.Brands, params.Brand) {
			continue
		}
		matched = append(matched, t)
	}
	return matched, nil
}

// NearbyResult is a technician with the approximate distance attached.
type NearbyResult struct {
	models.Technician
	DistanceKM float64 `json:"distance_km"`
}

// Nearby returns verified technicians within radiusKM of the given point,
// sorted by distance. Distance uses an equirectangular approximation
// (planar degrees scaled by ~111 km), not a geodesic; it is only reasonable
// over the short distances a repair visit covers.
func (s *SearchService) Nearby(lat, lng, radiusKM float64) ([]NearbyResult, error) {
	if radiusKM <= 0 {
		radiusKM = 25
	}

	var technicians []models.Technician
	err := s.db.
		Where("is_verified = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", true).
		Find(&technicians).Error
	if err != nil {
		return nil, err
	}

	results := make([]NearbyResult, 0, len(technicians))
	for _, t := range technicians {
		d := approxDistanceKM(lat, lng, *t.Latitude, *t.Longitude)
		if d <= radiusKM {
			results = append(results, NearbyResult{Technician: t, DistanceKM: d})
		}
	}

	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].DistanceKM < results[j-1].DistanceKM; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}

	return results, nil
}

// approxDistanceKM is the equirectangular approximation: latitude degrees
// scaled to km, longitude degrees shrunk by cos(latitude) first.
func approxDistanceKM(lat1, lng1, lat2, lng2 float64) float64 {
	const kmPerDegree = 111.32
	dlat := lat2 - lat1
	dlng := (lng2 - lng1) * math.Cos(lat1*math.Pi/180)
	return math.Sqrt(dlat*dlat+dlng*dlng) * kmPerDegree
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
