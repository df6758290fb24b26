package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/techcare-io/techcare-api/models"
)

// RatingService maintains the technician rating aggregate by full recompute
// over published reviews. It is the only writer of Technician.Rating and
// Technician.ReviewCount.
type RatingService struct{}

// NewRatingService creates a rating service.
func NewRatingService() *RatingService {
	return &RatingService{}
}

// Recompute recalculates rating and review_count for a technician from the
// published reviews on record and writes both in one update. Call it inside
// the same transaction as the review change.
func (s *RatingService) Recompute(tx *gorm.DB, technicianID uint) error {
	type aggregate struct {
		Avg   float64
		Count int
	}

	var agg aggregate
	err := tx.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) as avg, COUNT(*) as count").
		Where("technician_id = ? AND status = ?", technicianID, models.ReviewStatusPublished).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	return tx.Model(&models.Technician{}).
		Where("id = ?", technicianID).
		Updates(map[string]interface{}{
			"rating":       agg.Avg,
			"review_count": agg.Count,
		}).Error
}

// RatingStats is the public rating distribution for a technician.
type RatingStats struct {
	TechnicianID uint        `json:"technician_id"`
	Average      float64     `json:"average"`
	Count        int         `json:"count"`
	Distribution map[int]int `json:"distribution"` // star → count
}

// Stats derives the 1..5 star histogram from published reviews. The
// histogram is never stored, so it cannot drift from the review rows.
func (s *RatingService) Stats(db *gorm.DB, technicianID uint) (*RatingStats, error) {
	var technician models.Technician
	if err := db.First(&technician, technicianID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("TECHNICIAN_NOT_FOUND", "Technician not found")
		}
		return nil, err
	}

	type bucket struct {
		Rating int
		Count  int
	}
	var buckets []bucket
	err := db.Model(&models.Review{}).
		Select("rating, COUNT(*) as count").
		Where("technician_id = ? AND status = ?", technicianID, models.ReviewStatusPublished).
		Group("rating").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}

	stats := &RatingStats{
		TechnicianID: technicianID,
		Average:      technician.Rating,
		Count:        technician.ReviewCount,
		Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	for _, b := range buckets {
		if b.Rating >= 1 && b.Rating <= 5 {
			stats.Distribution[b.Rating] = b.Count
		}
	}

	return stats, nil
}
