package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/techcare-io/techcare-api/models"
)

// ReviewService owns review mutations. Every write recomputes the
// technician's rating aggregate in the same transaction.
type ReviewService struct {
	db      *gorm.DB
	ratings *RatingService
}

// NewReviewService creates a review service.
func NewReviewService(db *gorm.DB, ratings *RatingService) *ReviewService {
	return &ReviewService{db: db, ratings: ratings}
}

// Create records a review for a completed booking owned by the caller.
// Eligibility is enforced here for every path: booking completed, caller
// owns it, technician assigned, not yet reviewed.
func (s *ReviewService) Create(user *models.User, bookingID uint, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, validationError("Rating must be between 1 and 5")
	}

	var review *models.Review

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.Where("user_id = ?", user.ID).First(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("CUSTOMER_NOT_FOUND", "Customer profile not found")
			}
			return err
		}

		var booking models.Booking
		if err := tx.First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("BOOKING_NOT_FOUND", "Booking not found")
			}
			return err
		}

		if booking.CustomerID != customer.ID {
			return forbiddenError("You do not own this booking")
		}
		if booking.Status != models.BookingStatusCompleted {
			return invalidStateError("Only completed bookings can be reviewed")
		}
		if booking.TechnicianID == nil {
			return invalidStateError("Booking has no technician to review")
		}

		r := models.Review{
			BookingID:    booking.ID,
			CustomerID:   customer.ID,
			TechnicianID: *booking.TechnicianID,
			Rating:       rating,
			Comment:      comment,
			Status:       models.ReviewStatusPublished,
		}
		if err := tx.Create(&r).Error; err != nil {
			if isUniqueViolation(err) {
				return conflictError("ALREADY_REVIEWED", "This booking has already been reviewed")
			}
			return err
		}

		if err := s.ratings.Recompute(tx, r.TechnicianID); err != nil {
			return err
		}

		review = &r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return review, nil
}

// Update edits the caller's own review and recomputes the aggregate.
func (s *ReviewService) Update(user *models.User, reviewID uint, rating *int, comment *string) (*models.Review, error) {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, validationError("Rating must be between 1 and 5")
	}

	var review *models.Review

	err := s.db.Transaction(func(tx *gorm.DB) error {
		r, err := s.ownReview(tx, user, reviewID)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if rating != nil {
			updates["rating"] = *rating
		}
		if comment != nil {
			updates["comment"] = *comment
		}
		if len(updates) == 0 {
			review = r
			return nil
		}

		if err := tx.Model(r).Updates(updates).Error; err != nil {
			return err
		}

		if rating != nil {
			if err := s.ratings.Recompute(tx, r.TechnicianID); err != nil {
				return err
			}
		}

		review = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return review, nil
}

// Delete removes the caller's own review (or any review, for admins) and
// recomputes the aggregate.
func (s *ReviewService) Delete(user *models.User, reviewID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var r models.Review
		if err := tx.First(&r, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("REVIEW_NOT_FOUND", "Review not found")
			}
			return err
		}

		if !user.IsAdmin() {
			var customer models.Customer
			if err := tx.Where("user_id = ?", user.ID).First(&customer).Error; err != nil {
				return forbiddenError("You do not own this review")
			}
			if r.CustomerID != customer.ID {
				return forbiddenError("You do not own this review")
			}
		}

		if err := tx.Delete(&r).Error; err != nil {
			return err
		}

		return s.ratings.Recompute(tx, r.TechnicianID)
	})
}

// SetStatus publishes or hides a review (admin moderation) and recomputes
// the aggregate, since only published reviews count.
func (s *ReviewService) SetStatus(reviewID uint, status string) (*models.Review, error) {
	if status != models.ReviewStatusPublished && status != models.ReviewStatusHidden {
		return nil, validationError(fmt.Sprintf("Unknown review status %q", status))
	}

	var review *models.Review

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var r models.Review
		if err := tx.First(&r, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("REVIEW_NOT_FOUND", "Review not found")
			}
			return err
		}

		if err := tx.Model(&r).Update("status", status).Error; err != nil {
			return err
		}

		if err := s.ratings.Recompute(tx, r.TechnicianID); err != nil {
			return err
		}

		review = &r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return review, nil
}

// ListForTechnician returns a technician's published reviews, newest first.
func (s *ReviewService) ListForTechnician(technicianID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.Where("technician_id = ? AND status = ?", technicianID, models.ReviewStatusPublished).
		Preload("Customer").
		Order("created_at desc").
		Find(&reviews).Error
	return reviews, err
}

func (s *ReviewService) ownReview(tx *gorm.DB, user *models.User, reviewID uint) (*models.Review, error) {
	var r models.Review
	if err := tx.First(&r, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("REVIEW_NOT_FOUND", "Review not found")
		}
		return nil, err
	}

	var customer models.Customer
	if err := tx.Where("user_id = ?", user.ID).First(&customer).Error; err != nil {
		return nil, forbiddenError("You do not own this review")
	}
	if r.CustomerID != customer.ID {
		return nil, forbiddenError("You do not own this review")
	}

	return &r, nil
}
