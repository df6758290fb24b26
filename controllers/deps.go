package controllers

import (
	"gorm.io/gorm"

	"github.com/techcare-io/techcare-api/services"
	"github.com/techcare-io/techcare-api/utils/logger"
)

// Service instances used by the handlers. Init wires them at startup;
// tests call Init again with an in-memory database and a mock provider.
var (
	workflowService *services.BookingWorkflow
	paymentService  *services.PaymentService
	reviewService   *services.ReviewService
	ratingService   *services.RatingService
	searchService   *services.SearchService
)

// Init builds the service layer on top of the given database.
func Init(db *gorm.DB, provider services.PaymentProvider, loyaltyPer float64, log *logger.Logger) {
	notifications := services.NewNotificationService(log)
	workflowService = services.NewBookingWorkflow(db, notifications, loyaltyPer, log)
	ratingService = services.NewRatingService()
	reviewService = services.NewReviewService(db, ratingService)
	paymentService = services.NewPaymentService(db, provider, notifications, log)
	searchService = services.NewSearchService(db)
}
