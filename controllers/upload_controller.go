package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techcare-io/techcare-api/config"
	"github.com/techcare-io/techcare-api/middleware"
	"github.com/techcare-io/techcare-api/models"
	"github.com/techcare-io/techcare-api/services"
	"github.com/techcare-io/techcare-api/utils"
)

// UploadBookingPhoto handles POST /api/bookings/:id/photo - attaches a
// device photo to the customer's own booking. Re-uploading replaces the
// previous photo.
func UploadBookingPhoto(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "No photo file provided")
		return
	}

	contentType, err := utils.ValidatePhotoFile(fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return
		}
		respondError(c, http.StatusBadRequest, "INVALID_FILE", "Invalid photo file")
		return
	}

	db := config.GetDB()

	var customer models.Customer
	if err := db.Where("user_id = ?", user.ID).First(&customer).Error; err != nil {
		respondError(c, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer profile not found")
		return
	}

	var booking models.Booking
	if err := db.First(&booking, bookingID).Error; err != nil {
		respondError(c, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
		return
	}

	if booking.CustomerID != customer.ID && !user.IsAdmin() {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only upload photos to your own bookings")
		return
	}

	s3Service := services.GetS3Service()
	if s3Service == nil {
		respondError(c, http.StatusServiceUnavailable, "STORAGE_NOT_CONFIGURED", "Photo storage is not configured")
		return
	}

	s3Key, err := s3Service.UploadFile(fileHeader, contentType)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to upload photo")
		return
	}

	oldKey := booking.PhotoS3Key
	if err := db.Model(&booking).Update("photo_s3_key", s3Key).Error; err != nil {
		// Orphaned object cleanup, best effort.
		_ = s3Service.DeleteFile(s3Key)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save photo reference")
		return
	}

	if oldKey != nil && *oldKey != "" {
		_ = s3Service.DeleteFile(*oldKey)
	}

	booking.PhotoS3Key = &s3Key
	if url, urlErr := s3Service.GetPresignedURL(s3Key); urlErr == nil && url != "" {
		booking.PhotoURL = &url
	}

	respondData(c, http.StatusOK, booking)
}
