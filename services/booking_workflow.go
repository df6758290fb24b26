package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/techcare-io/techcare-api/models"
	"github.com/techcare-io/techcare-api/utils/logger"
)

// BookingWorkflow is the single mutation entry point for booking and bid
// state. Every operation runs in one database transaction; notifications
// ride the same transaction through the outbox.
type BookingWorkflow struct {
	db            *gorm.DB
	notifications *NotificationService
	loyaltyPer    float64 // booking price per loyalty point on completion
	log           *logger.Logger
}

// NewBookingWorkflow creates the workflow engine.
func NewBookingWorkflow(db *gorm.DB, notifications *NotificationService, loyaltyPer float64, log *logger.Logger) *BookingWorkflow {
	if loyaltyPer <= 0 {
		loyaltyPer = 100
	}
	return &BookingWorkflow{
		db:            db,
		notifications: notifications,
		loyaltyPer:    loyaltyPer,
		log:           log,
	}
}

// CreateBookingInput carries the customer-supplied booking fields.
type CreateBookingInput struct {
	DeviceType       string
	DeviceBrand      string
	DeviceModel      string
	IssueDescription string
	Address          string
	EstimatedCost    *float64
	ScheduledDate    *time.Time
	TechnicianID     *uint
}

// CreateBooking creates a booking for the calling customer. Without a
// technician it opens for bidding as pending; with one it is a direct
// assignment and starts confirmed.
func (w *BookingWorkflow) CreateBooking(user *models.User, input CreateBookingInput) (*models.Booking, error) {
	var booking *models.Booking

	err := w.db.Transaction(func(tx *gorm.DB) error {
		customer, err := w.customerFor(tx, user)
		if err != nil {
			return err
		}

		b := models.Booking{
			CustomerID:       customer.ID,
			DeviceType:       input.DeviceType,
			DeviceBrand:      input.DeviceBrand,
			DeviceModel:      input.DeviceModel,
			IssueDescription: input.IssueDescription,
			Address:          input.Address,
			EstimatedCost:    input.EstimatedCost,
			ScheduledDate:    input.ScheduledDate,
			Status:           models.BookingStatusPending,
			PaymentStatus:    models.PaymentStatusUnpaid,
		}

		var technician *models.Technician
		if input.TechnicianID != nil {
			technician = &models.Technician{}
			if err := tx.First(technician, *input.TechnicianID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFoundError("TECHNICIAN_NOT_FOUND", "Technician not found")
				}
				return err
			}
			b.TechnicianID = &technician.ID
			b.Status = models.BookingStatusConfirmed
		}

		if err := tx.Create(&b).Error; err != nil {
			return err
		}

		if technician != nil {
			if err := tx.Model(technician).Updates(map[string]interface{}{
				"active_jobs": gorm.Expr("active_jobs + 1"),
				"total_jobs":  gorm.Expr("total_jobs + 1"),
			}).Error; err != nil {
				return err
			}

			w.notifications.Notify(tx, technician.UserID,
				models.NotificationBookingAssigned,
				"New booking assigned",
				fmt.Sprintf("You have been booked for a %s repair", b.DeviceType),
				map[string]interface{}{"booking_id": b.ID})
		}

		w.notifications.Notify(tx, user.ID,
			models.NotificationBookingCreated,
			"Booking created",
			fmt.Sprintf("Your %s repair request was created", b.DeviceType),
			map[string]interface{}{"booking_id": b.ID, "status": b.Status})

		booking = &b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// SubmitBid records a technician's offer on an open booking. Duplicate
// submissions are rejected by the (booking_id, technician_id) unique index,
// which stays authoritative under concurrent submissions.
func (w *BookingWorkflow) SubmitBid(user *models.User, bookingID uint, amount float64, message string) (*models.Bid, error) {
	if amount <= 0 {
		return nil, validationError("Bid amount must be greater than zero")
	}

	var bid *models.Bid

	err := w.db.Transaction(func(tx *gorm.DB) error {
		technician, err := w.technicianFor(tx, user)
		if err != nil {
			return err
		}

		var booking models.Booking
		if err := tx.Preload("Customer").First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("BOOKING_NOT_FOUND", "Booking not found")
			}
			return err
		}

		if booking.TechnicianID != nil || booking.Status != models.BookingStatusPending {
			return invalidStateError("Booking is not open for bidding")
		}

		b := models.Bid{
			BookingID:    booking.ID,
			TechnicianID: technician.ID,
			Amount:       amount,
			Message:      message,
			Status:       models.BidStatusPending,
		}
		if err := tx.Create(&b).Error; err != nil {
			if isUniqueViolation(err) {
				return conflictError("DUPLICATE_BID", "You have already bid on this booking")
			}
			return err
		}

		w.notifications.Notify(tx, booking.Customer.UserID,
			models.NotificationBidReceived,
			"New bid received",
			fmt.Sprintf("%s offered %.2f for your %s repair", technician.Name, amount, booking.DeviceType),
			map[string]interface{}{"booking_id": booking.ID, "bid_id": b.ID, "amount": amount})

		bid = &b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return bid, nil
}

// AcceptBid assigns the bidding technician to the booking and rejects every
// sibling bid, atomically. Re-accepting the already-accepted bid is a no-op
// success so retries stay safe and do not duplicate notifications.
func (w *BookingWorkflow) AcceptBid(user *models.User, bookingID, bidID uint) (*models.Booking, error) {
	var booking *models.Booking

	err := w.db.Transaction(func(tx *gorm.DB) error {
		customer, err := w.customerFor(tx, user)
		if err != nil {
			return err
		}

		var b models.Booking
		if err := tx.First(&b, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("BOOKING_NOT_FOUND", "Booking not found")
			}
			return err
		}

		if b.CustomerID != customer.ID && !user.IsAdmin() {
			return forbiddenError("You do not own this booking")
		}

		var bid models.Bid
		if err := tx.Preload("Technician").First(&bid, bidID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("BID_NOT_FOUND", "Bid not found")
			}
			return err
		}
		if bid.BookingID != b.ID {
			return notFoundError("BID_NOT_FOUND", "Bid does not belong to this booking")
		}

		// Retry of an accept that already went through.
		if b.Status == models.BookingStatusBidAccepted &&
			bid.Status == models.BidStatusAccepted &&
			b.TechnicianID != nil && *b.TechnicianID == bid.TechnicianID {
			booking = &b
			return nil
		}

		if b.TechnicianID != nil {
			return invalidStateError("Booking already has an assigned technician")
		}
		if !models.CanTransition(b.Status, models.BookingStatusBidAccepted) {
			return invalidStateError(fmt.Sprintf("Cannot accept a bid while booking is %s", b.Status))
		}

		if err := tx.Model(&models.Bid{}).
			Where("booking_id = ? AND id <> ?", b.ID, bid.ID).
			Update("status", models.BidStatusRejected).Error; err != nil {
			return err
		}
		if err := tx.Model(&bid).Update("status", models.BidStatusAccepted).Error; err != nil {
			return err
		}

		if err := tx.Model(&b).Updates(map[string]interface{}{
			"technician_id": bid.TechnicianID,
			"price":         bid.Amount,
			"status":        models.BookingStatusBidAccepted,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Technician{}).
			Where("id = ?", bid.TechnicianID).
			Updates(map[string]interface{}{
				"active_jobs": gorm.Expr("active_jobs + 1"),
				"total_jobs":  gorm.Expr("total_jobs + 1"),
			}).Error; err != nil {
			return err
		}

		w.notifications.Notify(tx, bid.Technician.UserID,
			models.NotificationBidAccepted,
			"Bid accepted",
			fmt.Sprintf("Your bid of %.2f was accepted", bid.Amount),
			map[string]interface{}{"booking_id": b.ID, "bid_id": bid.ID})

		booking = &b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// AcceptBooking is the direct-assignment path: a technician claims an open
// booking without bidding.
func (w *BookingWorkflow) AcceptBooking(user *models.User, bookingID uint) (*models.Booking, error) {
	var booking *models.Booking

	err := w.db.Transaction(func(tx *gorm.DB) error {
		technician, err := w.technicianFor(tx, user)
		if err != nil {
			return err
		}

		var b models.Booking
		if err := tx.Preload("Customer").First(&b, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("BOOKING_NOT_FOUND", "Booking not found")
			}
			return err
		}

		if b.TechnicianID != nil {
			return invalidStateError("Booking already has an assigned technician")
		}
		if !models.CanTransition(b.Status, models.BookingStatusConfirmed) {
			return invalidStateError(fmt.Sprintf("Cannot accept a booking while it is %s", b.Status))
		}

		if err := tx.Model(&b).Updates(map[string]interface{}{
			"technician_id": technician.ID,
			"status":        models.BookingStatusConfirmed,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(technician).Updates(map[string]interface{}{
			"active_jobs": gorm.Expr("active_jobs + 1"),
			"total_jobs":  gorm.Expr("total_jobs + 1"),
		}).Error; err != nil {
			return err
		}

		w.notifications.Notify(tx, b.Customer.UserID,
			models.NotificationBookingStatus,
			"Technician assigned",
			fmt.Sprintf("%s accepted your %s repair", technician.Name, b.DeviceType),
			map[string]interface{}{"booking_id": b.ID, "technician_id": technician.ID})

		booking = &b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// UpdateStatus advances a booking through the technician-driven part of the
// lifecycle (in_progress, completed), checked against the transition table.
// Completion settles the technician's counters and earnings and awards the
// customer loyalty points, all in the same transaction.
func (w *BookingWorkflow) UpdateStatus(user *models.User, bookingID uint, next models.BookingStatus) (*models.Booking, error) {
	if next != models.BookingStatusInProgress && next != models.BookingStatusCompleted {
		return nil, validationError("Status must be in_progress or completed")
	}

	var booking *models.Booking

	err := w.db.Transaction(func(tx *gorm.DB) error {
		technician, err := w.technicianFor(tx, user)
		if err != nil {
			return err
		}

		var b models.Booking
		if err := tx.Preload("Customer").First(&b, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("BOOKING_NOT_FOUND", "Booking not found")
			}
			return err
		}

		if b.TechnicianID == nil || *b.TechnicianID != technician.ID {
			return forbiddenError("You are not assigned to this booking")
		}
		if !models.CanTransition(b.Status, next) {
			return invalidStateError(fmt.Sprintf("Cannot move booking from %s to %s", b.Status, next))
		}

		updates := map[string]interface{}{"status": next}
		if next == models.BookingStatusCompleted {
			now := time.Now()
			updates["completed_date"] = &now
		}
		if err := tx.Model(&b).Updates(updates).Error; err != nil {
			return err
		}

		if next == models.BookingStatusCompleted {
			price := 0.0
			if b.Price != nil {
				price = *b.Price
			}

			if err := tx.Model(technician).Updates(map[string]interface{}{
				"active_jobs":       gorm.Expr("active_jobs - 1"),
				"completed_jobs":    gorm.Expr("completed_jobs + 1"),
				"total_earnings":    gorm.Expr("total_earnings + ?", price),
				"available_balance": gorm.Expr("available_balance + ?", price),
			}).Error; err != nil {
				return err
			}

			if points := int(price / w.loyaltyPer); points > 0 {
				if err := tx.Model(&models.Customer{}).
					Where("id = ?", b.CustomerID).
					Update("loyalty_points", gorm.Expr("loyalty_points + ?", points)).Error; err != nil {
					return err
				}
			}
		}

		w.notifications.Notify(tx, b.Customer.UserID,
			models.NotificationBookingStatus,
			"Booking updated",
			fmt.Sprintf("Your %s repair is now %s", b.DeviceType, next),
			map[string]interface{}{"booking_id": b.ID, "status": next})

		booking = &b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// CancelBooking cancels a customer's booking. Terminal states reject the
// transition.
func (w *BookingWorkflow) CancelBooking(user *models.User, bookingID uint) (*models.Booking, error) {
	var booking *models.Booking

	err := w.db.Transaction(func(tx *gorm.DB) error {
		customer, err := w.customerFor(tx, user)
		if err != nil {
			return err
		}

		var b models.Booking
		if err := tx.Preload("Technician").First(&b, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("BOOKING_NOT_FOUND", "Booking not found")
			}
			return err
		}

		if b.CustomerID != customer.ID && !user.IsAdmin() {
			return forbiddenError("You do not own this booking")
		}
		if !models.CanTransition(b.Status, models.BookingStatusCancelled) {
			return invalidStateError(fmt.Sprintf("Cannot cancel a booking that is %s", b.Status))
		}

		if err := tx.Model(&b).Update("status", models.BookingStatusCancelled).Error; err != nil {
			return err
		}

		if b.Technician != nil {
			if err := tx.Model(b.Technician).
				Update("active_jobs", gorm.Expr("active_jobs - 1")).Error; err != nil {
				return err
			}

			w.notifications.Notify(tx, b.Technician.UserID,
				models.NotificationBookingCancelled,
				"Booking cancelled",
				fmt.Sprintf("The %s repair booking was cancelled by the customer", b.DeviceType),
				map[string]interface{}{"booking_id": b.ID})
		}

		booking = &b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// GetBookingForActor fetches a booking with its bids, enforcing ownership
// and bid privacy: the owning customer and admins see every bid sorted by
// amount ascending; a technician sees only their own bid.
func (w *BookingWorkflow) GetBookingForActor(user *models.User, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	err := w.db.
		Preload("Customer").
		Preload("Technician").
		Preload("Bids", func(db *gorm.DB) *gorm.DB {
			return db.Order("amount asc")
		}).
		Preload("Bids.Technician").
		First(&booking, bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("BOOKING_NOT_FOUND", "Booking not found")
		}
		return nil, err
	}

	if user.IsAdmin() {
		return &booking, nil
	}

	if user.IsCustomer() {
		var customer models.Customer
		if err := w.db.Where("user_id = ?", user.ID).First(&customer).Error; err != nil {
			return nil, forbiddenError("You do not have access to this booking")
		}
		if booking.CustomerID != customer.ID {
			return nil, forbiddenError("You do not have access to this booking")
		}
		return &booking, nil
	}

	if user.IsTechnician() {
		technician, err := w.technicianFor(w.db, user)
		if err != nil {
			return nil, err
		}

		assigned := booking.TechnicianID != nil && *booking.TechnicianID == technician.ID
		open := booking.TechnicianID == nil && booking.Status == models.BookingStatusPending

		own := booking.Bids[:0]
		for _, bid := range booking.Bids {
			if bid.TechnicianID == technician.ID {
				own = append(own, bid)
			}
		}
		booking.Bids = own

		if assigned || open || len(booking.Bids) > 0 {
			return &booking, nil
		}
		return nil, forbiddenError("You do not have access to this booking")
	}

	return nil, forbiddenError("You do not have access to this booking")
}

// ListCustomerBookings returns the calling customer's bookings, newest first.
func (w *BookingWorkflow) ListCustomerBookings(user *models.User) ([]models.Booking, error) {
	customer, err := w.customerFor(w.db, user)
	if err != nil {
		return nil, err
	}

	var bookings []models.Booking
	err = w.db.Where("customer_id = ?", customer.ID).
		Preload("Technician").
		Order("created_at desc").
		Find(&bookings).Error
	return bookings, err
}

// ListTechnicianJobs returns bookings assigned to the calling technician.
func (w *BookingWorkflow) ListTechnicianJobs(user *models.User) ([]models.Booking, error) {
	technician, err := w.technicianFor(w.db, user)
	if err != nil {
		return nil, err
	}

	var bookings []models.Booking
	err = w.db.Where("technician_id = ?", technician.ID).
		Preload("Customer").
		Order("created_at desc").
		Find(&bookings).Error
	return bookings, err
}

// ListOpenBookings returns unassigned pending bookings for technicians to
// browse and bid on.
func (w *BookingWorkflow) ListOpenBookings() ([]models.Booking, error) {
	var bookings []models.Booking
	err := w.db.
		Where("technician_id IS NULL AND status = ?", models.BookingStatusPending).
		Order("created_at desc").
		Find(&bookings).Error
	return bookings, err
}

// ListTechnicianBids returns the calling technician's bids, newest first.
func (w *BookingWorkflow) ListTechnicianBids(user *models.User) ([]models.Bid, error) {
	technician, err := w.technicianFor(w.db, user)
	if err != nil {
		return nil, err
	}

	var bids []models.Bid
	err = w.db.Where("technician_id = ?", technician.ID).
		Preload("Booking").
		Order("created_at desc").
		Find(&bids).Error
	return bids, err
}

func (w *BookingWorkflow) customerFor(tx *gorm.DB, user *models.User) (*models.Customer, error) {
	var customer models.Customer
	if err := tx.Where("user_id = ?", user.ID).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("CUSTOMER_NOT_FOUND", "Customer profile not found")
		}
		return nil, err
	}
	return &customer, nil
}

func (w *BookingWorkflow) technicianFor(tx *gorm.DB, user *models.User) (*models.Technician, error) {
	var technician models.Technician
	if err := tx.Where("user_id = ?", user.ID).First(&technician).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("TECHNICIAN_NOT_FOUND", "Technician profile not found")
		}
		return nil, err
	}
	return &technician, nil
}

// isUniqueViolation detects a unique-constraint error from both PostgreSQL
// and SQLite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique")
}
