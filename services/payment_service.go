package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/techcare-io/techcare-api/models"
	"github.com/techcare-io/techcare-api/utils/logger"
)

// zeroDecimalCurrencies are charged in whole units by the provider; every
// other currency is converted to minor units (cents).
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true,
	"kmf": true, "krw": true, "mga": true, "pyg": true, "rwf": true,
	"ugx": true, "vnd": true, "vuv": true, "xaf": true, "xof": true,
	"xpf": true,
}

// MinorUnits converts a decimal amount to the provider's minor units for
// the given currency.
func MinorUnits(amount float64, currency string) int64 {
	if zeroDecimalCurrencies[currency] {
		return int64(math.Round(amount))
	}
	return int64(math.Round(amount * 100))
}

// PaymentService reconciles provider charges with bookings. Confirmation is
// idempotent on the provider's intent id (unique index on payments), so the
// client confirmation and the webhook can race without double-applying.
type PaymentService struct {
	db            *gorm.DB
	provider      PaymentProvider
	notifications *NotificationService
	log           *logger.Logger
}

// NewPaymentService creates a payment service. provider may be nil when no
// secret key is configured; every operation then fails with ErrNotConfigured.
func NewPaymentService(db *gorm.DB, provider PaymentProvider, notifications *NotificationService, log *logger.Logger) *PaymentService {
	return &PaymentService{
		db:            db,
		provider:      provider,
		notifications: notifications,
		log:           log,
	}
}

// Configured reports whether a payment provider is available.
func (s *PaymentService) Configured() bool {
	return s.provider != nil && !isNilProvider(s.provider)
}

// CreateIntent starts a charge for a booking owned by the caller and
// returns the provider intent; the client secret goes back to the browser
// and card data never touches this server.
func (s *PaymentService) CreateIntent(user *models.User, bookingID uint, amount float64, currency string) (*PaymentIntent, error) {
	if !s.Configured() {
		return nil, NewError(ErrNotConfigured, "PAYMENT_NOT_CONFIGURED", "Payment provider is not configured")
	}
	if amount <= 0 {
		return nil, validationError("Amount must be greater than zero")
	}
	if currency == "" {
		currency = "usd"
	}

	var customer models.Customer
	if err := s.db.Where("user_id = ?", user.ID).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("CUSTOMER_NOT_FOUND", "Customer profile not found")
		}
		return nil, err
	}

	var booking models.Booking
	if err := s.db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("BOOKING_NOT_FOUND", "Booking not found")
		}
		return nil, err
	}
	if booking.CustomerID != customer.ID && !user.IsAdmin() {
		return nil, forbiddenError("You do not own this booking")
	}

	intent, err := s.provider.CreateIntent(MinorUnits(amount, currency), currency, map[string]string{
		"booking_id":  strconv.FormatUint(uint64(booking.ID), 10),
		"customer_id": strconv.FormatUint(uint64(customer.ID), 10),
	})
	if err != nil {
		return nil, err
	}

	return intent, nil
}

// Confirm finalizes a charge: exactly one Payment row and one booking
// update per provider intent id, no matter how many times it is called or
// whether the webhook path runs first. Returns the payment and whether this
// call was a duplicate.
func (s *PaymentService) Confirm(intentID string, bookingID uint) (*models.Payment, bool, error) {
	if !s.Configured() {
		return nil, false, NewError(ErrNotConfigured, "PAYMENT_NOT_CONFIGURED", "Payment provider is not configured")
	}
	if intentID == "" {
		return nil, false, validationError("payment_intent_id is required")
	}

	intent, err := s.provider.RetrieveIntent(intentID)
	if err != nil {
		return nil, false, err
	}
	if intent.Status != "succeeded" {
		return nil, false, invalidStateError(fmt.Sprintf("Payment has not succeeded (status %s)", intent.Status))
	}

	var payment *models.Payment
	alreadyConfirmed := false

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Payment
		err := tx.Where("stripe_payment_intent_id = ?", intentID).First(&existing).Error
		if err == nil {
			payment = &existing
			alreadyConfirmed = true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var booking models.Booking
		if err := tx.Preload("Customer").First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("BOOKING_NOT_FOUND", "Booking not found")
			}
			return err
		}

		amount := float64(intent.Amount)
		if !zeroDecimalCurrencies[intent.Currency] {
			amount /= 100
		}

		p := models.Payment{
			BookingID:             booking.ID,
			CustomerID:            booking.CustomerID,
			Amount:                amount,
			Currency:              intent.Currency,
			StripePaymentIntentID: intentID,
			Status:                models.PaymentRecordSucceeded,
		}
		if err := tx.Create(&p).Error; err != nil {
			// Lost the race against the webhook path; the row exists now.
			if isUniqueViolation(err) {
				if err := tx.Where("stripe_payment_intent_id = ?", intentID).First(&existing).Error; err != nil {
					return err
				}
				payment = &existing
				alreadyConfirmed = true
				return nil
			}
			return err
		}

		updates := map[string]interface{}{"payment_status": models.PaymentStatusPaid}
		if models.CanTransition(booking.Status, models.BookingStatusConfirmed) {
			updates["status"] = models.BookingStatusConfirmed
		}
		if err := tx.Model(&booking).Updates(updates).Error; err != nil {
			return err
		}

		s.notifications.Notify(tx, booking.Customer.UserID,
			models.NotificationPaymentReceived,
			"Payment confirmed",
			fmt.Sprintf("Your payment of %.2f %s was received", amount, intent.Currency),
			map[string]interface{}{"booking_id": booking.ID, "payment_intent_id": intentID})

		payment = &p
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return payment, alreadyConfirmed, nil
}

// Refund refunds a confirmed payment, fully or partially, for the owning
// customer or an admin.
func (s *PaymentService) Refund(user *models.User, intentID string, amount *float64, reason string) (*models.Payment, error) {
	if !s.Configured() {
		return nil, NewError(ErrNotConfigured, "PAYMENT_NOT_CONFIGURED", "Payment provider is not configured")
	}
	if intentID == "" {
		return nil, validationError("payment_intent_id is required")
	}
	if amount != nil && *amount <= 0 {
		return nil, validationError("Refund amount must be greater than zero")
	}

	var payment models.Payment
	if err := s.db.Where("stripe_payment_intent_id = ?", intentID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("PAYMENT_NOT_FOUND", "Payment not found")
		}
		return nil, err
	}

	var booking models.Booking
	if err := s.db.Preload("Customer").First(&booking, payment.BookingID).Error; err != nil {
		return nil, err
	}

	if !user.IsAdmin() {
		var customer models.Customer
		if err := s.db.Where("user_id = ?", user.ID).First(&customer).Error; err != nil {
			return nil, forbiddenError("You do not own this payment")
		}
		if booking.CustomerID != customer.ID {
			return nil, forbiddenError("You do not own this payment")
		}
	}

	if payment.Status == models.PaymentRecordRefunded {
		return nil, invalidStateError("Payment is already fully refunded")
	}

	partial := amount != nil && *amount < payment.Amount
	var minor *int64
	if amount != nil {
		m := MinorUnits(*amount, payment.Currency)
		minor = &m
	}

	result, err := s.provider.CreateRefund(intentID, minor, reason)
	if err != nil {
		return nil, err
	}

	paymentStatus := models.PaymentRecordRefunded
	bookingStatus := models.PaymentStatusRefunded
	if partial {
		paymentStatus = models.PaymentRecordPartiallyRefunded
		bookingStatus = models.PaymentStatusPartiallyRefunded
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&payment).Updates(map[string]interface{}{
			"status":      paymentStatus,
			"refund_id":   result.ID,
			"refunded_at": &now,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&booking).Update("payment_status", bookingStatus).Error; err != nil {
			return err
		}

		s.notifications.Notify(tx, booking.Customer.UserID,
			models.NotificationPaymentRefunded,
			"Payment refunded",
			fmt.Sprintf("A refund was issued for your %s repair", booking.DeviceType),
			map[string]interface{}{"booking_id": booking.ID, "refund_id": result.ID})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// isNilProvider guards against a typed-nil *StripeProvider stored in the
// interface when no secret key was configured.
func isNilProvider(p PaymentProvider) bool {
	sp, ok := p.(*StripeProvider)
	return ok && sp == nil
}
