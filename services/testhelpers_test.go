package services

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/techcare-io/techcare-api/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// seedCustomerBooking creates a user, its customer row and a pending booking.
func seedCustomerBooking(t *testing.T, db *gorm.DB) (*models.User, *models.Customer, *models.Booking) {
	t.Helper()

	user := models.User{
		Auth0ID: "auth0|svc-customer",
		Name:    "Service Customer",
		Email:   "svc-customer@example.com",
		Role:    models.RoleCustomer,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	customer := models.Customer{UserID: user.ID, Name: user.Name, Email: user.Email}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("Failed to create customer: %v", err)
	}

	booking := models.Booking{
		CustomerID:       customer.ID,
		DeviceType:       "phone",
		IssueDescription: "Screen does not turn on",
		Status:           models.BookingStatusPending,
		PaymentStatus:    models.PaymentStatusUnpaid,
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}

	return &user, &customer, &booking
}
