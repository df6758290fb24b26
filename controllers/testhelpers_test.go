package controllers

import (
	"fmt"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/techcare-io/techcare-api/config"
	"github.com/techcare-io/techcare-api/middleware"
	"github.com/techcare-io/techcare-api/models"
	"github.com/techcare-io/techcare-api/services"
	"github.com/techcare-io/techcare-api/utils/logger"
)

// setupTestDB creates an in-memory database with the full schema, points the
// global config at it and rebuilds the service layer on top of a mock
// payment provider. Returns the database and the provider for test control.
func setupTestDB(t *testing.T) (*gorm.DB, *services.MockPaymentProvider) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	config.SetConfig(&config.Config{
		GoEnv:            "test",
		LoyaltyPointsPer: 100,
	})

	provider := services.NewMockPaymentProvider()
	Init(db, provider, 100, logger.NewNop())

	return db, provider
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// mockAuthMiddleware populates the context the same way EnsureValidToken
// does. Chain the real middleware.LoadProfile() after it in routes whose
// handlers need the profile row.
func mockAuthMiddleware(auth0ID, role, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", auth0ID)
		c.Set("access_token", accessToken)

		c.Set("validated_claims", &validator.ValidatedClaims{
			CustomClaims: &middleware.CustomClaims{Role: role},
		})

		c.Next()
	}
}

// createTestCustomer seeds a user with its customer row. suffix keeps the
// unique columns apart between fixtures.
func createTestCustomer(t *testing.T, db *gorm.DB, suffix string) (*models.User, *models.Customer) {
	t.Helper()

	user := models.User{
		Auth0ID: "auth0|customer" + suffix,
		Name:    "Customer " + suffix,
		Email:   fmt.Sprintf("customer%s@example.com", suffix),
		Role:    models.RoleCustomer,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test customer user: %v", err)
	}

	customer := models.Customer{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("Failed to create test customer: %v", err)
	}

	return &user, &customer
}

// createTestTechnician seeds a user with its technician row.
func createTestTechnician(t *testing.T, db *gorm.DB, suffix string) (*models.User, *models.Technician) {
	t.Helper()

	user := models.User{
		Auth0ID: "auth0|tech" + suffix,
		Name:    "Technician " + suffix,
		Email:   fmt.Sprintf("tech%s@example.com", suffix),
		Role:    models.RoleTechnician,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test technician user: %v", err)
	}

	technician := models.Technician{
		UserID:     user.ID,
		Name:       user.Name,
		Email:      user.Email,
		IsVerified: true,
	}
	if err := db.Create(&technician).Error; err != nil {
		t.Fatalf("Failed to create test technician: %v", err)
	}

	return &user, &technician
}

// createTestAdmin seeds an admin user (no role-specific row).
func createTestAdmin(t *testing.T, db *gorm.DB, suffix string) *models.User {
	t.Helper()

	user := models.User{
		Auth0ID: "auth0|admin" + suffix,
		Name:    "Admin " + suffix,
		Email:   fmt.Sprintf("admin%s@example.com", suffix),
		Role:    models.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test admin user: %v", err)
	}

	return &user
}
