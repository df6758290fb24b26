package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/techcare-io/techcare-api/models"
)

func TestApproxDistanceKM(t *testing.T) {
	// Same point
	assert.Equal(t, 0.0, approxDistanceKM(52.52, 13.40, 52.52, 13.40))

	// One degree of latitude is about 111 km everywhere
	d := approxDistanceKM(52.0, 13.0, 53.0, 13.0)
	assert.InDelta(t, 111.32, d, 0.01)

	// One degree of longitude shrinks with latitude
	d = approxDistanceKM(60.0, 13.0, 60.0, 14.0)
	assert.InDelta(t, 111.32/2, d, 1.0)
}

func TestContainsFold(t *testing.T) {
	values := []string{"Laptops", "Smartphones", "Tablets"}

	assert.True(t, containsFold(values, "laptops"))
	assert.True(t, containsFold(values, "SMARTPHONES"))
	assert.False(t, containsFold(values, "consoles"))
	assert.False(t, containsFold(values, "laptop"), "substring should not match")
	assert.False(t, containsFold(nil, "laptops"))
}

func TestNearby_RadiusAndOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewSearchService(db)

	coord := func(v float64) *float64 { return &v }
	db.Create(&models.Technician{
		UserID: 201, Name: "Near", Email: "near@example.com",
		IsVerified: true, Latitude: coord(52.52), Longitude: coord(13.40),
	})
	db.Create(&models.Technician{
		UserID: 202, Name: "Far", Email: "far@example.com",
		IsVerified: true, Latitude: coord(52.40), Longitude: coord(13.05),
	})
	db.Create(&models.Technician{
		UserID: 203, Name: "No location", Email: "nowhere@example.com",
		IsVerified: true,
	})
	db.Create(&models.Technician{
		UserID: 204, Name: "Unverified", Email: "unverified@example.com",
		Latitude: coord(52.52), Longitude: coord(13.40),
	})

	results, err := svc.Nearby(52.52, 13.40, 50)
	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "Near", results[0].Name)
	assert.Equal(t, "Far", results[1].Name)
	assert.Less(t, results[0].DistanceKM, results[1].DistanceKM)

	// Non-positive radius falls back to the 25 km default
	results, err = svc.Nearby(52.52, 13.40, 0)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
}
