package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/techcare-io/techcare-api/models"
)

func seedSearchTechnicians(t *testing.T, db *gorm.DB) {
	t.Helper()

	lat := func(v float64) *float64 { return &v }

	fixtures := []models.Technician{
		{
			UserID: 101, Name: "Alice Laptop Repair", Email: "alice@example.com",
			Description: "Laptops and ultrabooks", Specialization: "laptops",
			Expertise: datatypes.NewJSONSlice([]string{"laptop", "desktop"}),
			Brands:    datatypes.NewJSONSlice([]string{"Lenovo", "Dell"}),
			HourlyRate: 40, Rating: 4.8, ReviewCount: 12, IsVerified: true,
			Latitude: lat(52.52), Longitude: lat(13.40), // Berlin
		},
		{
			UserID: 102, Name: "Bob Phone Fix", Email: "bob@example.com",
			Description: "Phones while you wait", Specialization: "phones",
			Expertise: datatypes.NewJSONSlice([]string{"phone", "tablet"}),
			Brands:    datatypes.NewJSONSlice([]string{"Apple", "Samsung"}),
			HourlyRate: 60, Rating: 4.2, ReviewCount: 30, IsVerified: true,
			Latitude: lat(52.40), Longitude: lat(13.05), // Potsdam
		},
		{
			UserID: 103, Name: "Carol Cheap Repairs", Email: "carol@example.com",
			Description: "Budget repairs of all kinds", Specialization: "phones",
			Expertise: datatypes.NewJSONSlice([]string{"phone"}),
			Brands:    datatypes.NewJSONSlice([]string{"Xiaomi"}),
			HourlyRate: 25, Rating: 3.1, ReviewCount: 5, IsVerified: true,
			Latitude: lat(48.14), Longitude: lat(11.58), // Munich
		},
		{
			UserID: 104, Name: "Unverified Dave", Email: "dave@example.com",
			Description: "Not vetted yet", Specialization: "laptops",
			HourlyRate: 10, Rating: 5.0, IsVerified: false,
			Latitude: lat(52.52), Longitude: lat(13.40),
		},
	}
	for i := range fixtures {
		if err := db.Create(&fixtures[i]).Error; err != nil {
			t.Fatalf("Failed to seed technician: %v", err)
		}
	}
}

func TestSearchTechnicians(t *testing.T) {
	db, _ := setupTestDB(t)
	seedSearchTechnicians(t, db)

	router := setupTestRouter()
	router.GET("/technicians/search", SearchTechnicians)

	search := func(query string) []interface{} {
		req, _ := http.NewRequest(http.MethodGet, "/technicians/search"+query, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		return response["data"].([]interface{})
	}

	t.Run("Default returns verified sorted by rating", func(t *testing.T) {
		data := search("")
		assert.Len(t, data, 3) // unverified Dave excluded
		first := data[0].(map[string]interface{})
		assert.Equal(t, "Alice Laptop Repair", first["name"])
	})

	t.Run("Text query is case-insensitive substring", func(t *testing.T) {
		data := search("?q=LAPTOP")
		assert.Len(t, data, 1)
		first := data[0].(map[string]interface{})
		assert.Equal(t, "Alice Laptop Repair", first["name"])
	})

	t.Run("Filter by specialization", func(t *testing.T) {
		data := search("?specialization=Phones")
		assert.Len(t, data, 2)
	})

	t.Run("Filter by expertise containment", func(t *testing.T) {
		data := search("?expertise=tablet")
		assert.Len(t, data, 1)
		first := data[0].(map[string]interface{})
		assert.Equal(t, "Bob Phone Fix", first["name"])
	})

	t.Run("Filter by brand containment", func(t *testing.T) {
		data := search("?brand=lenovo")
		assert.Len(t, data, 1)
	})

	t.Run("Filter by minimum rating", func(t *testing.T) {
		data := search("?min_rating=4")
		assert.Len(t, data, 2)
	})

	t.Run("Filter by maximum price sorted by price", func(t *testing.T) {
		data := search("?max_price=50&sort=price")
		assert.Len(t, data, 2)
		first := data[0].(map[string]interface{})
		assert.Equal(t, "Carol Cheap Repairs", first["name"])
	})

	t.Run("Pagination", func(t *testing.T) {
		data := search("?limit=1&offset=1")
		assert.Len(t, data, 1)
		first := data[0].(map[string]interface{})
		assert.Equal(t, "Bob Phone Fix", first["name"])
	})

	t.Run("Invalid min_rating is rejected", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/technicians/search?min_rating=abc", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNearbyTechnicians(t *testing.T) {
	db, _ := setupTestDB(t)
	seedSearchTechnicians(t, db)

	router := setupTestRouter()
	router.GET("/technicians/nearby", NearbyTechnicians)

	t.Run("Default radius finds nearby sorted by distance", func(t *testing.T) {
		// From central Berlin: Alice ~0 km, Bob ~27 km, Carol ~500 km
		req, _ := http.NewRequest(http.MethodGet, "/technicians/nearby?lat=52.52&lng=13.40&radius_km=50", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		data := response["data"].([]interface{})
		assert.Len(t, data, 2)

		first := data[0].(map[string]interface{})
		second := data[1].(map[string]interface{})
		assert.Equal(t, "Alice Laptop Repair", first["name"])
		assert.Equal(t, "Bob Phone Fix", second["name"])
		assert.Less(t, first["distance_km"].(float64), second["distance_km"].(float64))
	})

	t.Run("Tight radius excludes farther technicians", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/technicians/nearby?lat=52.52&lng=13.40&radius_km=5", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Len(t, response["data"].([]interface{}), 1)
	})

	t.Run("Missing coordinates are rejected", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/technicians/nearby?lat=52.52", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
