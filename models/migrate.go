package models

// AllModels returns every model registered for auto-migration, in
// dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Customer{},
		&Technician{},
		&Booking{},
		&Bid{},
		&Review{},
		&Payment{},
		&Notification{},
		&Favorite{},
		&Service{},
		&Gig{},
	}
}
