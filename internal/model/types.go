package model

// Restaurant represents a single recommendation candidate.
// It is the canonical type for transport, the deck, and display.
type Restaurant struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Tags        []string `json:"tags"`
	Rating      float64  `json:"google_rating"`
	PriceRange  string   `json:"price_range"`
	Address     string   `json:"address,omitempty"`
	Description string   `json:"description,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	OpeningTime string   `json:"opening_time,omitempty"` // "HH:MM" or "HH:MM:SS"
	ClosingTime string   `json:"closing_time,omitempty"`
	Location    string   `json:"location,omitempty"` // "lat,lon"
}

// Profile holds the identity fields of the logged-in user.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender"`
	Location string `json:"location"`
}

// ProfileStats summarizes the user's dining history.
type ProfileStats struct {
	TotalMeals      int     `json:"total_meals"`
	AverageRating   float64 `json:"average_rating"`
	FavoriteCuisine string  `json:"favorite_cuisine"`
}

// MealEntry is one row of the user's recent-meals history.
// Rating is nil when the meal was never reviewed.
type MealEntry struct {
	MealID         string   `json:"meal_id"`
	RestaurantName string   `json:"restaurant_name"`
	Date           string   `json:"date"` // ISO date
	MealTime       string   `json:"meal_time"`
	Rating         *float64 `json:"rating"`
}

// ProfileData is the full payload of the profile endpoint.
type ProfileData struct {
	UserInfo    Profile      `json:"user_info"`
	Stats       ProfileStats `json:"stats"`
	RecentMeals []MealEntry  `json:"recent_meals"`
}

// Registration is the payload for creating an account.
type Registration struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	DOB      string `json:"dob"` // "YYYY-MM-DD", optional
	Password string `json:"password"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender"`
	Location string `json:"location"`
}
