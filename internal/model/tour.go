package model

import "time"

// Difficulty values allowed in tours.difficulty.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// Tour represents a tour record together with its child rows. The scalar
// fields map onto the `tours` table; start dates, locations and guides live
// in child tables and are resolved by the repository at read time (guides
// are weak references to users, never embedded).
type Tour struct {
	ID              uint64     // tours.id
	Name            string     // tours.name (unique, 10..40 chars)
	Slug            string     // tours.slug (derived from Name)
	Duration        int        // tours.duration (days)
	MaxGroupSize    int        // tours.max_group_size
	Difficulty      string     // tours.difficulty
	RatingsAverage  float64    // tours.ratings_average
	RatingsQuantity int        // tours.ratings_quantity
	Price           float64    // tours.price
	PriceDiscount   *float64   // tours.price_discount (nullable, must be < Price)
	Summary         string     // tours.summary
	Description     string     // tours.description
	ImageCover      string     // tours.image_cover
	Images          []string   // tours.images (JSON array in TEXT)
	CreatedAt       time.Time  // tours.created_at
	Secret          bool       // tours.secret; excluded from default listings
	StartDates      []time.Time
	StartLocation   *Location
	Locations       []Location
	GuideIDs        []uint64 // raw references as stored in tour_guides
	Guides          []User   // resolved on detail reads
}

// Location is a GeoJSON-style point on a tour itinerary. Position 0 in the
// tour_locations table is the start location; the rest are waypoints.
type Location struct {
	Type        string  // always "Point"
	Longitude   float64 // tour_locations.longitude
	Latitude    float64 // tour_locations.latitude
	Address     string  // tour_locations.address
	Description string  // tour_locations.description
	Day         int     // tour_locations.day (0 for the start location)
}

// DurationWeeks is derived state computed on read; it is never persisted.
func (t Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}
