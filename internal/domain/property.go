package domain

import "time"

// Property is a job site. Coordinates are optional: sites without a
// configured location cannot be geofence-verified and are treated
// permissively by the validator.
type Property struct {
	ID                   int64     `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	Address              *string   `json:"address,omitempty" db:"address"`
	LocationLat          *float64  `json:"location_lat,omitempty" db:"location_lat"`
	LocationLng          *float64  `json:"location_lng,omitempty" db:"location_lng"`
	GeofenceRadiusMeters float64   `json:"geofence_radius_meters" db:"geofence_radius_meters"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}
