// Package geo implements the geofence math used to verify on-site presence:
// great-circle distance between GPS fixes and containment checks against a
// property's circular fence.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius used by the Haversine formula.
const earthRadiusMeters = 6371000.0

// Point is a WGS84 latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Site describes a property's fence. Lat/Lng are nil when the property has
// no configured coordinates.
type Site struct {
	Lat          *float64
	Lng          *float64
	RadiusMeters float64
}

// Result is the outcome of a fence check. Verified distinguishes a genuine
// on-site verification from the permissive default applied to sites without
// coordinates: callers must treat Verified=false as "unverified", never as
// "denied".
type Result struct {
	WithinFence    bool    `json:"within_fence"`
	DistanceMeters float64 `json:"distance_meters"`
	RadiusMeters   float64 `json:"radius_meters"`
	Verified       bool    `json:"verified"`
}

// DistanceMeters returns the great-circle (Haversine) distance between two
// points. Accurate to within ~1% at the tens-to-hundreds-of-meters scale
// fences operate at.
func DistanceMeters(a, b Point) float64 {
	latA := radians(a.Lat)
	latB := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// Validate checks whether the current position falls inside the site's
// fence. Sites without configured coordinates get the permissive default:
// WithinFence=true, DistanceMeters=0, Verified=false. The boundary is
// inclusive: a fix exactly RadiusMeters away is inside.
func Validate(pos Point, site Site) Result {
	if site.Lat == nil || site.Lng == nil {
		return Result{
			WithinFence:    true,
			DistanceMeters: 0,
			RadiusMeters:   site.RadiusMeters,
			Verified:       false,
		}
	}

	dist := DistanceMeters(pos, Point{Lat: *site.Lat, Lng: *site.Lng})
	return Result{
		WithinFence:    dist <= site.RadiusMeters,
		DistanceMeters: dist,
		RadiusMeters:   site.RadiusMeters,
		Verified:       true,
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
