package geo

import "math"

// EarthRadiusMiles is the mean earth radius used for distances.
const EarthRadiusMiles = 3959.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceMiles returns the great-circle (Haversine) distance between a and b.
func DistanceMiles(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMiles * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WithinRadius reports whether b lies at most radius miles from a.
func WithinRadius(a, b Point, radius float64) bool {
	return DistanceMiles(a, b) <= radius
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
