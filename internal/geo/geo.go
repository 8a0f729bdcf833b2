package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000

type Point struct {
	Lat float64
	Lon float64
}

// Haversine returns the great-circle distance between two points in meters.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// Fence restricts accepted points to within RadiusMeters of Center.
type Fence struct {
	Center       Point
	RadiusMeters float64
}

// Distance returns how far p is from the fence centre, in meters.
func (f Fence) Distance(p Point) float64 {
	return Haversine(f.Center, p)
}

// Allows classifies a point against the fence. The boundary itself is inside.
func (f Fence) Allows(p Point) bool {
	return f.Distance(p) <= f.RadiusMeters
}
