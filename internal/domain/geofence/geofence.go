package geofence

import "math"

const earthRadiusMeters = 6371000

// Coordinate is a point in decimal degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Office is a circular geofence around a fixed anchor point.
type Office struct {
	Coordinate
	RadiusMeters float64
}

// Distance returns the great-circle distance between two coordinates in
// meters, using the haversine formula.
func Distance(a, b Coordinate) float64 {
	dLat := (b.Latitude - a.Latitude) * (math.Pi / 180.0)
	dLon := (b.Longitude - a.Longitude) * (math.Pi / 180.0)

	latARad := a.Latitude * (math.Pi / 180.0)
	latBRad := b.Latitude * (math.Pi / 180.0)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(latARad)*math.Cos(latBRad)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// DistanceTo returns the distance from the office anchor to c in meters.
func (o Office) DistanceTo(c Coordinate) float64 {
	return Distance(o.Coordinate, c)
}

// Contains reports whether c falls within the office radius. A point exactly
// on the boundary counts as inside.
func (o Office) Contains(c Coordinate) bool {
	return o.DistanceTo(c) <= o.RadiusMeters
}
