package geofence

import (
	"math"
	"testing"
)

var office = Office{
	Coordinate: Coordinate{
		Latitude:  -5.1597320842062295,
		Longitude: 119.4099062887864,
	},
	RadiusMeters: 100,
}

func TestDistanceZeroForSamePoint(t *testing.T) {
	if d := Distance(office.Coordinate, office.Coordinate); d != 0 {
		t.Errorf("Distance(p, p) = %v, want 0", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Coordinate{Latitude: -5.1597, Longitude: 119.4099}
	b := Coordinate{Latitude: -5.1700, Longitude: 119.4200}

	d1 := Distance(a, b)
	d2 := Distance(b, a)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("Distance not symmetric: %v vs %v", d1, d2)
	}
	if d1 <= 0 {
		t.Errorf("Distance(a, b) = %v, want > 0 for distinct points", d1)
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// Roughly 0.01 degrees of latitude is about 1.11 km.
	a := Coordinate{Latitude: -5.15, Longitude: 119.41}
	b := Coordinate{Latitude: -5.16, Longitude: 119.41}

	d := Distance(a, b)
	if d < 1100 || d > 1125 {
		t.Errorf("Distance = %v m, want about 1112 m", d)
	}
}

func TestContains(t *testing.T) {
	cases := []struct {
		name  string
		point Coordinate
		want  bool
	}{
		{"anchor itself", office.Coordinate, true},
		{"well inside", Coordinate{Latitude: -5.15974, Longitude: 119.40991}, true},
		{"far outside", Coordinate{Latitude: -5.17, Longitude: 119.42}, false},
		{"other hemisphere", Coordinate{Latitude: 48.8566, Longitude: 2.3522}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := office.Contains(c.point); got != c.want {
				t.Errorf("Contains(%+v) = %v, want %v (distance %v m)",
					c.point, got, c.want, office.DistanceTo(c.point))
			}
		})
	}
}

func TestContainsBoundaryInclusive(t *testing.T) {
	// Move due north by an arc length a hair under the radius. The point
	// lands essentially on the boundary and must still count as inside.
	point := Coordinate{
		Latitude:  office.Latitude + 99.999/earthRadiusMeters*(180.0/math.Pi),
		Longitude: office.Longitude,
	}
	d := office.DistanceTo(point)
	if d < 99.9 || d > 100.0 {
		t.Fatalf("test point landed at %v m, expected just under 100 m", d)
	}
	if !office.Contains(point) {
		t.Errorf("point on the boundary (distance %v m) should be inside", d)
	}
}
