package model

import (
	"math"
	"testing"
)

func TestDistanceM(t *testing.T) {
	cases := []struct {
		name string
		a, b Coordinate
		want float64
		tol  float64
	}{
		{"same point", Coordinate{Lat: 45, Lon: 7}, Coordinate{Lat: 45, Lon: 7}, 0, 0.001},
		// One degree of latitude is ~111.2 km on the mean-radius sphere.
		{"one degree north", Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 1, Lon: 0}, 111_195, 50},
		// Paris <-> Turin, roughly 582 km great-circle.
		{"paris turin", Coordinate{Lat: 48.8566, Lon: 2.3522}, Coordinate{Lat: 45.0703, Lon: 7.6869}, 582_000, 5_000},
		// Antipodal points: half the circumference.
		{"antipodal", Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 0, Lon: 180}, math.Pi * EarthRadiusM, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.a.DistanceM(tc.b)
			if math.Abs(got-tc.want) > tc.tol {
				t.Fatalf("DistanceM = %.1f, want %.1f ± %.1f", got, tc.want, tc.tol)
			}
			// Symmetry.
			if back := tc.b.DistanceM(tc.a); math.Abs(back-got) > 0.001 {
				t.Fatalf("distance not symmetric: %.6f vs %.6f", got, back)
			}
		})
	}
}

func TestCoordinateValid(t *testing.T) {
	valid := []Coordinate{{0, 0}, {90, 180}, {-90, -180}, {45.07, 7.68}}
	for _, c := range valid {
		if !c.Valid() {
			t.Errorf("%v.Valid() = false, want true", c)
		}
	}
	invalid := []Coordinate{{91, 0}, {-91, 0}, {0, 181}, {0, -181}}
	for _, c := range invalid {
		if c.Valid() {
			t.Errorf("%v.Valid() = true, want false", c)
		}
	}
}

func TestRegionContains(t *testing.T) {
	region := Region{Center: Coordinate{Lat: 45, Lon: 7}, RadiusM: 10_000}

	if !region.Contains(region.Center) {
		t.Fatalf("region does not contain its own center")
	}
	// ~5.5 km north of the center.
	if !region.Contains(Coordinate{Lat: 45.05, Lon: 7}) {
		t.Fatalf("point inside radius reported outside")
	}
	// ~111 km north.
	if region.Contains(Coordinate{Lat: 46, Lon: 7}) {
		t.Fatalf("point far outside radius reported inside")
	}
}
