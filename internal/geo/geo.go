// Package geo resolves a citizen's GPS coordinate against the pole
// inventory: nearest pole, poles within a search radius, and the
// auto-select / escalation policy used by the citizen portal.
package geo

import (
	"math"
	"sort"

	"ilumina-bknd/internal/models"
)

const (
	// EarthRadiusMeters is the spherical earth radius used by the
	// haversine distance. Pole density can span kilometers, so a
	// flat-earth approximation is not good enough.
	EarthRadiusMeters = 6371000.0

	// NearbyRadiusMeters is the first radius tried when listing
	// candidate poles around the citizen.
	NearbyRadiusMeters = 100.0

	// ExpandedRadiusMeters is the fallback radius used once when the
	// nearby search comes back empty.
	ExpandedRadiusMeters = 300.0

	// AutoSelectRadiusMeters is the confidence threshold for
	// pre-selecting a pole without user confirmation.
	AutoSelectRadiusMeters = 30.0

	// maxNearbyResults caps the candidate list handed to the UI.
	maxNearbyResults = 10
)

type Point struct {
	Lat float64
	Lng float64
}

// Candidate pairs a pole with its distance from the query origin.
type Candidate struct {
	Pole           models.Pole `json:"pole"`
	DistanceMeters float64     `json:"distance_meters"`
}

// Distance returns the great-circle distance in meters between two
// points, using the haversine formula.
func Distance(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// FindNearest returns the pole closest to origin, or nil when the list
// is empty. Exact ties keep the first pole in input order. A NaN
// distance (malformed coordinates) never wins the comparison, so such
// poles are skipped.
func FindNearest(origin Point, poles []models.Pole) *models.Pole {
	var nearest *models.Pole
	minDist := math.Inf(1)
	for i := range poles {
		d := Distance(origin, Point{Lat: poles[i].Latitude, Lng: poles[i].Longitude})
		if d < minDist {
			minDist = d
			nearest = &poles[i]
		}
	}
	return nearest
}

// FindWithinRadius returns the poles within radiusMeters of origin,
// sorted ascending by distance and capped at 10 entries. Equal
// distances keep input order, so the result is deterministic for a
// given snapshot. NaN distances never satisfy the radius filter.
func FindWithinRadius(origin Point, poles []models.Pole, radiusMeters float64) []Candidate {
	candidates := make([]Candidate, 0, len(poles))
	for i := range poles {
		d := Distance(origin, Point{Lat: poles[i].Latitude, Lng: poles[i].Longitude})
		if d <= radiusMeters {
			candidates = append(candidates, Candidate{Pole: poles[i], DistanceMeters: d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DistanceMeters < candidates[j].DistanceMeters
	})
	if len(candidates) > maxNearbyResults {
		candidates = candidates[:maxNearbyResults]
	}
	return candidates
}
