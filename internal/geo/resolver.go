package geo

import "ilumina-bknd/internal/models"

// Resolution is the full answer for one proximity query.
type Resolution struct {
	// Nearest is the closest pole overall, regardless of radius.
	// Nil only when the inventory is empty or degenerate.
	Nearest *Candidate `json:"nearest"`

	// Nearby holds the candidates within RadiusUsed, closest first.
	Nearby []Candidate `json:"nearby"`

	// RadiusUsed is the radius that actually produced Nearby. It is
	// ExpandedRadiusMeters when the first search came back empty.
	RadiusUsed float64 `json:"radius_used_meters"`

	// AutoSelected is set only when exactly one pole sits within the
	// auto-select radius. Zero or several candidates that close
	// require an explicit user choice.
	AutoSelected *Candidate `json:"auto_selected,omitempty"`
}

// Resolve runs the full portal policy for one origin: rank everything,
// list candidates at the nearby radius, escalate once to the expanded
// radius if nothing was found, and decide whether a pole can be
// pre-selected without confirmation.
func Resolve(origin Point, poles []models.Pole) Resolution {
	res := Resolution{RadiusUsed: NearbyRadiusMeters}

	if nearest := FindNearest(origin, poles); nearest != nil {
		res.Nearest = &Candidate{
			Pole:           *nearest,
			DistanceMeters: Distance(origin, Point{Lat: nearest.Latitude, Lng: nearest.Longitude}),
		}
	}

	res.Nearby = FindWithinRadius(origin, poles, NearbyRadiusMeters)
	if len(res.Nearby) == 0 {
		res.Nearby = FindWithinRadius(origin, poles, ExpandedRadiusMeters)
		res.RadiusUsed = ExpandedRadiusMeters
	}

	var withinAuto []Candidate
	for _, c := range res.Nearby {
		if c.DistanceMeters <= AutoSelectRadiusMeters {
			withinAuto = append(withinAuto, c)
		}
	}
	if len(withinAuto) == 1 {
		auto := withinAuto[0]
		res.AutoSelected = &auto
	}

	return res
}
