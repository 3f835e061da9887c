package routing

import "cityroute/internal/models"

// SelectFastest returns the index of the route with the lowest duration.
// Ties go to the earliest route. Returns -1 for an empty slice.
func SelectFastest(routes []models.Route) int {
	best := -1
	for i := range routes {
		if best == -1 || routes[i].DurationSecs < routes[best].DurationSecs {
			best = i
		}
	}
	return best
}

// SelectShortest returns the index of the route with the lowest distance.
// Ties go to the earliest route. Returns -1 for an empty slice.
func SelectShortest(routes []models.Route) int {
	best := -1
	for i := range routes {
		if best == -1 || routes[i].DistanceMeters < routes[best].DistanceMeters {
			best = i
		}
	}
	return best
}

// RankedRoute pairs a provider route with the tag it is displayed under
type RankedRoute struct {
	Index int
	Tag   models.ColorTag
	Label string
}

// Classify orders routes as shortest, fastest, then alternates in input
// order. When one route is both fastest and shortest it appears once.
// maxLegs <= 0 means no cap.
func Classify(routes []models.Route, maxLegs int) []RankedRoute {
	if len(routes) == 0 {
		return nil
	}

	fastest := SelectFastest(routes)
	shortest := SelectShortest(routes)

	var ranked []RankedRoute
	if fastest == shortest {
		ranked = append(ranked, RankedRoute{Index: shortest, Tag: models.TagShortest, Label: "Fastest & Shortest"})
	} else {
		ranked = append(ranked,
			RankedRoute{Index: shortest, Tag: models.TagShortest, Label: "Shortest"},
			RankedRoute{Index: fastest, Tag: models.TagFastest, Label: "Fastest"},
		)
	}

	for i := range routes {
		if i == fastest || i == shortest {
			continue
		}
		ranked = append(ranked, RankedRoute{Index: i, Tag: models.TagAlternate, Label: "Alternate"})
	}

	if maxLegs > 0 && len(ranked) > maxLegs {
		ranked = ranked[:maxLegs]
	}
	return ranked
}
