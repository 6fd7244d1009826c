package importer

import (
	"github.com/nonsonwune/flights_db/models"
)

// AirlineMapper resolves airline names to surrogate ids.
type AirlineMapper struct {
	nameToID map[string]int64
}

// NewAirlineMapper indexes the given airlines by name.
func NewAirlineMapper(airlines []models.Airline) *AirlineMapper {
	m := &AirlineMapper{nameToID: make(map[string]int64, len(airlines))}
	for _, a := range airlines {
		m.nameToID[a.Name] = a.ID
	}
	return m
}

// GetAirlineID returns the id for an exact name match.
func (m *AirlineMapper) GetAirlineID(name string) (int64, bool) {
	id, ok := m.nameToID[name]
	return id, ok
}

// RouteMapper resolves (source, destination) pairs to surrogate ids.
type RouteMapper struct {
	keyToID map[models.RouteKey]int64
}

// NewRouteMapper indexes the given routes by their natural key.
func NewRouteMapper(routes []models.Route) *RouteMapper {
	m := &RouteMapper{keyToID: make(map[models.RouteKey]int64, len(routes))}
	for _, r := range routes {
		m.keyToID[r.Key()] = r.ID
	}
	return m
}

// GetRouteID returns the id for an exact (source, destination) match.
func (m *RouteMapper) GetRouteID(source, destination string) (int64, bool) {
	id, ok := m.keyToID[models.RouteKey{Source: source, Destination: destination}]
	return id, ok
}

// ExtractAirlines collects distinct airline names in first-seen order and
// numbers them 1..N. Blank names are skipped.
func ExtractAirlines(t *Table) []models.Airline {
	seen := make(map[string]bool)
	airlines := make([]models.Airline, 0)

	for _, row := range t.Rows {
		name := t.Value(row, ColAirline)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		airlines = append(airlines, models.Airline{
			ID:   int64(len(airlines) + 1),
			Name: name,
		})
	}

	return airlines
}

// ExtractRoutes collects distinct (source, destination) pairs in first-seen
// order and numbers them 1..M. Pairs with a blank side are skipped.
func ExtractRoutes(t *Table) []models.Route {
	seen := make(map[models.RouteKey]bool)
	routes := make([]models.Route, 0)

	for _, row := range t.Rows {
		key := models.RouteKey{
			Source:      t.Value(row, ColFrom),
			Destination: t.Value(row, ColTo),
		}
		if key.Source == "" || key.Destination == "" || seen[key] {
			continue
		}
		seen[key] = true
		routes = append(routes, models.Route{
			ID:          int64(len(routes) + 1),
			Source:      key.Source,
			Destination: key.Destination,
		})
	}

	return routes
}
