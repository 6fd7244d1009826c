package models

// Route represents the routes table. A route is unique per (source, destination).
type Route struct {
	ID          int64  `db:"route_id" json:"route_id"`
	Source      string `db:"source" json:"source"`
	Destination string `db:"destination" json:"destination"`
}

// RouteKey is the natural key of a route.
type RouteKey struct {
	Source      string
	Destination string
}

// Key returns the natural key of the route.
func (r Route) Key() RouteKey {
	return RouteKey{Source: r.Source, Destination: r.Destination}
}
