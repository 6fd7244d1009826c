package models

import "database/sql"

// Flight represents the flights table. AirlineID and RouteID stay NULL when
// the source row did not match a dimension entry.
type Flight struct {
	ID         int64           `db:"flight_id" json:"flight_id"`
	FlightCode string          `db:"flight_code" json:"flight_code"`
	AirlineID  sql.NullInt64   `db:"airline_id" json:"airline_id,omitempty"`
	RouteID    sql.NullInt64   `db:"route_id" json:"route_id,omitempty"`
	DepTime    string          `db:"dep_time" json:"dep_time"`
	ArrTime    string          `db:"arr_time" json:"arr_time"`
	TotalStops sql.NullInt64   `db:"total_stops" json:"total_stops,omitempty"`
	Price      sql.NullFloat64 `db:"price" json:"price,omitempty"`
}
