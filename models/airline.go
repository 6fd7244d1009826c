package models

// Airline represents the airlines table
type Airline struct {
	ID   int64  `db:"airline_id" json:"airline_id"`
	Name string `db:"airline_name" json:"airline_name"`
}
