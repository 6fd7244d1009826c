package models

// Dataset is one fully built snapshot of the three tables.
type Dataset struct {
	Airlines []Airline
	Routes   []Route
	Flights  []Flight
}

// RowCount returns the total number of rows across all tables.
func (d *Dataset) RowCount() int {
	return len(d.Airlines) + len(d.Routes) + len(d.Flights)
}
