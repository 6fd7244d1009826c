package importer

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/nonsonwune/flights_db/models"
)

// BuildFlights turns every source row into a flight, resolving foreign keys
// against the dimension tables. A row that matches no airline or route keeps
// a NULL reference; it is counted in stats, never dropped.
func BuildFlights(t *Table, airlines []models.Airline, routes []models.Route, stats *ImportStats) []models.Flight {
	airlineMapper := NewAirlineMapper(airlines)
	routeMapper := NewRouteMapper(routes)
	flights := make([]models.Flight, 0, len(t.Rows))

	for i, row := range t.Rows {
		rowNum := i + 1
		f := models.Flight{
			ID:         int64(rowNum),
			FlightCode: t.Value(row, ColFlightNum),
			DepTime:    t.Value(row, ColDepTime),
			ArrTime:    t.Value(row, ColArrTime),
		}

		if id, ok := airlineMapper.GetAirlineID(t.Value(row, ColAirline)); ok {
			f.AirlineID = sql.NullInt64{Int64: id, Valid: true}
		} else {
			stats.AddUnresolved("airline", rowNum, t.Value(row, ColAirline))
		}

		source, destination := t.Value(row, ColFrom), t.Value(row, ColTo)
		if id, ok := routeMapper.GetRouteID(source, destination); ok {
			f.RouteID = sql.NullInt64{Int64: id, Valid: true}
		} else {
			stats.AddUnresolved("route", rowNum, source+" -> "+destination)
		}

		if stops, err := transformStops(t.Value(row, ColStops)); err != nil {
			stats.AddUnparsed(ColStops, rowNum, err)
		} else {
			f.TotalStops = stops
		}

		if price, err := transformPrice(t.Value(row, ColPrice)); err != nil {
			stats.AddUnparsed(ColPrice, rowNum, err)
		} else {
			f.Price = price
		}

		flights = append(flights, f)
		stats.TotalProcessed++
	}

	return flights
}

var (
	stopsPattern = regexp.MustCompile(`^(\d+)\+?(?:\s*-?\s*stops?)?$`)
	pricePattern = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// transformStops parses stop counts such as "non-stop", "1-stop", "2+-stop" or "3".
func transformStops(s string) (sql.NullInt64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return sql.NullInt64{}, nil
	}

	switch s {
	case "non-stop", "nonstop", "non stop", "direct", "zero":
		return sql.NullInt64{Int64: 0, Valid: true}, nil
	}

	m := stopsPattern.FindStringSubmatch(s)
	if m == nil {
		return sql.NullInt64{}, fmt.Errorf("invalid stop count: %q", s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("invalid stop count: %q", s)
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}

// transformPrice parses a fare. Thousands separators, whitespace and currency
// marks are dropped; what remains must be a plain non-negative decimal.
func transformPrice(s string) (sql.NullFloat64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullFloat64{}, nil
	}

	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)
	lower := strings.ToLower(cleaned)
	for _, prefix := range []string{"inr", "rs.", "rs"} {
		if strings.HasPrefix(lower, prefix) {
			cleaned = cleaned[len(prefix):]
			break
		}
	}

	if !pricePattern.MatchString(cleaned) {
		return sql.NullFloat64{}, fmt.Errorf("invalid price: %q", s)
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return sql.NullFloat64{}, fmt.Errorf("invalid price: %q", s)
	}
	return sql.NullFloat64{Float64: price, Valid: true}, nil
}
