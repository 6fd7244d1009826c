package prompts

const SchemaContext = `Database Schema (SQLite):

1. airlines
   * Primary Key: airline_id (integer, 1..N)
   * Columns:
     - airline_name: carrier name as it appears in the fare data (e.g. "Air India", "IndiGo", "Vistara")
   * Referenced by:
     - flights.airline_id -> airlines.airline_id

2. routes
   * Primary Key: route_id (integer, 1..M)
   * Columns:
     - source: origin city (e.g. "Delhi", "Mumbai")
     - destination: destination city
   * Unique per (source, destination)
   * Referenced by:
     - flights.route_id -> routes.route_id

3. flights
   * Primary Key: flight_id (integer, row order of the source file)
   * Columns:
     - flight_code: carrier flight number (e.g. "AI-803")
     - airline_id: nullable foreign key to airlines
     - route_id: nullable foreign key to routes
     - dep_time: departure time as text (e.g. "18:00")
     - arr_time: arrival time as text, may carry a next-day marker
     - total_stops: number of stops (0 = non-stop), nullable
     - price: fare in Indian rupees, nullable

Notes:
   - airline_id and route_id can be NULL when the source row did not match a dimension entry.
   - City and airline names are stored exactly as in the source file; compare with LOWER() for case-insensitive matching.`

const QueryExamples = `Example Queries and Their SQL:

1. "What is the average price to Delhi?"
SELECT ROUND(AVG(f.price), 2) AS avg_price
FROM flights f
JOIN routes r ON f.route_id = r.route_id
WHERE LOWER(r.destination) = LOWER('Delhi');

2. "Which airline has the most non-stop flights from Mumbai?"
SELECT a.airline_name, COUNT(*) AS nonstop_flights
FROM flights f
JOIN airlines a ON f.airline_id = a.airline_id
JOIN routes r ON f.route_id = r.route_id
WHERE LOWER(r.source) = LOWER('Mumbai')
AND f.total_stops = 0
GROUP BY a.airline_name
ORDER BY nonstop_flights DESC
LIMIT 1;

3. "Cheapest flight from Bangalore to Kolkata"
SELECT f.flight_code, a.airline_name, f.dep_time, f.arr_time, f.price
FROM flights f
JOIN airlines a ON f.airline_id = a.airline_id
JOIN routes r ON f.route_id = r.route_id
WHERE LOWER(r.source) = LOWER('Bangalore')
AND LOWER(r.destination) = LOWER('Kolkata')
ORDER BY f.price ASC
LIMIT 1;`
