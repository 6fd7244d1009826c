package importer

import (
	"log"
	"sort"
	"strings"
)

// Required source columns, after header normalization.
const (
	ColAirline    = "airline"
	ColFrom       = "from"
	ColTo         = "to"
	ColFlightNum  = "flight_num"
	ColDepTime    = "dep_time"
	ColArrTime    = "arr_time"
	ColStops      = "stops"
	ColPrice      = "price"
	autoMatchConf = 0.8
)

// DefaultRequiredColumns lists the columns every fare file must carry.
var DefaultRequiredColumns = []string{
	ColAirline, ColFrom, ColTo, ColFlightNum, ColDepTime, ColArrTime, ColStops, ColPrice,
}

// ColumnMatch represents a potential column match with confidence score
type ColumnMatch struct {
	SourceColumn      string
	DestinationColumn string
	Confidence        float64
}

// normalizeHeader lowercases and trims a header name.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func squash(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, " ", "")
}

// getColumnIndex returns the index of a column in headers
func getColumnIndex(headers []string, columnName string) int {
	normalizedColumn := normalizeHeader(columnName)
	for i, header := range headers {
		if normalizeHeader(header) == normalizedColumn {
			return i
		}
	}
	for i, header := range headers {
		if squash(header) == squash(columnName) {
			return i
		}
	}
	return -1
}

// findBestColumnMatch uses fuzzy matching to find the best column match
func findBestColumnMatch(required string, headers []string) []ColumnMatch {
	matches := make([]ColumnMatch, 0)
	normalizedRequired := squash(required)

	for _, header := range headers {
		normalizedHeader := squash(header)
		if normalizedHeader == "" {
			continue
		}

		distance := levenshteinDistance(normalizedRequired, normalizedHeader)
		maxLen := float64(max(len(normalizedRequired), len(normalizedHeader)))
		confidence := 1.0 - float64(distance)/maxLen

		if confidence > 0.6 {
			matches = append(matches, ColumnMatch{
				SourceColumn:      header,
				DestinationColumn: required,
				Confidence:        confidence,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	return matches
}

// resolveColumns maps every required column to its index in headers.
// Low-confidence fuzzy matches are not accepted; the column is reported missing.
func resolveColumns(headers, required []string) (map[string]int, []string) {
	index := make(map[string]int, len(required))
	var missing []string

	for _, col := range required {
		if i := getColumnIndex(headers, col); i != -1 {
			index[col] = i
			continue
		}

		matches := findBestColumnMatch(col, headers)
		if len(matches) > 0 && matches[0].Confidence >= autoMatchConf {
			index[col] = getColumnIndex(headers, matches[0].SourceColumn)
			log.Printf("Automatically mapped '%s' to '%s' (%.2f%% confidence)",
				col, matches[0].SourceColumn, matches[0].Confidence*100)
			continue
		}
		missing = append(missing, col)
	}

	return index, missing
}

func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
