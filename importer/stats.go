package importer

import (
	"fmt"
	"log"
	"sort"
)

const maxSamples = 10

// ImportStats counts data-quality findings that do not abort a run.
type ImportStats struct {
	TotalProcessed int
	Unresolved     map[string]int
	Unparsed       map[string]int
	Samples        []string
}

func NewImportStats() *ImportStats {
	return &ImportStats{
		Unresolved: make(map[string]int),
		Unparsed:   make(map[string]int),
	}
}

// AddUnresolved records a row whose foreign key stayed NULL.
func (s *ImportStats) AddUnresolved(dimension string, row int, value string) {
	s.Unresolved[dimension]++
	s.sample(fmt.Sprintf("row %d: no %s match for %q", row, dimension, value))
}

// AddUnparsed records a cell that could not be converted and was stored as NULL.
func (s *ImportStats) AddUnparsed(column string, row int, err error) {
	s.Unparsed[column]++
	s.sample(fmt.Sprintf("row %d: %v", row, err))
}

func (s *ImportStats) sample(msg string) {
	if len(s.Samples) < maxSamples {
		s.Samples = append(s.Samples, msg)
	}
}

// Clean reports whether every row resolved and parsed fully.
func (s *ImportStats) Clean() bool {
	return len(s.Unresolved) == 0 && len(s.Unparsed) == 0
}

func (s *ImportStats) PrintSummary() {
	log.Printf("Import Statistics:")
	log.Printf("Total Records Processed: %d", s.TotalProcessed)

	if len(s.Unresolved) > 0 {
		log.Printf("Warning: rows stored with NULL foreign keys:")
		for _, k := range sortedKeys(s.Unresolved) {
			log.Printf("- %s: %d rows", k, s.Unresolved[k])
		}
	}

	if len(s.Unparsed) > 0 {
		log.Printf("Warning: cells stored as NULL after failed conversion:")
		for _, k := range sortedKeys(s.Unparsed) {
			log.Printf("- %s: %d cells", k, s.Unparsed[k])
		}
	}

	if len(s.Samples) > 0 {
		log.Printf("Sample of data-quality findings (up to %d):", maxSamples)
		for _, msg := range s.Samples {
			log.Printf("- %s", msg)
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
