package utils

import "time"

// Stats for performance monitoring
type Stats struct {
	GenerationsPerSecond float64   `json:"generations_per_second"`
	AveragePopulation    float64   `json:"average_population"`
	TotalGenerations     int       `json:"total_generations"`
	StartTime            time.Time `json:"start_time"`
	ActiveCells          int       `json:"active_cells"`
	LastChanges          int       `json:"last_changes"`
	TotalChanges         int       `json:"total_changes"`
}

func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// Update records one advance: the generation reached, its population, the
// number of cells written back and how long the step took
func (s *Stats) Update(generation, population, changes int, duration time.Duration) {
	s.TotalGenerations = generation
	s.ActiveCells = population
	s.LastChanges = changes
	s.TotalChanges += changes
	if duration > 0 {
		s.GenerationsPerSecond = 1.0 / duration.Seconds()
	}

	// Simple moving average for population
	if s.AveragePopulation == 0 {
		s.AveragePopulation = float64(population)
	} else {
		s.AveragePopulation = (s.AveragePopulation * 0.9) + (float64(population) * 0.1)
	}
}
