package domain

import "time"

// Department represents a municipal unit that issues get routed to. Name is
// the lookup key used when the classifier suggests a department.
type Department struct {
	ID                string
	Name              string
	Description       *string
	TransparencyScore float64
	AvgResolutionDays float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
