package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// DepartmentResponse is the public view of a municipal department.
type DepartmentResponse struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Description       *string `json:"description"`
	TransparencyScore float64 `json:"transparency_score"`
	AvgResolutionDays float64 `json:"avg_resolution_days"`
}

// DepartmentFromDomain maps a department.
func DepartmentFromDomain(dept *domain.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:                dept.ID,
		Name:              dept.Name,
		Description:       dept.Description,
		TransparencyScore: dept.TransparencyScore,
		AvgResolutionDays: dept.AvgResolutionDays,
	}
}

// DepartmentsFromDomain maps a slice of departments.
func DepartmentsFromDomain(depts []domain.Department) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(depts))
	for i := range depts {
		out = append(out, DepartmentFromDomain(&depts[i]))
	}
	return out
}

// HealthResponse reports liveness of backing stores.
type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Cache     string    `json:"cache"`
	Timestamp time.Time `json:"timestamp"`
}
