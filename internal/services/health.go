package services

import (
	"context"
	"database/sql"
	"log"

	"vendorhub/internal/metrics"
)

// HealthResult is the health check response
type HealthResult struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
}

// HealthService implements the health service
type HealthService struct {
	name  string
	ping  func() error
	stats func() (*sql.DBStats, error)
}

// NewHealthService creates a new health service
func NewHealthService(name string, ping func() error, stats func() (*sql.DBStats, error)) *HealthService {
	return &HealthService{name: name, ping: ping, stats: stats}
}

// Check reports service and database health. It also refreshes the
// connection pool gauges.
func (s *HealthService) Check(ctx context.Context) *HealthResult {
	result := &HealthResult{Status: "healthy", Service: s.name, Database: "ok"}

	if err := s.ping(); err != nil {
		log.Printf("[HEALTH] Database check failed: %v", err)
		result.Status = "unhealthy"
		result.Database = "unreachable"
		return result
	}

	if s.stats != nil {
		if st, err := s.stats(); err == nil {
			metrics.UpdateDBConnections(st.InUse, st.Idle)
		}
	}
	return result
}
