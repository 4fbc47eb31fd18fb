package composite

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// HealthStatus is UP or DOWN
type HealthStatus string

const (
	StatusUp   HealthStatus = "UP"
	StatusDown HealthStatus = "DOWN"
)

// HealthReport is the composite health with one entry per backing service
type HealthReport struct {
	Status     HealthStatus            `json:"status"`
	Components map[string]HealthStatus `json:"components"`
}

// Health probes every configured backing service concurrently. The composite
// is UP only when all of them are.
func (s *Service) Health(ctx context.Context) HealthReport {
	names := make([]string, 0, len(s.clients.HealthTargets))
	for name := range s.clients.HealthTargets {
		names = append(names, name)
	}
	sort.Strings(names)

	statuses := make([]HealthStatus, len(names))
	var g errgroup.Group
	for i, name := range names {
		url := s.clients.HealthTargets[name]
		g.Go(func() error {
			statuses[i] = s.clients.Health.Health(ctx, url)
			return nil
		})
	}
	_ = g.Wait()

	report := HealthReport{Status: StatusUp, Components: make(map[string]HealthStatus, len(names))}
	for i, name := range names {
		report.Components[name] = statuses[i]
		if statuses[i] != StatusUp {
			report.Status = StatusDown
		}
	}
	return report
}
