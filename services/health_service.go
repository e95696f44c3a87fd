package services

import (
	"context"
	"sort"
	"time"

	"docshelf/logger"
	"docshelf/repositories"

	"go.uber.org/zap"
)

const (
	healthOK       = "ok"
	healthDown     = "down"
	healthDegraded = "degraded"
	pingTimeout    = 2 * time.Second
)

type HealthReport struct {
	Status     string            `json:"status"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components,omitempty"`
}

func (r HealthReport) Healthy() bool {
	return r.Status == healthOK
}

type HealthService interface {
	Check(ctx context.Context) HealthReport
}

type healthService struct {
	pingers map[string]repositories.Pinger
}

func NewHealthService(pingers map[string]repositories.Pinger) HealthService {
	return &healthService{pingers: pingers}
}

func (s *healthService) Check(ctx context.Context) HealthReport {
	report := HealthReport{Status: healthOK, Service: "docshelf"}
	if len(s.pingers) == 0 {
		return report
	}

	names := make([]string, 0, len(s.pingers))
	for name := range s.pingers {
		names = append(names, name)
	}
	sort.Strings(names)

	report.Components = make(map[string]string, len(names))
	for _, name := range names {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := s.pingers[name].Ping(pingCtx)
		cancel()
		if err != nil {
			logger.L().Warn("health check failed", zap.String("component", name), zap.Error(err))
			report.Components[name] = healthDown
			report.Status = healthDegraded
			continue
		}
		report.Components[name] = healthOK
	}
	return report
}
