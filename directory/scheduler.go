package directory

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/mokokaf/interactions-api/logging"
)

// Scheduler reloads the directory files twice a day. The files are produced
// by external scrapers, so a failed reload keeps the previous data and the
// service stays up.
type Scheduler struct {
	container      *Container
	catalogPath    string
	pharmaciesPath string
	scheduler      *gocron.Scheduler
}

// NewScheduler creates a scheduler refreshing the container from the given
// files.
func NewScheduler(container *Container, catalogPath, pharmaciesPath string) *Scheduler {
	return &Scheduler{
		container:      container,
		catalogPath:    catalogPath,
		pharmaciesPath: pharmaciesPath,
		scheduler:      gocron.NewScheduler(time.Local),
	}
}

// Start performs the initial load and schedules reloads at 06:00 and 18:00
// daily.
func (s *Scheduler) Start() error {
	if err := s.refresh(); err != nil {
		logging.Error("Failed to perform initial directory load", "error", err)
		return fmt.Errorf("initial directory load failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At("06:00;18:00").Do(func() {
		if err := s.refresh(); err != nil {
			logging.Error("Failed to refresh directory data", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule directory refresh", "error", err)
		return fmt.Errorf("failed to schedule directory refresh: %w", err)
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// refresh loads both files and swaps the container data.
func (s *Scheduler) refresh() error {
	if !s.container.BeginUpdate() {
		logging.Info("Directory refresh already in progress, skipping...")
		return nil
	}
	defer s.container.EndUpdate()

	start := time.Now()

	catalog, err := LoadCatalog(s.catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	pharmacies, err := LoadPharmacies(s.pharmaciesPath)
	if err != nil {
		return fmt.Errorf("load pharmacies: %w", err)
	}

	s.container.UpdateData(catalog, pharmacies)

	logging.Info("Directory refresh completed",
		"duration", time.Since(start).String(),
		"catalog_count", len(catalog),
		"pharmacy_count", len(pharmacies))
	return nil
}
