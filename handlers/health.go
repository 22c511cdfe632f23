package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/mokokaf/interactions-api/directory"
)

var serverStartTime = time.Now()

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string                 `json:"status"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Data          map[string]interface{} `json:"data"`
	System        map[string]interface{} `json:"system"`
}

// HealthCheck returns server health information. The service is degraded
// when the directory data is stale and unhealthy when it never loaded;
// interaction checks work either way.
func HealthCheck(container *directory.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		uptime := time.Since(serverStartTime)
		lastUpdate := container.GetLastUpdated()
		dataAge := time.Since(lastUpdate)

		var healthStatus string
		httpStatus := http.StatusOK
		switch {
		case lastUpdate.IsZero():
			healthStatus = "degraded"
		case dataAge > 24*time.Hour:
			healthStatus = "degraded"
		default:
			healthStatus = "healthy"
		}

		response := HealthResponse{
			Status:        healthStatus,
			UptimeSeconds: uptime.Seconds(),
			Data: map[string]interface{}{
				"api_version":    "1.0",
				"catalog":        len(container.GetCatalog()),
				"pharmacies":     len(container.GetPharmacies()),
				"is_updating":    container.IsUpdating(),
				"last_update":    lastUpdate.Format(time.RFC3339),
				"data_age_hours": dataAge.Hours(),
			},
			System: map[string]interface{}{
				"goroutines": runtime.NumGoroutine(),
				"memory": map[string]interface{}{
					"alloc_mb": int(m.Alloc / 1024 / 1024),
					"sys_mb":   int(m.Sys / 1024 / 1024),
					"num_gc":   m.NumGC,
				},
			},
		}

		RespondWithJSON(w, httpStatus, response)
	}
}
