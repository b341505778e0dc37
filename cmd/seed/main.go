// Command seed inserts the Oregon monitoring sites into the sensors table.
// Safe to run against an empty database after the schema migration; re-running
// inserts duplicates, so it is intended for fresh environments only.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./cmd/seed
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/couchcryptid/enviro-risk-service/internal/adapter/postgres"
	"github.com/couchcryptid/enviro-risk-service/internal/config"
	"github.com/couchcryptid/enviro-risk-service/internal/domain"
	"github.com/couchcryptid/enviro-risk-service/internal/observability"
)

var sites = []domain.NewSensor{
	{Name: "Portland-SE Lafayette", DataSource: "AirNow", Latitude: 45.4871, Longitude: -122.6037},
	{Name: "Eugene-Amazon Park", DataSource: "AirNow", Latitude: 44.0462, Longitude: -123.0351},
	{Name: "Medford-Welch Street", DataSource: "AirNow", Latitude: 42.3265, Longitude: -122.8756},
	{Name: "Bend-NE 27th Street", DataSource: "AirNow", Latitude: 44.0582, Longitude: -121.2767},
	{Name: "Salem-Lancaster Drive", DataSource: "AirNow", Latitude: 44.9429, Longitude: -123.0351},
	{Name: "Klamath Falls-Lakeview", DataSource: "AirNow", Latitude: 42.2249, Longitude: -121.7817},
	{Name: "Corvallis-Circle Boulevard", DataSource: "AirNow", Latitude: 44.5646, Longitude: -123.2620},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx := context.Background()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	store := postgres.NewStore(db, logger, metrics)

	for _, site := range sites {
		id, err := store.InsertSensor(ctx, site)
		if err != nil {
			logger.Error("failed to insert sensor", "name", site.Name, "error", err)
			os.Exit(1)
		}
		logger.Info("inserted sensor", "id", id, "name", site.Name)
	}

	count, err := store.CountSensors(ctx)
	if err != nil {
		logger.Error("failed to count sensors", "error", err)
		os.Exit(1)
	}
	logger.Info("seeding complete", "total_sensors", count)
}
