// Package postgres implements the sensor store over a PostGIS-enabled
// PostgreSQL database.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/enviro-risk-service/internal/domain"
	"github.com/couchcryptid/enviro-risk-service/internal/observability"
)

const sourceName = "store"

// Store provides geospatial queries over the sensors table. Reads go through
// PostGIS predicates; geodesic distance uses geography casts so results are
// correct away from the equator.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// NewStore creates a sensor store over an open database handle.
func NewStore(db *sql.DB, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{db: db, logger: logger, metrics: metrics}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const sensorColumns = `id, name, data_source, ST_AsText(location) AS location`

// SensorsInBounds returns every sensor whose point intersects the bounding
// box, boundary inclusive, ordered by name.
func (s *Store) SensorsInBounds(ctx context.Context, box domain.BoundingBox) ([]domain.Sensor, error) {
	// ST_MakeEnvelope takes xmin, ymin, xmax, ymax — longitude first.
	query := `
        SELECT ` + sensorColumns + `
        FROM sensors
        WHERE ST_Intersects(location, ST_MakeEnvelope($1, $2, $3, $4, 4326))
        ORDER BY name
    `
	return s.querySensors(ctx, "in_bounds", query, box.MinLon, box.MinLat, box.MaxLon, box.MaxLat)
}

// AllSensors returns every sensor, ordered by name.
func (s *Store) AllSensors(ctx context.Context) ([]domain.Sensor, error) {
	query := `
        SELECT ` + sensorColumns + `
        FROM sensors
        ORDER BY name
    `
	return s.querySensors(ctx, "all", query)
}

// SensorsNear returns sensors within radiusKm kilometers of the point,
// nearest first. Distance is true geodesic distance over the geography type,
// not planar degrees.
func (s *Store) SensorsNear(ctx context.Context, lat, lon, radiusKm float64) ([]domain.Sensor, error) {
	query := `
        SELECT ` + sensorColumns + `
        FROM sensors
        WHERE ST_DWithin(
            location::geography,
            ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
            $3
        )
        ORDER BY ST_Distance(
            location::geography,
            ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography
        )
    `
	return s.querySensors(ctx, "near", query, lon, lat, radiusKm*1000)
}

// InsertSensor persists a new sensor and returns its assigned id. The point
// is stored as (x=longitude, y=latitude); the read paths rely on this order.
func (s *Store) InsertSensor(ctx context.Context, sensor domain.NewSensor) (int, error) {
	if err := sensor.Validate(); err != nil {
		return 0, fmt.Errorf("insert sensor: %w", err)
	}

	query := `
        INSERT INTO sensors (name, data_source, location)
        VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326))
        RETURNING id
    `

	start := time.Now()
	var id int
	err := s.db.QueryRowContext(ctx, query,
		sensor.Name,
		sensor.DataSource,
		sensor.Longitude,
		sensor.Latitude,
	).Scan(&id)
	s.observe("insert", start, err)
	if err != nil {
		return 0, domain.NewSourceError(domain.KindStore, sourceName, fmt.Errorf("insert sensor: %w", err))
	}
	return id, nil
}

// CountSensors returns the total number of sensor rows.
func (s *Store) CountSensors(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sensors`).Scan(&count)
	if err != nil {
		return 0, domain.NewSourceError(domain.KindStore, sourceName, fmt.Errorf("count sensors: %w", err))
	}
	return count, nil
}

func (s *Store) querySensors(ctx context.Context, operation, query string, args ...any) ([]domain.Sensor, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.observe(operation, start, err)
		return nil, domain.NewSourceError(domain.KindStore, sourceName, fmt.Errorf("%s query: %w", operation, err))
	}
	defer rows.Close()

	sensors := make([]domain.Sensor, 0)
	for rows.Next() {
		var (
			id       int
			name     string
			source   string
			location sql.NullString
		)
		if err := rows.Scan(&id, &name, &source, &location); err != nil {
			s.observe(operation, start, err)
			return nil, domain.NewSourceError(domain.KindStore, sourceName, fmt.Errorf("%s scan: %w", operation, err))
		}
		sensors = append(sensors, s.sensorFromRow(id, name, source, location))
	}
	if err := rows.Err(); err != nil {
		s.observe(operation, start, err)
		return nil, domain.NewSourceError(domain.KindStore, sourceName, fmt.Errorf("%s rows: %w", operation, err))
	}

	s.observe(operation, start, nil)
	return sensors, nil
}

// sensorFromRow maps a scanned row to a Sensor. A missing or malformed
// location degrades that single row to (0,0) rather than failing the batch.
func (s *Store) sensorFromRow(id int, name, source string, location sql.NullString) domain.Sensor {
	sensor := domain.Sensor{ID: id, Name: name, DataSource: source}

	if !location.Valid {
		return sensor
	}
	lat, lon, err := domain.ParsePointWKT(location.String)
	if err != nil {
		s.logger.Warn("malformed sensor location, degrading to (0,0)",
			"sensor_id", id, "location", location.String, "error", err)
		s.metrics.MalformedLocations.Inc()
		return sensor
	}

	sensor.Latitude = lat
	sensor.Longitude = lon
	return sensor
}

func (s *Store) observe(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.StoreQueries.With(prometheus.Labels{"operation": operation, "outcome": outcome}).Inc()
	s.metrics.StoreQueryDuration.With(prometheus.Labels{"operation": operation}).Observe(time.Since(start).Seconds())
}
