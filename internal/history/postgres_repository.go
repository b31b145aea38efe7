package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schema creates the history tables. Air quality and weather are stored in
// separate tables sharing the snapshot id.
const schema = `
CREATE TABLE IF NOT EXISTS air_quality_data (
	id          TEXT PRIMARY KEY,
	city        TEXT NOT NULL,
	latitude    DOUBLE PRECISION NOT NULL,
	longitude   DOUBLE PRECISION NOT NULL,
	aqi         INTEGER NOT NULL,
	pm25        DOUBLE PRECISION,
	pm10        DOUBLE PRECISION,
	co          DOUBLE PRECISION,
	no2         DOUBLE PRECISION,
	so2         DOUBLE PRECISION,
	o3          DOUBLE PRECISION,
	status      TEXT NOT NULL,
	source      TEXT NOT NULL,
	"timestamp" TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS air_quality_data_location_idx
	ON air_quality_data (latitude, longitude, "timestamp" DESC);

CREATE TABLE IF NOT EXISTS weather_data (
	id                TEXT PRIMARY KEY REFERENCES air_quality_data (id) ON DELETE CASCADE,
	city              TEXT NOT NULL,
	latitude          DOUBLE PRECISION NOT NULL,
	longitude         DOUBLE PRECISION NOT NULL,
	temperature       DOUBLE PRECISION NOT NULL,
	feels_like        DOUBLE PRECISION,
	humidity          INTEGER,
	wind_speed        DOUBLE PRECISION,
	wind_direction    TEXT,
	visibility        DOUBLE PRECISION,
	sunrise           TEXT,
	sunset            TEXT,
	weather_condition TEXT,
	"timestamp"       TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL snapshot repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the history tables if they do not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Save writes both halves of the snapshot in one transaction.
func (r *PostgresRepository) Save(ctx context.Context, s *Snapshot) error {
	if s == nil || s.ID == "" {
		return ErrInvalidSnapshot
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO air_quality_data (
				id, city, latitude, longitude,
				aqi, pm25, pm10, co, no2, so2, o3,
				status, source, "timestamp"
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`,
			s.ID, s.City, s.Lat, s.Lon,
			s.AQI, s.PM25, s.PM10, s.CO, s.NO2, s.SO2, s.O3,
			s.Status, s.Source, s.RecordedAt,
		)
		if err != nil {
			return fmt.Errorf("insert air quality: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO weather_data (
				id, city, latitude, longitude,
				temperature, feels_like, humidity, wind_speed, wind_direction,
				visibility, sunrise, sunset, weather_condition, "timestamp"
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`,
			s.ID, s.City, s.Lat, s.Lon,
			s.Temperature, s.FeelsLike, s.Humidity, s.WindSpeed, s.WindDirection,
			s.Visibility, s.Sunrise, s.Sunset, s.WeatherCondition, s.RecordedAt,
		)
		if err != nil {
			return fmt.Errorf("insert weather: %w", err)
		}

		return nil
	})
}

// ListByLocation retrieves the newest snapshots near lat/lon.
func (r *PostgresRepository) ListByLocation(ctx context.Context, lat, lon float64, limit int) ([]*Snapshot, error) {
	query := `
		SELECT
			a.id, a.city, a.latitude, a.longitude,
			a.aqi, COALESCE(a.pm25, 0), COALESCE(a.pm10, 0), COALESCE(a.co, 0),
			COALESCE(a.no2, 0), COALESCE(a.so2, 0), COALESCE(a.o3, 0),
			a.status, a.source,
			w.temperature::int, COALESCE(w.feels_like, 0)::int, COALESCE(w.humidity, 0),
			COALESCE(w.wind_speed, 0)::int, COALESCE(w.wind_direction, ''),
			COALESCE(w.visibility, 0)::int, COALESCE(w.sunrise, ''), COALESCE(w.sunset, ''),
			COALESCE(w.weather_condition, ''),
			a."timestamp"
		FROM air_quality_data a
		JOIN weather_data w ON w.id = a.id
		WHERE abs(a.latitude - $1) < $3 AND abs(a.longitude - $2) < $3
		ORDER BY a."timestamp" DESC
		LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query, lat, lon, GridTolerance, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		var s Snapshot
		err := rows.Scan(
			&s.ID, &s.City, &s.Lat, &s.Lon,
			&s.AQI, &s.PM25, &s.PM10, &s.CO,
			&s.NO2, &s.SO2, &s.O3,
			&s.Status, &s.Source,
			&s.Temperature, &s.FeelsLike, &s.Humidity,
			&s.WindSpeed, &s.WindDirection,
			&s.Visibility, &s.Sunrise, &s.Sunset,
			&s.WeatherCondition,
			&s.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}
