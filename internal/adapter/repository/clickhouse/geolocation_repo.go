package clickhouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/Riesling1623/honeydash/internal/entity"
)

const geolocationTableDDL = `
	CREATE TABLE IF NOT EXISTS honeypot_ip_geolocation (
		ip           String,
		country      String,
		country_code LowCardinality(String),
		city         String,
		region       String,
		latitude     Nullable(Float64),
		longitude    Nullable(Float64),
		isp          String,
		timezone     String,
		updated_at   DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY ip
`

// GeolocationRepository persists resolved IP locations between restarts
type GeolocationRepository struct {
	conn *Connection
}

// NewGeolocationRepository creates a new geolocation repository
func NewGeolocationRepository(conn *Connection) *GeolocationRepository {
	return &GeolocationRepository{conn: conn}
}

// GetBatch returns stored locations for ips; unknown IPs are absent from the map
func (r *GeolocationRepository) GetBatch(ctx context.Context, ips []string) (map[string]*entity.GeoLocation, error) {
	results := make(map[string]*entity.GeoLocation)
	if len(ips) == 0 {
		return results, nil
	}

	placeholders := make([]string, len(ips))
	args := make([]interface{}, len(ips))
	for i, ip := range ips {
		placeholders[i] = "?"
		args[i] = ip
	}

	query := fmt.Sprintf(`
		SELECT ip, country, country_code, city, region, latitude, longitude, isp, timezone
		FROM honeypot_ip_geolocation FINAL
		WHERE ip IN (%s)
	`, strings.Join(placeholders, ","))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query geolocation: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ip string
		var geo entity.GeoLocation
		if err := rows.Scan(
			&ip, &geo.Country, &geo.CountryCode, &geo.City, &geo.Region,
			&geo.Latitude, &geo.Longitude, &geo.ISP, &geo.Timezone,
		); err != nil {
			return nil, fmt.Errorf("scan geolocation: %w", err)
		}
		results[ip] = &geo
	}

	return results, rows.Err()
}

// Store saves a resolved location
func (r *GeolocationRepository) Store(ctx context.Context, ip string, geo *entity.GeoLocation) error {
	query := `
		INSERT INTO honeypot_ip_geolocation (
			ip, country, country_code, city, region, latitude, longitude, isp, timezone, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, now())
	`

	if err := r.conn.Exec(ctx, query,
		ip, geo.Country, geo.CountryCode, geo.City, geo.Region,
		geo.Latitude, geo.Longitude, geo.ISP, geo.Timezone,
	); err != nil {
		return fmt.Errorf("store geolocation for %s: %w", ip, err)
	}
	return nil
}
