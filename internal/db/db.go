package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"busstops/internal/transit"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// the catalog is read once per run
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// RouteSource reads the route catalog from a GTFS style routes table.
type RouteSource struct {
	DB      *sql.DB
	Table   string // plain or schema qualified name; defaults to "routes"
	Timeout time.Duration
}

// ValidIdentifier allows plain or schema qualified SQL names.
func ValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			switch {
			case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9' && i > 0:
			default:
				return false
			}
		}
	}
	return true
}

func routesQuery(table string) (string, error) {
	if table == "" {
		table = "routes"
	}
	if !ValidIdentifier(table) {
		return "", fmt.Errorf("invalid routes table %q", table)
	}
	return `SELECT route_id::text,
       COALESCE(route_short_name::text, ''),
       COALESCE(route_long_name::text, '')
FROM ` + table + `
ORDER BY route_short_name, route_id`, nil
}

func (s RouteSource) Routes(ctx context.Context) ([]transit.Route, error) {
	q, err := routesQuery(s.Table)
	if err != nil {
		return nil, err
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer rows.Close()

	var out []transit.Route
	for rows.Next() {
		var r transit.Route
		if err := rows.Scan(&r.ID, &r.Number, &r.Name); err != nil {
			return nil, err
		}
		if r.Number == "" {
			// routes without a short name cannot be searched by number
			r.Number = r.ID
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
