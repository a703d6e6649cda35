package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrStationNotFound = errors.New("station not found")

// Station is one row of the station-name to station-code directory.
type Station struct {
	Code      string     `json:"stationCode"`
	Name      string     `json:"stationName"`
	Zone      string     `json:"zone,omitempty"`
	Address   string     `json:"address,omitempty"`
	Aliases   StringList `json:"aliases"`
	UpdatedAt string     `json:"updatedAt"`
}

type Store struct {
	db *sql.DB
}

func NewStore(dbConn *sql.DB) *Store {
	return &Store{db: dbConn}
}

const stationColumns = `station_code, station_name, COALESCE(zone, ''), COALESCE(address, ''), aliases, updated_at`

func scanStation(row interface{ Scan(...any) error }) (Station, error) {
	var s Station
	err := row.Scan(&s.Code, &s.Name, &s.Zone, &s.Address, &s.Aliases, &s.UpdatedAt)
	return s, err
}

func (s *Store) UpsertStation(ctx context.Context, st Station) error {
	if st.Code == "" || st.Name == "" {
		return fmt.Errorf("station code and name are required (code=%q name=%q)", st.Code, st.Name)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stations (station_code, station_name, zone, address, aliases, updated_at)
		VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		ON CONFLICT (station_code) DO UPDATE SET
			station_name = excluded.station_name,
			zone         = COALESCE(excluded.zone, stations.zone),
			address      = COALESCE(excluded.address, stations.address),
			aliases      = CASE WHEN excluded.aliases = '[]' THEN stations.aliases ELSE excluded.aliases END,
			updated_at   = excluded.updated_at`,
		strings.ToUpper(st.Code), st.Name, st.Zone, st.Address, st.Aliases)
	if err != nil {
		return fmt.Errorf("upsert station %s: %w", st.Code, err)
	}
	return nil
}

// LookupStation resolves a free-form name (or a code) to one station:
// code match first, then exact name or alias, then the shortest name prefix match.
func (s *Store) LookupStation(ctx context.Context, name string) (*Station, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrStationNotFound
	}

	queries := []struct {
		sql  string
		args []any
	}{
		{`SELECT ` + stationColumns + ` FROM stations WHERE station_code = ?`, []any{strings.ToUpper(name)}},
		{`SELECT ` + stationColumns + ` FROM stations
			WHERE station_name = ? COLLATE NOCASE
			   OR EXISTS (SELECT 1 FROM json_each(stations.aliases) WHERE lower(json_each.value) = lower(?))
			ORDER BY length(station_name) LIMIT 1`, []any{name, name}},
		{`SELECT ` + stationColumns + ` FROM stations
			WHERE station_name LIKE ? ESCAPE '\'
			ORDER BY length(station_name), station_code LIMIT 1`, []any{escapeLike(name) + "%"}},
	}

	for _, q := range queries {
		st, err := scanStation(s.db.QueryRowContext(ctx, q.sql, q.args...))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup station %q: %w", name, err)
		}
		return &st, nil
	}
	return nil, ErrStationNotFound
}

// SearchStations lists stations whose name starts with prefix.
func (s *Store) SearchStations(ctx context.Context, prefix string, limit int) ([]Station, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+stationColumns+` FROM stations
		WHERE station_name LIKE ? ESCAPE '\'
		ORDER BY station_name LIMIT ?`, escapeLike(strings.TrimSpace(prefix))+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search stations: %w", err)
	}
	defer rows.Close()

	out := []Station{}
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) CountStations(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stations`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
