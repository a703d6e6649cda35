package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"railpulse/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := config.DatabaseConfig{
		Path:                  filepath.Join(t.TempDir(), "nested", "railpulse.db"),
		MaxOpenConnections:    4,
		MaxIdleConnections:    2,
		ConnectionMaxLifetime: time.Minute,
		ConnectionMaxIdleTime: time.Minute,
	}
	dbConn, err := OpenDatabase(cfg, DefaultDatabaseOptions(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbConn.Close() })
	return dbConn
}

func TestSeededDirectory(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	n, err := store.CountStations(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 15)

	tests := []struct {
		query string
		code  string
	}{
		{"ngp", "NGP"},
		{"Nagpur Jn", "NGP"},
		{"nagpur", "NGP"},
		{"Chennai Central", "MAS"},
		{"Secunder", "SC"},
		{"  howrah  ", "HWH"},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			st, err := store.LookupStation(ctx, tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.code, st.Code)
		})
	}
}

func TestLookupMissing(t *testing.T) {
	store := NewStore(openTestDB(t))

	_, err := store.LookupStation(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrStationNotFound)

	_, err = store.LookupStation(context.Background(), "")
	assert.ErrorIs(t, err, ErrStationNotFound)

	// LIKE wildcards are literal
	_, err = store.LookupStation(context.Background(), "%")
	assert.ErrorIs(t, err, ErrStationNotFound)
}

func TestUpsertStation(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.UpsertStation(ctx, Station{
		Code:    "wr",
		Name:    "Wardha Jn",
		Zone:    "CR",
		Address: "Station Rd, Wardha",
		Aliases: StringList{"Wardha"},
	}))

	st, err := store.LookupStation(ctx, "wardha")
	require.NoError(t, err)
	assert.Equal(t, "WR", st.Code)
	assert.Equal(t, "CR", st.Zone)
	assert.Equal(t, StringList{"Wardha"}, st.Aliases)
	assert.NotEmpty(t, st.UpdatedAt)

	// a later sync without zone/aliases keeps what we already know
	require.NoError(t, store.UpsertStation(ctx, Station{Code: "WR", Name: "Wardha Junction"}))
	st, err = store.LookupStation(ctx, "WR")
	require.NoError(t, err)
	assert.Equal(t, "Wardha Junction", st.Name)
	assert.Equal(t, "CR", st.Zone)
	assert.Equal(t, "Station Rd, Wardha", st.Address)
	assert.Equal(t, StringList{"Wardha"}, st.Aliases)

	assert.Error(t, store.UpsertStation(ctx, Station{Code: "X"}))
}

func TestSearchStations(t *testing.T) {
	store := NewStore(openTestDB(t))

	got, err := store.SearchStations(context.Background(), "mumbai", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "CSMT", got[0].Code)
	assert.Equal(t, "MMCT", got[1].Code)

	none, err := store.SearchStations(context.Background(), "zzz", 0)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestStringList(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan(nil))
	assert.Equal(t, StringList{}, l)

	require.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringList{"a", "b"}, l)

	require.NoError(t, l.Scan("null"))
	assert.Equal(t, StringList{}, l)

	assert.Error(t, l.Scan(42))

	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = StringList{"x"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["x"]`, v)
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("/tmp/x.db", DefaultDatabaseOptions())
	assert.Equal(t, "file:/tmp/x.db?_foreign_keys=true&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_cache_size=20000", dsn)
}
