package database

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare-dashboard/pkg/logging"
	"bikeshare-dashboard/pkg/metrics"
)

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{
			name: "postgres",
			cfg: Config{
				Driver: DriverPostgres, Host: "db", Port: 5432, User: "bike",
				Password: "secret", Database: "rentals", SSLMode: "disable",
			},
			want: "host=db port=5432 user=bike password=secret dbname=rentals sslmode=disable",
		},
		{
			name: "sqlite",
			cfg:  Config{Driver: DriverSQLite, Path: "file:rentals.db?mode=ro"},
			want: "file:rentals.db?mode=ro",
		},
		{
			name:    "sqlite without path",
			cfg:     Config{Driver: DriverSQLite},
			wantErr: true,
		},
		{
			name:    "unknown driver",
			cfg:     Config{Driver: "oracle"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.DSN()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpen_SQLiteMemory(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, &Config{Driver: DriverSQLite, Path: ":memory:", MaxOpenConns: 1},
		logging.NewDiscardLogger(), metrics.NewCollector("database_test"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.HealthCheck(ctx))

	var one int
	require.NoError(t, db.GetContext(ctx, "one", &one, "SELECT 1"))
	assert.Equal(t, 1, one)

	var rows []int
	require.NoError(t, db.SelectContext(ctx, "values", &rows, "SELECT 1 UNION ALL SELECT 2"))
	assert.Equal(t, []int{1, 2}, rows)
}

func TestDB_ExecAndTransaction(t *testing.T) {
	ctx := context.Background()
	collector := metrics.NewCollector("database_test")
	db, err := Open(ctx, &Config{Driver: DriverSQLite, Path: ":memory:", MaxOpenConns: 1},
		logging.NewDiscardLogger(), collector)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, "create", "CREATE TABLE t (n INTEGER)")
	require.NoError(t, err)

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, db.Rebind("INSERT INTO t (n) VALUES (?)"), 7)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	var count int
	require.NoError(t, db.GetContext(ctx, "count", &count, "SELECT COUNT(*) FROM t"))
	assert.Zero(t, count)

	_, err = db.ExecContext(ctx, "bad", "INSERT INTO missing VALUES (1)")
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.DBErrorsTotal.WithLabelValues("exec_error")))
}
