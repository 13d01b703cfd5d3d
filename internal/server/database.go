package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/docshare/internal/clock"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/repomanager"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const sqlitePrefix = "sqlite://"

// openDatabase opens dsn and reports the goose dialect for it. DSNs of the
// form sqlite://<path> select the embedded SQLite driver; anything else is
// handed to pgx.
func openDatabase(ctx context.Context, dsn string) (*sql.DB, string, error) {
	driver, dialect := "pgx", repomanager.DialectPostgres
	if path, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		driver, dialect = "sqlite", repomanager.DialectSQLite
		dsn = sqliteDSN(path)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping database: %w", err)
	}
	return db, dialect, nil
}

// sqliteDSN adds the connection settings the store depends on to path.
// Settings already present in path's query are kept, except that foreign
// keys are always switched on: permission rows cascade with their user.
func sqliteDSN(path string) string {
	base, query, _ := strings.Cut(path, "?")

	var params []string
	if query != "" {
		params = strings.Split(query, "&")
	}
	has := func(prefix string) bool {
		for _, p := range params {
			if strings.HasPrefix(strings.ToLower(p), prefix) {
				return true
			}
		}
		return false
	}

	if !has("_pragma=busy_timeout(") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !has("_pragma=foreign_keys(1)") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !has("_time_format=") {
		params = append(params, "_time_format=sqlite")
	}
	return "file:" + base + "?" + strings.Join(params, "&")
}

// openStore opens and migrates the database behind dsn.
func openStore(ctx context.Context, dsn string, clk clock.Clock, logger logging.Logger) (*sql.DB, *repomanager.SQLRepositoryManager, error) {
	db, dialect, err := openDatabase(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewSQLRepositoryManager(dialect, clk)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	goose.SetLogger(gooseLogger{logger.With("module", "migrations")})
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, rm, nil
}

// gooseLogger routes migration output through the application logger.
type gooseLogger struct {
	logger logging.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(context.Background(), fmt.Sprintf(format, v...))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(context.Background(), fmt.Sprintf(format, v...))
	os.Exit(1)
}
