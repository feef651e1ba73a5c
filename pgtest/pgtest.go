// Package pgtest runs a postgres server in docker with a source and a
// destination database to test migrations.
package pgtest

import (
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ory/dockertest/v3"
)

// Names of the databases created in the container.
const (
	SourceDB      = "source"
	DestinationDB = "destination"
)

const password = "pgclone"

// PostgresTest is a postgres server in a docker container.
type PostgresTest struct {
	dockerPool     *dockertest.Pool
	dockerResource *dockertest.Resource

	port      string
	pgxConfig *pgx.ConnConfig
}

// NewPostgresTest creates a PostgresTest instance to test against a postgres
// server in a docker container.
//
// The server has the two empty databases SourceDB and DestinationDB.
func NewPostgresTest(ctx context.Context) (tp_ *PostgresTest, err error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("connect to docker: %w", err)
	}

	runOpts := dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=postgres",
		},
	}

	resource, err := pool.RunWithOptions(&runOpts)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	port := resource.GetPort("5432/tcp")
	addr := fmt.Sprintf(`user=postgres password='%s' host=localhost port=%s dbname=postgres`, password, port)
	config, err := pgx.ParseConfig(addr)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	tp := &PostgresTest{
		dockerPool:     pool,
		dockerResource: resource,
		port:           port,
		pgxConfig:      config,
	}

	defer func() {
		if err != nil {
			if err := tp.Close(); err != nil {
				log.Printf("Closing postgres: %v", err)
			}
		}
	}()

	if err := tp.createDatabases(ctx); err != nil {
		return nil, fmt.Errorf("create databases: %w", err)
	}

	return tp, nil
}

// Close removes the docker container.
func (tp *PostgresTest) Close() error {
	if err := tp.dockerPool.Purge(tp.dockerResource); err != nil {
		return fmt.Errorf("purge postgres container: %w", err)
	}
	return nil
}

// URL returns the connection url for a database on the server.
func (tp *PostgresTest) URL(database string) string {
	return fmt.Sprintf("postgres://postgres:%s@localhost:%s/%s", password, tp.port, database)
}

// Conn returns a pgx connection to a database on the server.
//
// It waits until the server accepts connections.
func (tp *PostgresTest) Conn(ctx context.Context, database string) (*pgx.Conn, error) {
	config := tp.pgxConfig.Copy()
	config.Database = database

	for {
		conn, err := pgx.ConnectConfig(ctx, config)
		if err == nil {
			return conn, nil
		}

		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: last error: %w", ctx.Err(), err)
		}
	}
}

// Cleanup uses t.Cleanup to recreate both databases after the test is done.
//
// This can be used to reuse a PostgresTest without restarting the postgres
// server.
func (tp *PostgresTest) Cleanup(t *testing.T) {
	t.Cleanup(func() {
		if err := tp.createDatabases(context.Background()); err != nil {
			t.Logf("Cleanup database: %v", err)
		}
	})
}

func (tp *PostgresTest) createDatabases(ctx context.Context) error {
	// Use different database for drop database
	conn, err := tp.Conn(ctx, "postgres")
	if err != nil {
		return fmt.Errorf("create connection: %w", err)
	}
	defer conn.Close(ctx)

	for _, name := range []string{SourceDB, DestinationDB} {
		ident := pgx.Identifier{name}.Sanitize()
		if _, err := conn.Exec(ctx, fmt.Sprintf(`DROP DATABASE IF EXISTS %s WITH (FORCE);`, ident)); err != nil {
			return fmt.Errorf("dropping database %s: %w", name, err)
		}

		if _, err := conn.Exec(ctx, fmt.Sprintf(`CREATE DATABASE %s;`, ident)); err != nil {
			return fmt.Errorf("creating database %s: %w", name, err)
		}
	}

	return nil
}
