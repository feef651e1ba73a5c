package migrate

import (
	"errors"
	"fmt"

	"github.com/ostcar/pgclone/database"
	"github.com/ostcar/pgclone/environment"
)

var (
	envSourceURL      = environment.NewVariable("SOURCE_DB_URL", "", "Connection url of the database to copy.")
	envDestinationURL = environment.NewVariable("DEST_DB_URL", "", "Connection url of the database that is overwritten.")
	envSchema         = environment.NewVariable("PGCLONE_SCHEMA", "public", "Schema that is copied.")
)

// Config configures a Migrator.
type Config struct {
	SourceURL      string
	DestinationURL string

	// Schema defaults to public.
	Schema string
}

// ConfigFromEnv reads the config from the environment.
func ConfigFromEnv(lookup environment.Environmenter) Config {
	return Config{
		SourceURL:      envSourceURL.Value(lookup),
		DestinationURL: envDestinationURL.Value(lookup),
		Schema:         envSchema.Value(lookup),
	}
}

// ConfigError is returned when the config is invalid. No connection was opened.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (c Config) parse() (source, destination database.Descriptor, err error) {
	source, err = database.ParseURL(c.SourceURL)
	if err != nil {
		return source, destination, &ConfigError{Field: "source url", Err: err}
	}

	destination, err = database.ParseURL(c.DestinationURL)
	if err != nil {
		return source, destination, &ConfigError{Field: "destination url", Err: err}
	}

	if source == destination {
		return source, destination, &ConfigError{
			Field: "destination url",
			Err:   errors.New("source and destination are the same database"),
		}
	}

	return source, destination, nil
}
