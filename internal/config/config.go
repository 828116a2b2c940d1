package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses duration values
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The types reflect how the values are used in the
// application: strings for identifiers and secrets, ints and durations for
// limits and timeouts.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	DBUser          string        // database username
	DBPass          string        // database password (optional)
	DBHost          string        // database host address
	DBPort          string        // database port number
	DBName          string        // database name
	CatalogBaseURL  string        // base URL of the remote catalog service
	CatalogTimeout  time.Duration // per-request timeout for catalog fetches
	SnapshotLimit   int           // bound on the denormalized event snapshot
	SyncRunTimeout  time.Duration // end-to-end bound on one sync run
	SubLoadTimeout  time.Duration // cap on caller-specified sub-resource load timeouts
	JWTSecret       string        // secret used to verify admin bearer tokens
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),                            // environment (dev/test/prod)
		Port:           must("APP_PORT"),                           // port to bind the HTTP server
		DBUser:         must("DB_USER"),                            // database user
		DBPass:         os.Getenv("DB_PASS"),                       // database password (empty allowed)
		DBHost:         must("DB_HOST"),                            // database host
		DBPort:         must("DB_PORT"),                            // database port
		DBName:         must("DB_NAME"),                            // database name
		CatalogBaseURL: must("CATALOG_BASE_URL"),                   // remote catalog endpoint
		CatalogTimeout: durDefault("CATALOG_TIMEOUT", 15*time.Second),
		SnapshotLimit:  intDefault("SNAPSHOT_LIMIT", 30),           // default snapshot bound
		SyncRunTimeout: durDefault("SYNC_RUN_TIMEOUT", time.Minute),
		SubLoadTimeout: durDefault("SUB_LOAD_TIMEOUT", 30*time.Second),
		JWTSecret:      must("JWT_SECRET"),                         // verifies admin tokens issued by the auth service
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// intDefault retrieves an integer environment variable, falling back to def
// when unset. An unparsable value is fatal rather than silently defaulted.
func intDefault(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// durDefault retrieves a duration environment variable ("15s", "1m"),
// falling back to def when unset.
func durDefault(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, s)
	}
	return d
}
