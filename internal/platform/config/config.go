// Package config loads the service configuration from the environment so
// main stays lean. Every knob has a development-friendly default; only
// backend addresses and credentials must be supplied. Attribute mapping
// tables are JSON objects of name to name-list.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// UsernameAttribute is the exposed attribute holding the identifier.
	UsernameAttribute string

	// MergeStrategy selects how bags combine across sources: "replacing",
	// "noncolliding", or "multivalued".
	MergeStrategy string

	// DistinctValues deduplicates merged value sequences under the
	// multivalued strategy.
	DistinctValues bool

	// ParallelSources fans source queries out concurrently.
	ParallelSources bool

	Redis    RedisConfig
	Postgres PostgresConfig
	LDAP     LDAPConfig
	REST     RESTConfig
}

// RedisConfig configures the cache store. An empty URL disables Redis and
// the service falls back to the in-memory store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// CacheTTL bounds how long a resolved record may be served from cache.
	CacheTTL time.Duration
}

// PostgresConfig configures the relational sources. An empty DSN disables
// both.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	Required     bool

	// Query is the single-row SELECT without a WHERE clause.
	Query            string
	QueryAttributes  map[string][]string
	ResultAttributes map[string][]string

	// MultiRow enables the one-row-per-attribute source alongside the
	// single-row one.
	MultiRow              bool
	MultiRowQuery         string
	MultiRowUsernameCol   string
	MultiRowNameValueCols map[string][]string
	MultiRowQueryAttrs    map[string][]string
}

// LDAPConfig configures the directory source. An empty URL disables it.
type LDAPConfig struct {
	URL          string
	BindDN       string
	BindPassword string
	BaseDN       string
	Required     bool
	SizeLimit    int

	QueryAttributes  map[string][]string
	ResultAttributes map[string][]string
}

// RESTConfig configures the HTTP source. An empty URL disables it.
type RESTConfig struct {
	URL               string
	Method            string
	BasicAuthUsername string
	BasicAuthPassword string
	Required          bool

	ResultAttributes map[string][]string
}

// FromEnv builds the configuration from PERSONDIR_* environment variables.
func FromEnv() Config {
	return Config{
		Addr:              getenv("PERSONDIR_ADDR", ":8080"),
		LogLevel:          getenv("PERSONDIR_LOG_LEVEL", "info"),
		UsernameAttribute: getenv("PERSONDIR_USERNAME_ATTRIBUTE", "username"),
		MergeStrategy:     strings.ToLower(getenv("PERSONDIR_MERGE_STRATEGY", "multivalued")),
		DistinctValues:    getbool("PERSONDIR_DISTINCT_VALUES", false),
		ParallelSources:   getbool("PERSONDIR_PARALLEL_SOURCES", true),

		Redis: RedisConfig{
			URL:          os.Getenv("PERSONDIR_REDIS_URL"),
			PoolSize:     getint("PERSONDIR_REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("PERSONDIR_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getduration("PERSONDIR_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getduration("PERSONDIR_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getduration("PERSONDIR_REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     getduration("PERSONDIR_CACHE_TTL", 5*time.Minute),
		},

		Postgres: PostgresConfig{
			DSN:          os.Getenv("PERSONDIR_POSTGRES_DSN"),
			MaxOpenConns: getint("PERSONDIR_POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getint("PERSONDIR_POSTGRES_MAX_IDLE_CONNS", 2),
			Required:     getbool("PERSONDIR_POSTGRES_REQUIRED", false),

			Query: getenv("PERSONDIR_POSTGRES_QUERY",
				"SELECT username, email, display_name FROM app_users"),
			QueryAttributes: getmap("PERSONDIR_POSTGRES_QUERY_ATTRIBUTES", map[string][]string{
				"username": {"username"},
				"email":    {"email"},
			}),
			ResultAttributes: getmap("PERSONDIR_POSTGRES_RESULT_ATTRIBUTES", map[string][]string{
				"username":     {"username"},
				"email":        {"email"},
				"display_name": {"displayName"},
			}),

			MultiRow: getbool("PERSONDIR_POSTGRES_MULTIROW", false),
			MultiRowQuery: getenv("PERSONDIR_POSTGRES_MULTIROW_QUERY",
				"SELECT user_nm, attr_nm, attr_vl FROM user_attributes"),
			MultiRowUsernameCol: getenv("PERSONDIR_POSTGRES_MULTIROW_USERNAME_COLUMN", "user_nm"),
			MultiRowNameValueCols: getmap("PERSONDIR_POSTGRES_MULTIROW_NAME_VALUE_COLUMNS", map[string][]string{
				"attr_nm": {"attr_vl"},
			}),
			MultiRowQueryAttrs: getmap("PERSONDIR_POSTGRES_MULTIROW_QUERY_ATTRIBUTES", map[string][]string{
				"username": {"user_nm"},
			}),
		},

		LDAP: LDAPConfig{
			URL:          os.Getenv("PERSONDIR_LDAP_URL"),
			BindDN:       os.Getenv("PERSONDIR_LDAP_BIND_DN"),
			BindPassword: os.Getenv("PERSONDIR_LDAP_BIND_PASSWORD"),
			BaseDN:       os.Getenv("PERSONDIR_LDAP_BASE_DN"),
			Required:     getbool("PERSONDIR_LDAP_REQUIRED", false),
			SizeLimit:    getint("PERSONDIR_LDAP_SIZE_LIMIT", 1000),

			QueryAttributes: getmap("PERSONDIR_LDAP_QUERY_ATTRIBUTES", map[string][]string{
				"username": {"uid"},
				"email":    {"mail"},
			}),
			ResultAttributes: getmap("PERSONDIR_LDAP_RESULT_ATTRIBUTES", map[string][]string{
				"uid":  {"username"},
				"mail": {"email"},
				"cn":   {"displayName"},
			}),
		},

		REST: RESTConfig{
			URL:               os.Getenv("PERSONDIR_REST_URL"),
			Method:            getenv("PERSONDIR_REST_METHOD", "GET"),
			BasicAuthUsername: os.Getenv("PERSONDIR_REST_BASIC_AUTH_USERNAME"),
			BasicAuthPassword: os.Getenv("PERSONDIR_REST_BASIC_AUTH_PASSWORD"),
			Required:          getbool("PERSONDIR_REST_REQUIRED", false),

			ResultAttributes: getmap("PERSONDIR_REST_RESULT_ATTRIBUTES", nil),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getmap(key string, fallback map[string][]string) map[string][]string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var m map[string][]string
	if err := json.Unmarshal([]byte(v), &m); err != nil {
		return fallback
	}
	return m
}
