package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time is used for timeout durations
)

// SessionTTL is the lifetime of a session cookie and the JWT inside it.
// Sessions are stateless: there is no server-side session table and no
// refresh mechanism, so a token simply stops validating after this duration.
const SessionTTL = 24 * time.Hour

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for costs and
// durations for timeouts.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	MongoURI        string        // MongoDB connection string
	MongoDB         string        // MongoDB database name
	JWTSecret       string        // secret used to sign session tokens
	BcryptCost      int           // bcrypt cost for password hashing
	AnalysisTimeout time.Duration // outbound timeout for external diagnostic calls
	CookieSecure    bool          // whether the session cookie carries the Secure flag
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),    // environment (dev/test/prod)
		Port:            must("APP_PORT"),   // port to bind the HTTP server
		MongoURI:        must("MONGO_URI"),  // MongoDB connection string
		MongoDB:         must("MONGO_DB"),   // database holding users and reports
		JWTSecret:       must("JWT_SECRET"), // secret used for signing session tokens
		BcryptCost:      mustInt("BCRYPT_COST"),
		AnalysisTimeout: time.Duration(envInt("ANALYSIS_TIMEOUT_SEC", 60)) * time.Second,
		CookieSecure:    envBool("COOKIE_SECURE", true),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envStr returns the value of an optional environment variable or a default.
func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// envBool parses common truthy/falsy spellings; unknown values fall back to
// the default.
func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
