package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types

    "github.com/joho/godotenv" // godotenv loads KEY=VALUE pairs from .env files
)

// Config holds the required runtime configuration of the API server.  Each
// field corresponds to an environment variable.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time-to-live in minutes
    RefreshTTLDays int    // refresh token time-to-live in days
    BcryptCost     int    // bcrypt cost for password hashing
    AutoMigrate    bool   // apply the embedded schema at startup
}

// Dev reports whether the server runs in a development environment.
func (c Config) Dev() bool { return c.Env == "dev" || c.Env == "local" }

// LoadEnvFiles merges the given .env files (default ".env") into the process
// environment.  Variables already set in the environment win.  Missing files
// are ignored so production deployments can rely on the real environment.
func LoadEnvFiles(paths ...string) {
    if len(paths) == 0 {
        paths = []string{".env"}
    }
    for _, p := range paths {
        if _, err := os.Stat(p); err != nil {
            continue // nothing to load
        }
        if err := godotenv.Load(p); err != nil {
            log.Printf("config: ignoring %s: %v", p, err)
        }
    }
}

// Load reads the required server settings.  Missing values cause the
// program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),                   // environment (dev/test/prod)
        Port:           must("APP_PORT"),                  // port to bind the HTTP server
        DBUser:         must("DB_USER"),                   // database user
        DBPass:         os.Getenv("DB_PASS"),              // database password (empty allowed)
        DBHost:         must("DB_HOST"),                   // database host
        DBPort:         must("DB_PORT"),                   // database port
        DBName:         must("DB_NAME"),                   // database name
        JWTSecret:      must("JWT_SECRET"),                // secret used for signing JWTs
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
        BcryptCost:     mustInt("BCRYPT_COST"),            // bcrypt cost factor
        AutoMigrate:    envBool("DB_AUTO_MIGRATE", false), // create missing tables on boot
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
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
