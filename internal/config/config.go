package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	LogFile      string
	MaxBodyMB    int

	// Matching defaults; callers can override per request.
	TopK int

	// Tolerance bands in percent. Linked pairings (user-confirmed catalogue
	// link) run tighter than fuzzy-suggested ones. Two knobs on purpose.
	ToleranceLinkedPct    float64
	ToleranceSuggestedPct float64

	RateTTL time.Duration
}

func Load() Config {
	port, _ := strconv.Atoi(getenv("PORT", "8083"))
	mb, _ := strconv.Atoi(getenv("MAX_BODY_MB", "32"))
	topk, _ := strconv.Atoi(getenv("MATCH_TOP_K", "3"))
	ttl, err := time.ParseDuration(getenv("RATE_TTL", "1h"))
	if err != nil {
		ttl = time.Hour
	}
	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")
	return Config{
		Host:                  getenv("HOST", "127.0.0.1"),
		Port:                  port,
		AllowOrigins:          origins,
		LogLevel:              getenv("LOG_LEVEL", "info"),
		LogFile:               getenv("LOG_FILE", "logs/pricematch-service.log"),
		MaxBodyMB:             mb,
		TopK:                  topk,
		ToleranceLinkedPct:    getfloat("TOLERANCE_LINKED_PCT", 2.0),
		ToleranceSuggestedPct: getfloat("TOLERANCE_SUGGESTED_PCT", 5.0),
		RateTTL:               ttl,
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
