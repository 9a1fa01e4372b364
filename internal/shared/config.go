package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	Store       string // mysql|memory
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration
	AMQPURL     string

	HTTPTimeout        time.Duration
	FillWorkers        int
	MaxRangeDays       int
	MaxPairs           int
	WindowPastDays     int
	WindowFutureMonths int

	PMSBase        string
	PMSKey         string
	PMSRPS         int
	PMSSyncWorkers int
	PMSSyncDays    int
	PMSMappings    []Mapping
}

// Mapping is one PMS-connected room type, given as "property:roomType".
type Mapping struct {
	PropertyID int64
	RoomTypeID int64
}

func Load() Config {
	// a missing .env is normal outside local dev
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer env value")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		Store:       strings.ToLower(env("STORE", "mysql")),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/extranet?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		AMQPURL:     env("AMQP_URL", ""),

		HTTPTimeout:        time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		FillWorkers:        atoi("FILL_WORKERS", 8),
		MaxRangeDays:       atoi("MAX_RANGE_DAYS", 366),
		MaxPairs:           atoi("MAX_PAIRS", 100),
		WindowPastDays:     atoi("WRITE_WINDOW_PAST_DAYS", 2),
		WindowFutureMonths: atoi("WRITE_WINDOW_FUTURE_MONTHS", 6),

		PMSBase:        env("PMS_BASE_URL", "http://localhost:8090/api/v1"),
		PMSKey:         env("PMS_API_KEY", ""),
		PMSRPS:         atoi("PMS_RPS", 5),
		PMSSyncWorkers: max(atoi("PMS_SYNC_WORKERS", 4), 1),
		PMSSyncDays:    atoi("PMS_SYNC_DAYS", 180),
		PMSMappings:    parseMappings(os.Getenv("PMS_MAPPINGS")),
	}
	return c
}

func parseMappings(s string) []Mapping {
	var out []Mapping
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, rt, ok := strings.Cut(part, ":")
		pid, err1 := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		rid, err2 := strconv.ParseInt(strings.TrimSpace(rt), 10, 64)
		if !ok || err1 != nil || err2 != nil {
			log.Warn().Str("mapping", part).Msg("ignoring malformed PMS mapping")
			continue
		}
		out = append(out, Mapping{PropertyID: pid, RoomTypeID: rid})
	}
	return out
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
