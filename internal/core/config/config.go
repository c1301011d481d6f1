package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type DataCfg struct {
	GEBCO         string
	WOA           string
	DECK41Points  string
	DECK41One     string
	DECK41Square  string
	GEBCORes      int
	WOARes        int
	MaxRing       int
	DECK41RadiusM float64
}

type ResultsCfg struct {
	Backend   string // none, lru or redis
	LRUSize   int
	RedisAddr string
	RedisDB   int
	Prefix    string
	TTL       time.Duration
	OpTimeout time.Duration
}

type Config struct {
	LogLevel       string
	LogConsole     bool
	LogSampleN     int
	Run            string
	DepthPrecision float64
	AvgSamples     int
	MetricsFile    string
	Data           DataCfg
	Results        ResultsCfg
}

func FromEnv() Config {
	ring := getint("SEAENV_H3_MAX_RING", 2)
	if ring < 0 {
		ring = 0
	}
	samples := getint("SEAENV_AVG_SSP_SAMPLES", 4)
	if samples <= 0 {
		samples = 1
	}

	return Config{
		LogLevel:       getenv("SEAENV_LOG_LEVEL", "info"),
		LogConsole:     getbool("SEAENV_LOG_CONSOLE", false),
		LogSampleN:     getint("SEAENV_LOG_SAMPLE_N", 0),
		Run:            getenv("SEAENV_RUN", "default"),
		DepthPrecision: getfloat("SEAENV_DEPTH_PRECISION", 0),
		AvgSamples:     samples,
		MetricsFile:    getenv("SEAENV_METRICS_TEXTFILE", ""),
		Data: DataCfg{
			GEBCO:         getenv("SEAENV_GEBCO_PATH", ""),
			WOA:           getenv("SEAENV_WOA_PATH", ""),
			DECK41Points:  getenv("SEAENV_DECK41_POINTS", ""),
			DECK41One:     getenv("SEAENV_DECK41_MARSDEN_ONE", ""),
			DECK41Square:  getenv("SEAENV_DECK41_MARSDEN_SQUARE", ""),
			GEBCORes:      clampRes(getint("SEAENV_GEBCO_H3_RES", 7)),
			WOARes:        clampRes(getint("SEAENV_WOA_H3_RES", 4)),
			MaxRing:       ring,
			DECK41RadiusM: getfloat("SEAENV_DECK41_RADIUS_M", 25_000),
		},
		Results: ResultsCfg{
			Backend:   strings.ToLower(getenv("SEAENV_RESULTS_BACKEND", "lru")),
			LRUSize:   getint("SEAENV_RESULTS_LRU_SIZE", 4096),
			RedisAddr: getenv("SEAENV_REDIS_ADDR", "localhost:6379"),
			RedisDB:   getint("SEAENV_REDIS_DB", 0),
			Prefix:    getenv("SEAENV_RESULTS_PREFIX", "seaenv:"),
			TTL:       getduration("SEAENV_RESULTS_TTL", 0),
			OpTimeout: getduration("SEAENV_RESULTS_OP_TIMEOUT", 250*time.Millisecond),
		},
	}
}

// SedimentConfigured reports whether all three DECK41 tiers have a path.
func (d DataCfg) SedimentConfigured() bool {
	return d.DECK41Points != "" && d.DECK41One != "" && d.DECK41Square != ""
}

func clampRes(res int) int {
	if res < 0 {
		return 0
	}
	if res > 15 {
		return 15
	}
	return res
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
