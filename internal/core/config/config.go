// Package config reads service settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
)

// HostedDataDefaults are the endpoint settings applied to hosted-data layers
// that do not carry their own.
type HostedDataDefaults struct {
	TilerHost     string
	TilerPort     string
	TilerProtocol string
	QueryHost     string
	QueryPort     string
	QueryProtocol string
	CDNURL        string
}

// Apply overwrites the endpoint attributes of l. It is meant to run before a
// layer payload is decoded so attributes in the payload still win.
func (d HostedDataDefaults) Apply(l *layer.HostedDataLayer) {
	l.TilerHost, l.TilerPort, l.TilerProtocol = d.TilerHost, d.TilerPort, d.TilerProtocol
	l.QueryHost, l.QueryPort, l.QueryProtocol = d.QueryHost, d.QueryPort, d.QueryProtocol
	l.CDNURL = d.CDNURL
}

type ViewEventsCfg struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	QueueSize int
}

type Config struct {
	Addr       string
	LogLevel   string
	LogConsole bool
	LogSampleN int

	Center model.LatLng
	Zoom   int

	HostedData HostedDataDefaults

	RedisAddr         string
	RedisOpTimeout    time.Duration
	RedisPoolSize     int
	RedisMinIdle      int
	RedisDialTimeout  time.Duration
	DescriptorTTL     time.Duration
	DescriptorLRUSize int

	ViewEvents ViewEventsCfg
	H3Res      int

	HeatHalfLife time.Duration

	MetricsEnabled bool
}

func FromEnv() Config {
	res := getint("H3_RES", -1)
	if res > 15 {
		res = 15
	}

	zoom := getint("MAP_ZOOM", 9)
	if zoom < 0 {
		zoom = 9
	}

	return Config{
		Addr:       getenv("ADDR", ":8095"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),
		LogSampleN: getint("LOG_SAMPLE_N", 0),
		Center: model.LatLng{
			Lat: getfloat("MAP_CENTER_LAT", 0),
			Lng: getfloat("MAP_CENTER_LNG", 0),
		},
		Zoom: zoom,
		HostedData: HostedDataDefaults{
			TilerHost:     getenv("TILER_DOMAIN", "cartodb.com"),
			TilerPort:     getenv("TILER_PORT", "80"),
			TilerProtocol: getenv("TILER_PROTOCOL", "http"),
			QueryHost:     getenv("SQL_DOMAIN", "cartodb.com"),
			QueryPort:     getenv("SQL_PORT", "80"),
			QueryProtocol: getenv("SQL_PROTOCOL", "http"),
			CDNURL:        getenv("CDN_URL", ""),
		},
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisOpTimeout:    getduration("REDIS_OP_TIMEOUT", 250*time.Millisecond),
		RedisPoolSize:     getint("REDIS_POOL_SIZE", 64),
		RedisMinIdle:      getint("REDIS_MIN_IDLE_CONNS", 4),
		RedisDialTimeout:  getduration("REDIS_DIAL_TIMEOUT", 2*time.Second),
		DescriptorTTL:     getduration("DESCRIPTOR_TTL", 10*time.Minute),
		DescriptorLRUSize: getint("DESCRIPTOR_LRU_SIZE", 256),
		ViewEvents: ViewEventsCfg{
			Enabled:   getbool("VIEWEVENTS_ENABLED", false),
			Brokers:   splitList(getenv("KAFKA_BROKERS", "localhost:9092")),
			Topic:     getenv("VIEWEVENTS_TOPIC", "viewport-events"),
			QueueSize: getint("VIEWEVENTS_QUEUE", 1024),
		},
		H3Res:          res,
		HeatHalfLife:   getduration("HEAT_HALF_LIFE", 5*time.Minute),
		MetricsEnabled: getbool("METRICS_ENABLED", true),
	}
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

// splitList parses "a:9092, b:9092" into its non-empty items.
func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
