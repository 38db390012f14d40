package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/biometric"
	"gopkg.in/yaml.v3"
)

//go:embed strategies.yaml
var strategiesYAML []byte

// DefaultStrategy is used when FACE_STRATEGY is unset.
const DefaultStrategy = biometric.StrategyDescriptor

type Config struct {
	Store      StoreConfig
	Database   DatabaseConfig
	MariaDB    MariaDBConfig
	Mongo      MongoConfig
	Face       FaceConfig
	Detector   DetectorConfig
	QR         QRConfig
	Log        LogConfig
	Web        WebConfig
	Strategies StrategiesConfig
}

type StoreConfig struct {
	Backend string // postgres (default), mariadb or mongo
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type MariaDBConfig struct {
	DSN          string // e.g. attendance:attendance@tcp(mariadb:3306)/attendance?parseTime=true
	MaxOpenConns int
	MaxIdleConns int
}

type MongoConfig struct {
	URI         string
	Database    string // defaults to attendance_db
	MinPoolSize int
	MaxPoolSize int
	UsersColl   string // defaults to users
	AttendColl  string // defaults to attendance
	TimeoutSecs int
}

type FaceConfig struct {
	Strategy       string  // descriptor (default), landmark or patch
	Metric         string  // overrides the preset metric when set
	Threshold      float64 // overrides the preset threshold when > 0
	LandmarkCount  int     // overrides the preset landmark count when > 0
	PatchSize      int     // overrides the preset patch size when > 0
	DescriptorDim  int     // overrides the preset descriptor length when > 0
	BlurThreshold  float64 // minimum variance of Laplacian (default 100)
	Resolver       string  // linear (default) or hnsw
	HNSWCandidates int     // candidates re-scored after an HNSW search (default 10)
}

type DetectorConfig struct {
	Backend        string // insightface (default) or dlib
	InsightFaceURL string // defaults to http://localhost:8000
	DlibModelsDir  string // directory with dlib .dat models
}

type QRConfig struct {
	ExpiryMinutes int // default 5
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json (default) or console
}

type WebConfig struct {
	AllowedOrigins []string // CORS whitelist; localhost is always allowed
	RequestTimeout int      // seconds (default 60)
}

type StrategiesConfig struct {
	Strategies map[string]StrategyPreset `yaml:"strategies"`
}

// StrategyPreset holds matching defaults for one feature strategy.
type StrategyPreset struct {
	Metric    string  `yaml:"metric"`
	Threshold float64 `yaml:"threshold"`
	Landmarks int     `yaml:"landmarks"`
	Size      int     `yaml:"size"`
	Dim       int     `yaml:"dim"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat is envInt for positive floats.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

// Presets returns the embedded strategy presets.
func Presets() StrategiesConfig {
	var strategies StrategiesConfig
	if err := yaml.Unmarshal(strategiesYAML, &strategies); err != nil {
		// embedded file, only a broken build gets here
		panic("failed to unmarshal embedded strategies.yaml: " + err.Error())
	}
	return strategies
}

func Load() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: strings.ToLower(envString("STORE_BACKEND", "postgres")),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		MariaDB: MariaDBConfig{
			DSN:          os.Getenv("MARIADB_DSN"),
			MaxOpenConns: envInt("MARIADB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("MARIADB_MAX_IDLE_CONNS", 2),
		},
		Mongo: MongoConfig{
			URI:         os.Getenv("MONGODB_URI"),
			Database:    envString("DATABASE_NAME", "attendance_db"),
			MinPoolSize: envInt("MONGODB_MIN_POOL_SIZE", 5),
			MaxPoolSize: envInt("MONGODB_MAX_POOL_SIZE", 10),
			UsersColl:   envString("USERS_COLLECTION", "users"),
			AttendColl:  envString("ATTENDANCE_COLLECTION", "attendance"),
			TimeoutSecs: envInt("MONGODB_TIMEOUT_SECONDS", 15),
		},
		Face: FaceConfig{
			Strategy:       strings.ToLower(envString("FACE_STRATEGY", DefaultStrategy)),
			Metric:         strings.ToLower(os.Getenv("FACE_METRIC")),
			Threshold:      envFloat("FACE_RECOGNITION_THRESHOLD", 0),
			LandmarkCount:  envInt("LANDMARK_COUNT", 0),
			PatchSize:      envInt("PATCH_SIZE", 0),
			DescriptorDim:  envInt("DESCRIPTOR_DIM", 0),
			BlurThreshold:  envFloat("BLUR_THRESHOLD", 100),
			Resolver:       strings.ToLower(envString("RESOLVER_INDEX", "linear")),
			HNSWCandidates: envInt("HNSW_CANDIDATES", 10),
		},
		Detector: DetectorConfig{
			Backend:        strings.ToLower(envString("DETECTOR", "insightface")),
			InsightFaceURL: os.Getenv("INSIGHTFACE_URL"),
			DlibModelsDir:  envString("DLIB_MODELS_DIR", "models"),
		},
		QR: QRConfig{
			ExpiryMinutes: envInt("QR_CODE_EXPIRY_MINUTES", 5),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "json"),
		},
		Web: WebConfig{
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
			RequestTimeout: envInt("WEB_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Strategies: Presets(),
	}
}

// ActiveStrategy returns the preset for the configured strategy with the
// environment overrides applied. ok is false for an unknown strategy name.
func (c *Config) ActiveStrategy() (StrategyPreset, bool) {
	preset, ok := c.Strategies.Strategies[c.Face.Strategy]
	if !ok {
		return StrategyPreset{}, false
	}
	if c.Face.Metric != "" {
		preset.Metric = c.Face.Metric
	}
	if c.Face.Threshold > 0 {
		preset.Threshold = c.Face.Threshold
	}
	if c.Face.LandmarkCount > 0 {
		preset.Landmarks = c.Face.LandmarkCount
	}
	if c.Face.PatchSize > 0 {
		preset.Size = c.Face.PatchSize
	}
	if c.Face.DescriptorDim > 0 {
		preset.Dim = c.Face.DescriptorDim
	}
	return preset, true
}

// StrategyOptions resolves the active preset into options for
// biometric.NewStrategy.
func (c *Config) StrategyOptions() (biometric.StrategyOptions, error) {
	preset, ok := c.ActiveStrategy()
	if !ok {
		return biometric.StrategyOptions{}, fmt.Errorf("unknown FACE_STRATEGY %q", c.Face.Strategy)
	}
	return biometric.StrategyOptions{
		Name:          c.Face.Strategy,
		Metric:        preset.Metric,
		Threshold:     preset.Threshold,
		LandmarkCount: preset.Landmarks,
		PatchSize:     preset.Size,
		DescriptorDim: preset.Dim,
	}, nil
}
