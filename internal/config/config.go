package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration for the OCR worker.
type Config struct {
	Worker    WorkerConfig    `mapstructure:"worker"`
	JobSource JobSourceConfig `mapstructure:"jobsource"`
	NLP       NLPConfig       `mapstructure:"nlp"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Quality   QualityConfig   `mapstructure:"quality"`
	Cleaner   CleanerConfig   `mapstructure:"cleaner"`
	Annotate  AnnotateConfig  `mapstructure:"annotate"`
	Summary   SummaryConfig   `mapstructure:"summary"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

// WorkerConfig controls the poll loop.
type WorkerConfig struct {
	ID           string        `mapstructure:"id"`
	OutputDir    string        `mapstructure:"output_dir"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxPages     int           `mapstructure:"max_pages"`
	DumpText     bool          `mapstructure:"dump_text"`
	DumpStats    bool          `mapstructure:"dump_stats"`
}

// JobSourceConfig points the worker at the upstream job API.
type JobSourceConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
}

// NLPConfig points at the external linguistic service.
type NLPConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OCRConfig controls the external OCR invocation.
type OCRConfig struct {
	Binary            string `mapstructure:"binary"`
	Language          string `mapstructure:"language"`
	PDFAMaxPages      int    `mapstructure:"pdfa_max_pages"`
	RotationThreshold float64 `mapstructure:"rotation_threshold"`
}

// QualityConfig controls quality estimation and the re-run gate.
type QualityConfig struct {
	MinScore      float64 `mapstructure:"min_score"`
	VocabPath     string  `mapstructure:"vocab_path"`
	WordlistPath  string  `mapstructure:"wordlist_path"`
	StopwordsPath string  `mapstructure:"stopwords_path"`
}

// CleanerConfig holds line-cleaner thresholds.
type CleanerConfig struct {
	MinLineLength     int     `mapstructure:"min_line_length"`
	MaxNumericPercent float64 `mapstructure:"max_numeric_percent"`
	MaxNonASCII       float64 `mapstructure:"max_non_ascii"`
}

// AnnotateConfig controls keyword and entity matching.
type AnnotateConfig struct {
	SemanticEnabled   bool    `mapstructure:"semantic_enabled"`
	EntitiesEnabled   bool    `mapstructure:"entities_enabled"`
	SemanticThreshold float64 `mapstructure:"semantic_threshold"`
	FuzzyMaxDistance  int     `mapstructure:"fuzzy_max_distance"`
}

// SummaryConfig bounds the degraded-payload summary.
type SummaryConfig struct {
	Sentences int `mapstructure:"sentences"`
}

// DatabaseConfig configures the local attempt journal.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the connection string for the configured driver.
// Parameters: none.
// Returns:
//   - string: driver-specific DSN.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.Port, c.User, c.Password, c.Name)
	}
	return c.Path
}

// ServerConfig configures the worker status endpoint.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Environment string `mapstructure:"environment"`
	File        string `mapstructure:"file"`
	FileOnly    bool   `mapstructure:"file_only"`
}

// Load reads configuration from file and environment.
// Parameters:
//   - configPath: explicit config file path; empty searches ./configs and the working directory.
// Returns:
//   - *Config: populated configuration.
//   - error: non-nil if reading or unmarshaling fails.
func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; env vars and defaults are enough
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("worker.id", "1")
	v.SetDefault("worker.output_dir", "./data/analysis")
	v.SetDefault("worker.poll_interval", "10s")
	v.SetDefault("worker.max_pages", 500)
	v.SetDefault("worker.dump_text", false)
	v.SetDefault("worker.dump_stats", false)

	v.SetDefault("jobsource.base_url", "http://localhost:8081")
	v.SetDefault("jobsource.timeout", "30s")
	v.SetDefault("jobsource.retry_count", 2)

	v.SetDefault("nlp.base_url", "http://localhost:8090")
	v.SetDefault("nlp.model", "ro_core_news_lg")
	v.SetDefault("nlp.timeout", "60s")

	v.SetDefault("ocr.binary", "ocrmypdf")
	v.SetDefault("ocr.language", "ron")
	v.SetDefault("ocr.pdfa_max_pages", 100)
	v.SetDefault("ocr.rotation_threshold", 0.4)

	v.SetDefault("quality.min_score", 60.0)
	v.SetDefault("quality.vocab_path", "resources/ro_vocabulary.txt")
	v.SetDefault("quality.wordlist_path", "resources/custom-wordlist.txt")
	v.SetDefault("quality.stopwords_path", "resources/ro_stopwords.txt")

	v.SetDefault("cleaner.min_line_length", 20)
	v.SetDefault("cleaner.max_numeric_percent", 0.7)
	v.SetDefault("cleaner.max_non_ascii", 0.40)

	v.SetDefault("annotate.semantic_enabled", false)
	v.SetDefault("annotate.entities_enabled", true)
	v.SetDefault("annotate.semantic_threshold", 0.0666)
	v.SetDefault("annotate.fuzzy_max_distance", 1)

	v.SetDefault("summary.sentences", 10)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/attempts.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8085)
	v.SetDefault("server.mode", "release")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "local")
	v.SetDefault("log.file", "/var/log/docscan/worker.log")
	v.SetDefault("log.file_only", false)
}
