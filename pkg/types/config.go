package types

import "time"

// ExtractionConfig holds settings for the tables and export commands.
type ExtractionConfig struct {
	// OutputDir is the destination directory, or the ZIP path when Zip is set.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Basename prefixes CSV file names written by the tables command (default "table").
	Basename string `json:"basename" yaml:"basename" mapstructure:"basename"`

	// Zip bundles operator outputs into a single archive instead of a directory.
	Zip bool `json:"zip" yaml:"zip" mapstructure:"zip"`

	// Concurrency bounds how many documents a batch export processes at once (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// EntityConfig locates the entity ruler configuration. Both paths empty
// disables the ruler.
type EntityConfig struct {
	// ConfigPath is the INI file holding the [nlp] section.
	ConfigPath string `json:"config_path,omitempty" yaml:"config_path,omitempty" mapstructure:"config_path"`

	// PatternsPath is a .json, .jsonl, or .yaml file of ruler patterns.
	PatternsPath string `json:"patterns_path,omitempty" yaml:"patterns_path,omitempty" mapstructure:"patterns_path"`
}

// Enabled reports whether a patterns file is configured.
func (c EntityConfig) Enabled() bool {
	return c.PatternsPath != ""
}

// OperatorConfig selects and configures table operators.
type OperatorConfig struct {
	// Enabled lists operator names in output order (default ["A", "B"]).
	Enabled []string `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Entities configures the entity column of operator B.
	Entities EntityConfig `json:"entities" yaml:"entities" mapstructure:"entities"`
}

// ServerConfig holds settings for the HTTP upload service.
type ServerConfig struct {
	// Addr is the listen address (default ":5000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// MaxUploadBytes caps the request body size (default 32 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`

	// MaxConcurrent caps conversions in flight; excess requests get 429 (default 4).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent" mapstructure:"max_concurrent"`

	// MaxConnections caps open client connections (0 = unlimited).
	MaxConnections int `json:"max_connections" yaml:"max_connections" mapstructure:"max_connections"`

	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// TempDir holds uploads while they are converted (default os.TempDir()).
	TempDir string `json:"temp_dir,omitempty" yaml:"temp_dir,omitempty" mapstructure:"temp_dir"`
}

// StoreConfig holds settings for the job history database.
type StoreConfig struct {
	// Path is the SQLite database file. Empty disables job history.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// MaxResults is the default number of jobs listed (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ArchiveBackend identifies where produced archives are retained.
type ArchiveBackend string

const (
	ArchiveNone ArchiveBackend = ""
	ArchiveFS   ArchiveBackend = "fs"
	ArchiveS3   ArchiveBackend = "s3"
)

// ArchiveConfig holds settings for archive retention.
type ArchiveConfig struct {
	Backend ArchiveBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Dir is the root directory for the fs backend.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" mapstructure:"dir"`

	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty" mapstructure:"bucket"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty" mapstructure:"prefix"`
	Region string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`

	// Endpoint overrides the S3 endpoint, e.g. a local MinIO.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`

	// PathStyle forces path-style bucket addressing.
	PathStyle bool `json:"path_style,omitempty" yaml:"path_style,omitempty" mapstructure:"path_style"`
}

// Config groups the settings of every component.
type Config struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Operators  OperatorConfig   `json:"operators" yaml:"operators" mapstructure:"operators"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Archive    ArchiveConfig    `json:"archive" yaml:"archive" mapstructure:"archive"`
}
