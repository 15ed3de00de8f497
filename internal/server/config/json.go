package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/pagekeeper/internal/flagx"
	"github.com/dmitrijs2005/pagekeeper/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds. Pointers mark the
// fields whose zero value is meaningful.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	DatabaseDriver              string         `json:"database_driver"`
	DatabaseDSN                 string         `json:"database_dsn"`
	MongoURI                    string         `json:"mongo_uri"`
	MongoDatabase               string         `json:"mongo_database"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	AdminUsername               string         `json:"admin_username"`
	AdminPasswordHash           string         `json:"admin_password_hash"`
	UploadRoot                  string         `json:"upload_root"`
	PublicBaseURL               string         `json:"public_base_url"`
	MaxUploadBytes              int64          `json:"max_upload_bytes"`
	ImageExtensions             []string       `json:"image_extensions"`
	VideoExtensions             []string       `json:"video_extensions"`
	DocumentExtensions          []string       `json:"document_extensions"`
	FileBackend                 string         `json:"file_backend"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	SiteRoot                    string         `json:"site_root"`
	RollbackOrphanedUploads     *bool          `json:"rollback_orphaned_uploads"`
	LogLevel                    string         `json:"log_level"`
	LoginRatePerMinute          int            `json:"login_rate_per_minute"`
	LoginRateBurst              int            `json:"login_rate_burst"`
	ShutdownTimeout             timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag (or $PAGEKEEPER_CONFIG). Keys missing from the file
// keep their current value. If the file cannot be read or contains invalid
// JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AdminUsername, c.AdminUsername)
	setString(&config.AdminPasswordHash, c.AdminPasswordHash)
	setString(&config.UploadRoot, c.UploadRoot)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.FileBackend, c.FileBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.SiteRoot, c.SiteRoot)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.MaxUploadBytes > 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
	if c.LoginRatePerMinute > 0 {
		config.LoginRatePerMinute = c.LoginRatePerMinute
	}
	if c.LoginRateBurst > 0 {
		config.LoginRateBurst = c.LoginRateBurst
	}
	if len(c.ImageExtensions) > 0 {
		config.ImageExtensions = c.ImageExtensions
	}
	if len(c.VideoExtensions) > 0 {
		config.VideoExtensions = c.VideoExtensions
	}
	if len(c.DocumentExtensions) > 0 {
		config.DocumentExtensions = c.DocumentExtensions
	}
	if c.RollbackOrphanedUploads != nil {
		config.RollbackOrphanedUploads = *c.RollbackOrphanedUploads
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
