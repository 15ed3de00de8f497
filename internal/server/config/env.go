package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "PAGEKEEPER_"

// parseEnv overlays PAGEKEEPER_* environment variables. Unset or unparsable
// variables leave the current value in place.
func parseEnv(c *Config) {
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	c.DatabaseDriver = envOr("DATABASE_DRIVER", c.DatabaseDriver)
	c.DatabaseDSN = envOr("DATABASE_DSN", c.DatabaseDSN)
	c.MongoURI = envOr("MONGO_URI", c.MongoURI)
	c.MongoDatabase = envOr("MONGO_DATABASE", c.MongoDatabase)
	c.SecretKey = envOr("SECRET_KEY", c.SecretKey)
	c.AccessTokenValidityDuration = envDuration("ACCESS_TOKEN_VALIDITY_DURATION", c.AccessTokenValidityDuration)
	c.AdminUsername = envOr("ADMIN_USERNAME", c.AdminUsername)
	c.AdminPasswordHash = envOr("ADMIN_PASSWORD_HASH", c.AdminPasswordHash)
	c.UploadRoot = envOr("UPLOAD_ROOT", c.UploadRoot)
	c.PublicBaseURL = envOr("PUBLIC_BASE_URL", c.PublicBaseURL)
	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.ImageExtensions = envList("IMAGE_EXTENSIONS", c.ImageExtensions)
	c.VideoExtensions = envList("VIDEO_EXTENSIONS", c.VideoExtensions)
	c.DocumentExtensions = envList("DOCUMENT_EXTENSIONS", c.DocumentExtensions)
	c.FileBackend = envOr("FILE_BACKEND", c.FileBackend)
	c.S3RootUser = envOr("S3_ROOT_USER", c.S3RootUser)
	c.S3RootPassword = envOr("S3_ROOT_PASSWORD", c.S3RootPassword)
	c.S3Bucket = envOr("S3_BUCKET", c.S3Bucket)
	c.S3Region = envOr("S3_REGION", c.S3Region)
	c.S3BaseEndpoint = envOr("S3_BASE_ENDPOINT", c.S3BaseEndpoint)
	c.SiteRoot = envOr("SITE_ROOT", c.SiteRoot)
	c.RollbackOrphanedUploads = envBool("ROLLBACK_ORPHANED_UPLOADS", c.RollbackOrphanedUploads)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
	c.LoginRatePerMinute = envInt("LOGIN_RATE_PER_MINUTE", c.LoginRatePerMinute)
	c.LoginRateBurst = envInt("LOGIN_RATE_BURST", c.LoginRateBurst)
	c.ShutdownTimeout = envDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(envPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList reads a comma-separated list such as ".jpg,.png".
func envList(key string, fallback []string) []string {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
