package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/equipview/internal/flagx"
	"github.com/dmitrijs2005/equipview/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations accept
// strings such as "15s" as well as integer nanoseconds. Zero values leave
// the current setting alone.
type FileConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	DatabaseDSN      string         `json:"database_dsn" yaml:"database_dsn"`
	ObjectStorage    string         `json:"object_storage" yaml:"object_storage"`
	UploadDir        string         `json:"upload_dir" yaml:"upload_dir"`
	S3RootUser       string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region         string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	MaxUploadSize    int64          `json:"max_upload_size" yaml:"max_upload_size"`
	BcryptCost       int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	LogLevel         string         `json:"log_level" yaml:"log_level"`
	AllowedOrigins   []string       `json:"allowed_origins" yaml:"allowed_origins"`
	ReadTimeout      timex.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout     timex.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout      timex.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	PresignTTL       timex.Duration `json:"presign_ttl" yaml:"presign_ttl"`
}

// parseFile overlays the file named by -c/-config, if any. Files ending in
// .yaml or .yml are read as YAML, everything else as JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.ObjectStorage, fc.ObjectStorage)
	setString(&c.UploadDir, fc.UploadDir)
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&c.LogLevel, fc.LogLevel)

	if fc.MaxUploadSize > 0 {
		c.MaxUploadSize = fc.MaxUploadSize
	}
	if fc.BcryptCost > 0 {
		c.BcryptCost = fc.BcryptCost
	}
	if fc.AllowedOrigins != nil {
		c.AllowedOrigins = fc.AllowedOrigins
	}

	for _, d := range []struct {
		dst *time.Duration
		src timex.Duration
	}{
		{&c.ReadTimeout, fc.ReadTimeout},
		{&c.WriteTimeout, fc.WriteTimeout},
		{&c.IdleTimeout, fc.IdleTimeout},
		{&c.ShutdownTimeout, fc.ShutdownTimeout},
		{&c.PresignTTL, fc.PresignTTL},
	} {
		if d.src.Duration > 0 {
			*d.dst = d.src.Duration
		}
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
