package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dmitrymomot/uploadkit/modules/media"
	"github.com/dmitrymomot/uploadkit/pkg/clientip"
	"github.com/dmitrymomot/uploadkit/pkg/httpserver"
	"github.com/dmitrymomot/uploadkit/pkg/logger"
	"github.com/dmitrymomot/uploadkit/pkg/requestid"
	"github.com/dmitrymomot/uploadkit/pkg/upload"
)

// Config is read from UPLOAD_* environment variables.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"uploadd"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// Storage selects the saver: local, s3 or gridfs.
	Storage         string `env:"STORAGE" envDefault:"local"`
	Naming          string `env:"NAMING" envDefault:"original"`
	CollisionPolicy string `env:"COLLISION_POLICY" envDefault:"suffix"`
	MaxBodySize     int64  `env:"MAX_BODY_SIZE" envDefault:"33554432"`
	MaxFileSize     int64  `env:"MAX_FILE_SIZE" envDefault:"8388608"`

	// Accepted uploads on POST /uploads.
	MinAcceptedSize int64    `env:"MIN_ACCEPTED_SIZE" envDefault:"2000000"`
	MaxAcceptedSize int64    `env:"MAX_ACCEPTED_SIZE" envDefault:"4000000"`
	AllowedTypes    []string `env:"ALLOWED_TYPES" envDefault:"image/png,image/jpeg,image/webp" envSeparator:","`
	MaxGallery      int      `env:"MAX_GALLERY" envDefault:"10"`

	LocalDir     string `env:"LOCAL_DIR" envDefault:"./uploads"`
	LocalBaseURL string `env:"LOCAL_BASE_URL" envDefault:"/files/"`

	S3 S3Config `envPrefix:"S3_"`

	HTTP httpserver.Config
}

// S3Config mirrors upload.S3Config with environment tags.
type S3Config struct {
	Bucket         string `env:"BUCKET"`
	Region         string `env:"REGION"`
	AccessKeyID    string `env:"ACCESS_KEY_ID"`
	SecretKey      string `env:"SECRET_KEY"`
	Endpoint       string `env:"ENDPOINT"`
	BaseURL        string `env:"BASE_URL"`
	KeyPrefix      string `env:"KEY_PREFIX"`
	ForcePathStyle bool   `env:"FORCE_PATH_STYLE"`
}

func (c S3Config) uploadConfig() upload.S3Config {
	return upload.S3Config{
		Bucket:         c.Bucket,
		Region:         c.Region,
		AccessKeyID:    c.AccessKeyID,
		SecretKey:      c.SecretKey,
		Endpoint:       c.Endpoint,
		BaseURL:        c.BaseURL,
		KeyPrefix:      c.KeyPrefix,
		ForcePathStyle: c.ForcePathStyle,
	}
}

func (c Config) limits() media.Limits {
	types := make([]upload.MIMEType, 0, len(c.AllowedTypes))
	for _, t := range c.AllowedTypes {
		if mt := upload.ParseMIMEType(t); mt != "" {
			types = append(types, mt)
		}
	}
	return media.Limits{
		MinFileSize:  c.MinAcceptedSize,
		MaxFileSize:  c.MaxAcceptedSize,
		AllowedTypes: types,
		MaxGallery:   c.MaxGallery,
	}
}

func (c Config) namingFunc() (upload.NamingFunc, error) {
	switch strings.ToLower(c.Naming) {
	case "", "original":
		return upload.OriginalName, nil
	case "uuid":
		return upload.UUIDName, nil
	case "timestamp":
		return upload.TimestampName, nil
	case "slug":
		return upload.SlugName, nil
	default:
		return nil, fmt.Errorf("unknown naming strategy %q: must be original, uuid, timestamp or slug", c.Naming)
	}
}

func (c Config) newLogger() (*slog.Logger, error) {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logger.ParseFormat(c.LogFormat)
	if err != nil {
		return nil, err
	}
	return logger.New(
		logger.WithLevel(level),
		logger.WithFormat(format),
		logger.WithOutput(os.Stdout),
		logger.WithService(c.ServiceName),
		logger.WithContextExtractors(requestid.Extractor(), clientip.Extractor()),
	), nil
}
