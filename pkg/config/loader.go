package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option configures Load.
type Option func(*options)

type options struct {
	prefix      string
	files       []string
	optional    bool
	environment map[string]string
}

// WithPrefix reads only variables starting with prefix, e.g. "UPLOAD_".
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnvFiles loads the given .env files before parsing. Missing files are
// an error unless WithOptionalEnvFiles is also set. Variables already present
// in the process environment win over file values.
func WithEnvFiles(paths ...string) Option {
	return func(o *options) { o.files = append(o.files, paths...) }
}

// WithOptionalEnvFiles ignores .env files that do not exist.
func WithOptionalEnvFiles() Option {
	return func(o *options) { o.optional = true }
}

// WithEnvironment parses from vars instead of the process environment.
func WithEnvironment(vars map[string]string) Option {
	return func(o *options) { o.environment = vars }
}

// Load parses the environment into a new T using `env` and `envDefault` tags.
//
//	type Config struct {
//		Addr string `env:"ADDR" envDefault:":8080"`
//	}
//	cfg, err := config.Load[Config](config.WithPrefix("UPLOAD_"), config.WithEnvFiles(".env"))
func Load[T any](opts ...Option) (T, error) {
	var cfg T

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	for _, path := range o.files {
		if err := godotenv.Load(path); err != nil {
			if o.optional && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return cfg, fmt.Errorf("%w: %s: %v", ErrLoadingEnvFile, path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      o.prefix,
		Environment: o.environment,
	}); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrParsingConfig, err)
	}

	return cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(err)
	}
	return cfg
}
