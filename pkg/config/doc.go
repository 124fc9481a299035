// Package config loads application configuration from environment variables
// into typed structs.
//
// Values are parsed with github.com/caarlos0/env/v11 after optional .env
// files are loaded with github.com/joho/godotenv:
//
//	type Config struct {
//		Addr        string `env:"ADDR" envDefault:":8080"`
//		MaxBodySize int64  `env:"MAX_BODY_SIZE" envDefault:"33554432"`
//	}
//
//	cfg, err := config.Load[Config](
//		config.WithPrefix("UPLOAD_"),
//		config.WithEnvFiles(".env"),
//		config.WithOptionalEnvFiles(),
//	)
//
// Errors wrap ErrLoadingEnvFile or ErrParsingConfig.
package config
