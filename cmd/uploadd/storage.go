package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/uploadkit/pkg/config"
	"github.com/dmitrymomot/uploadkit/pkg/httpserver"
	"github.com/dmitrymomot/uploadkit/pkg/logger"
	"github.com/dmitrymomot/uploadkit/pkg/mongo"
	"github.com/dmitrymomot/uploadkit/pkg/upload"
)

// storage is the selected saver with its readiness checks and cleanup.
type storage struct {
	saver     upload.Saver
	checks    []httpserver.Check
	close     func(context.Context) error
	localRoot string
}

func openStorage(ctx context.Context, cfg Config, log *slog.Logger) (*storage, error) {
	policy, err := upload.ParseCollisionPolicy(cfg.CollisionPolicy)
	if err != nil {
		return nil, err
	}

	switch cfg.Storage {
	case "", "local":
		saver, err := upload.NewLocalSaver(cfg.LocalDir,
			upload.WithBaseURL(cfg.LocalBaseURL),
			upload.WithCollisionPolicy(policy),
		)
		if err != nil {
			return nil, err
		}
		return &storage{saver: saver, localRoot: saver.Prefix()}, nil

	case "s3":
		saver, err := upload.NewS3Saver(ctx, cfg.S3.uploadConfig(),
			upload.WithS3CollisionPolicy(policy),
		)
		if err != nil {
			return nil, err
		}
		return &storage{saver: saver}, nil

	case "gridfs":
		mongoCfg, err := config.Load[mongo.Config]()
		if err != nil {
			return nil, err
		}
		client, err := mongo.New(ctx, mongoCfg)
		if err != nil {
			return nil, err
		}
		saver, err := upload.NewGridFSSaver(mongo.NewGridFSBucket(client, mongoCfg),
			upload.WithGridFSBucketName(mongoCfg.GridFSBucket),
		)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.InfoContext(ctx, "connected to mongo",
			logger.Component("uploadd"),
			slog.String("database", mongoCfg.Database),
			slog.String("bucket", mongoCfg.GridFSBucket),
		)
		return &storage{
			saver:  saver,
			checks: []httpserver.Check{mongo.Healthcheck(client)},
			close:  client.Disconnect,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage %q: must be local, s3 or gridfs", cfg.Storage)
	}
}
