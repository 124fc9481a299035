// Package mongo connects to MongoDB and opens the GridFS bucket used by the
// GridFS upload saver.
//
// Configuration comes from MONGODB_* environment variables:
//
//	cfg, err := config.Load[mongo.Config]()
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Disconnect(context.Background())
//
//	saver, err := upload.NewGridFSSaver(mongo.NewGridFSBucket(client, cfg),
//		upload.WithGridFSBucketName(cfg.GridFSBucket))
//
// Connection failures wrap ErrFailedToConnectToMongo and failed pings from
// Healthcheck wrap ErrHealthcheckFailed.
package mongo
