package mongo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadkit/pkg/config"
	"github.com/dmitrymomot/uploadkit/pkg/mongo"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load[mongo.Config](config.WithEnvironment(map[string]string{
		"MONGODB_URL": "mongodb://localhost:27017",
	}))
	require.NoError(t, err)

	assert.Equal(t, "uploads", cfg.Database)
	assert.Equal(t, "fs", cfg.GridFSBucket)
	assert.Equal(t, int32(261120), cfg.GridFSChunkSize)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 5*time.Second, cfg.RetryInterval)
}

func TestConfigRequiresURL(t *testing.T) {
	t.Parallel()

	_, err := config.Load[mongo.Config](config.WithEnvironment(map[string]string{}))
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestNewGivesUpWhenContextIsDone(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := mongo.New(ctx, mongo.Config{
		ConnectionURL:  "mongodb://127.0.0.1:1",
		ConnectTimeout: 100 * time.Millisecond,
		RetryAttempts:  5,
		RetryInterval:  time.Minute,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, mongo.ErrFailedToConnectToMongo)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 10*time.Second)
}
