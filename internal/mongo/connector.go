package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/MrSnakeDoc/bookmarkpack/internal/connect"
	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
)

// ConnectOptions defines the MongoDB client settings and its retry behavior.
type ConnectOptions struct {
	URI      string // ex: "mongodb://localhost:27017"
	Database string
	AppName  string
	Retry    connect.Policy
}

// New connects to MongoDB and waits for the primary to answer a ping.
// Returns the client and the configured database.
func New(ctx context.Context, opts ConnectOptions, log logger.Logger) (*mongo.Client, *mongo.Database, error) {
	if err := opts.Retry.Validate(); err != nil {
		return nil, nil, err
	}

	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.AppName != "" {
		clientOpts.SetAppName(opts.AppName)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	ping := func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	// The URI may carry credentials, only the hosts are logged.
	addr := fmt.Sprintf("%v", clientOpts.Hosts)
	if err := connect.WithRetry(ctx, "mongodb", addr, opts.Retry, ping, log); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	return client, client.Database(opts.Database), nil
}
