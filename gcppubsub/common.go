// Package gcppubsub adapts Google Cloud Pub/Sub topics and subscriptions to
// the courier transport contracts. Delivery guarantees (redelivery, ordering,
// flow control, dead-lettering) are the service's own; this package only maps
// handles and settings.
package gcppubsub

import (
	"context"
	"os"

	"cloud.google.com/go/pubsub"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

const emulatorHostEnv = "PUBSUB_EMULATOR_HOST"

// ClientConfig describes how to reach the Pub/Sub service.
type ClientConfig struct {
	ProjectID string
	// CredentialsFile points at a service account key; empty means
	// Application Default Credentials.
	CredentialsFile string
	// ClientOptions are passed through to the underlying client, after the
	// options derived from the fields above.
	ClientOptions []option.ClientOption
}

func newClient(ctx context.Context, cfg ClientConfig) (*pubsub.Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("gcppubsub: project id is required")
	}
	var opts []option.ClientOption
	if host := os.Getenv(emulatorHostEnv); host != "" {
		opts = append(opts, option.WithEndpoint(host), option.WithoutAuthentication())
	} else if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, cfg.ClientOptions...)

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "gcppubsub: cannot create client")
	}
	return client, nil
}
