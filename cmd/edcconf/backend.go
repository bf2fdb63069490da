package main

import (
	"errors"
	"fmt"

	"github.com/botswana-harvard/edc-configuration/internal/client"
	"github.com/botswana-harvard/edc-configuration/internal/config"
	"github.com/botswana-harvard/edc-configuration/internal/events"
	"github.com/botswana-harvard/edc-configuration/internal/globalconf"
	"github.com/botswana-harvard/edc-configuration/internal/store"
	"github.com/botswana-harvard/edc-configuration/internal/store/memory"
	"github.com/botswana-harvard/edc-configuration/internal/store/postgres"
)

// openStore connects to the store named by cfg.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.InMemory() {
		logger.Warn("using the in-memory store; nothing is persisted")
		return memory.New(), nil
	}
	s, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return s, nil
}

// openPublisher returns a NATS publisher when EDC_NATS_URL is set.
func openPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		return &events.NoopPublisher{}, nil
	}
	pub, err := events.NewNATSPublisher(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return pub, nil
}

// localEnv is everything a command needs to work on the store directly.
type localEnv struct {
	cfg       *config.Config
	store     store.Store
	publisher events.Publisher
	conf      *globalconf.Manager
}

func openLocal() (*localEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	pub, err := openPublisher(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}
	return &localEnv{
		cfg:       cfg,
		store:     st,
		publisher: pub,
		conf:      globalconf.New(st, cfg.Time.Codec(), logger),
	}, nil
}

func (e *localEnv) Close() error {
	return errors.Join(e.publisher.Close(), e.store.Close())
}

// newClient returns the client attribute commands talk through: the server
// at --server when one is given, otherwise the local store.
func newClient() (client.ConfigurationClient, error) {
	if serverAddr != "" {
		switch transport {
		case "http":
			return client.NewHTTPClient(serverAddr, authToken), nil
		case "grpc":
			c, err := client.NewGRPCClient(serverAddr, authToken)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to server: %w", err)
			}
			return c, nil
		default:
			return nil, fmt.Errorf("unknown transport %q (must be http or grpc)", transport)
		}
	}
	env, err := openLocal()
	if err != nil {
		return nil, err
	}
	return client.NewLocalClient(env.conf, env.publisher, logger, env.Close), nil
}
