package main

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/synnergy-network/substrate-gateway/internal/chainset"
	"github.com/synnergy-network/substrate-gateway/internal/metadata"
	"github.com/synnergy-network/substrate-gateway/internal/rpc"
	"github.com/synnergy-network/substrate-gateway/internal/server"
	"github.com/synnergy-network/substrate-gateway/pkg/config"
)

func serveCmd() *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(env)
			if err != nil {
				return fmt.Errorf("gateway: load config: %w", err)
			}
			return runServe(cfg)
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "config environment overlay (merges cmd/config/<env>.yaml)")
	return cmd
}

func runServe(cfg *config.Config) error {
	log := newLogger(cfg.Logging.Level)

	local, err := buildChain(cfg.Chain.RPCEndpoint, cfg.Chain.MetadataCacheCap, log.WithField("chain", "local"))
	if err != nil {
		return err
	}

	var relay *chainset.Chain
	if cfg.Relay.Enabled {
		r, err := buildChain(cfg.Relay.RPCEndpoint, cfg.Chain.MetadataCacheCap, log.WithField("chain", "relay"))
		if err != nil {
			return err
		}
		relay = &r
	}

	chains := chainset.New(local, relay, cfg.Relay.AssetHubPara)
	router := server.NewRouter(&server.Deps{Chains: chains, Log: log.WithField("component", "server")})

	log.WithField("addr", cfg.HTTP.ListenAddr).Info("gateway listening")
	return http.ListenAndServe(cfg.HTTP.ListenAddr, router)
}

func buildChain(endpoint string, cacheCap int, log *logrus.Entry) (chainset.Chain, error) {
	if endpoint == "" {
		return chainset.Chain{}, fmt.Errorf("gateway: missing rpc endpoint")
	}
	client := rpc.New(endpoint, rpc.WithLogger(log))
	cache, err := metadata.NewCache(metadata.ClientFetcher{Client: client}, cacheCap)
	if err != nil {
		return chainset.Chain{}, fmt.Errorf("gateway: build metadata cache: %w", err)
	}
	return chainset.Chain{Client: client, Metadata: cache}, nil
}

func newLogger(level string) *logrus.Entry {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	return log.WithField("service", "gateway")
}
