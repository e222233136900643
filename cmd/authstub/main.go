package main

import (
	"flag"

	"go.uber.org/fx"

	"github.com/jrjohn/arcana-auth-client/internal/di"
)

func main() {
	configPath := flag.String("config", "", "path to authclient.yaml (default: search ., ./config, $HOME/.arcana)")
	flag.Parse()

	app := fx.New(
		fx.Supply(di.ConfigPath(*configPath)),

		// Config, logging, observability, security and the gin backend
		di.StubModules,

		// Print startup banner
		fx.Invoke(di.PrintBanner),

		// Configure fx logger to use zap
		fx.WithLogger(di.ZapEventLogger),
	)

	app.Run()
}
