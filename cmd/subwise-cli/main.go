package main

import (
	"context"
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"

	"subwise/internal/cli"
	"subwise/internal/log"
)

type Params struct {
	Command  string `descr:"What to do" alts:"list,insights,renewals,calendar,export,watch" strict:"true" positional:"true"`
	Days     int    `descr:"Renewal window in days (renewals, insights, export)" default:"7"`
	Date     string `descr:"Day to show for calendar, YYYY-MM-DD (default today)" optional:"true"`
	Search   string `descr:"Case-insensitive name filter (list)" optional:"true"`
	Category string `descr:"Category filter (list)" optional:"true"`
	Status   string `descr:"Status filter (list)" optional:"true"`
	Sort     string `descr:"Sort key for list" alts:"name,cost,date" default:"name"`
	Format   string `descr:"Output format" alts:"table,json" strict:"true" default:"table"`
	Output   string `descr:"Destination of the xlsx export" default:"subwise.xlsx"`
	Queue    string `descr:"Durable queue to consume from (watch); empty uses a transient queue" optional:"true"`
	Color    bool   `descr:"Color statuses in tables" optional:"true"`
}

func main() {
	boa.NewCmdT[Params]("subwise-cli").
		WithShort("Inspect subscriptions, spend and upcoming renewals").
		WithLong("Reads the subscription collection from the configured backend (DATA_BACKEND and friends, .env honored) and prints listings, spend insights, renewal calendars or an xlsx export. watch follows the AMQP change feed.").
		WithRunFunc(func(params *Params) {
			if err := run(params); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}).
		Run()
}

func run(params *Params) error {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(envOr("LOG_LEVEL", "warn"))
	logger = logger.WithComponent(log.ComponentCLI)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	if params.Command == "watch" {
		return watch(ctx, cfg, params, os.Stdout, logger)
	}

	app, err := cli.OpenStore(ctx, cfg, logger, cli.ReadOnly())
	if err != nil {
		return err
	}
	defer app.Close()

	return execute(params, app.Store.Snapshot(), app.Store.Today(), os.Stdout)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
