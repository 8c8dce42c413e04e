// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/voltfi/vecore/api"
	"github.com/voltfi/vecore/gov"
	"github.com/voltfi/vecore/gov/decay"
	"github.com/voltfi/vecore/log"
	"github.com/voltfi/vecore/metrics"
	"github.com/voltfi/vecore/state"
	"github.com/voltfi/vecore/token"
	"github.com/voltfi/vecore/ve"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "VeCore",
		Usage:     "vote-escrowed governance accounting node",
		Copyright: "2026 VoltFi",
		Flags: []cli.Flag{
			dataDirFlag,
			configFlag,
			apiAddrFlag,
			apiCorsFlag,
			enableAPILogsFlag,
			pprofFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			verbosityFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	initLogger(ctx)

	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		fatal(err)
	}
	authz, err := newRoleAuthorizer(cfg.Roles)
	if err != nil {
		fatal(err)
	}
	funding, err := newConfigFunding(cfg.Funding)
	if err != nil {
		fatal(err)
	}
	tokenAddr, err := ve.ParseAddress(cfg.TokenAddress)
	if err != nil {
		fatalf("config tokenAddress: %v", err)
	}

	mainDB := openMainDB(ctx)
	defer func() { log.Info("closing ledger database..."); mainDB.Close() }()

	st := state.New(mainDB)
	ledger := token.New(*tokenAddr, st)
	protocol := gov.New(st, gov.NewTokenCustody(ledger), funding, authz)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			fatal(err)
		}
		defer closeFunc()
		log.Info("metrics server started", "url", url)
	}

	apiHandler := api.New(protocol, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	})
	apiURL, apiClose, err := startAPIServer(ctx.String(apiAddrFlag.Name), apiHandler)
	if err != nil {
		fatal(err)
	}
	defer func() { log.Info("stopping API server..."); apiClose() }()

	log.Info("node started", "version", fullVersion(), "api", apiURL)

	return runHousekeeping(handleExitSignal(), protocol)
}

// runHousekeeping advances the aggregate decay ledger across epoch
// boundaries so queries stay cheap on an otherwise idle node.
func runHousekeeping(ctx context.Context, protocol *gov.Protocol) error {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := uint64(time.Now().Unix())
			if err := protocol.Housekeep(nil, decay.RolePersonal, now); err != nil {
				log.Warn("housekeeping failed", "err", err)
				continue
			}
			if err := protocol.Commit(); err != nil {
				log.Warn("housekeeping commit failed", "err", err)
			}
		}
	}
}
