// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/uptimemonitor/internal/app"
	"github.com/hamed0406/uptimemonitor/internal/config"
	"github.com/hamed0406/uptimemonitor/internal/probe"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, "✖", e)
		}
		fail("configuration is invalid")
	}
	ok("API_ADDR=" + cfg.Addr)

	reg, err := config.LoadRegistry(cfg.TargetsFile)
	if err != nil {
		fail("targets: " + err.Error())
	}
	if cfg.TargetsFile == "" {
		warn(fmt.Sprintf("TARGETS_FILE empty; using %d built-in targets", reg.Len()))
	} else {
		ok(fmt.Sprintf("TARGETS_FILE=%s (%d targets)", cfg.TargetsFile, reg.Len()))
	}

	ctx := context.Background()
	for _, t := range reg.Targets() {
		s := probe.ResolveTarget(ctx, t)
		switch s.Class {
		case probe.DNSResolves, probe.DNSLiteralIPAddr:
			ok(fmt.Sprintf("%s: %s %s", t.ID, s.Host, s.Class))
		default:
			warn(fmt.Sprintf("%s: %s %s %s", t.ID, s.Host, s.Class, s.ResolverError))
		}
	}

	if sched, err := app.Schedule(cfg); err != nil {
		fail("CHECK_SCHEDULE: " + err.Error())
	} else if sched == nil {
		warn("no interval or schedule; only startup and manual cycles will run")
	}

	if len(cfg.AdminAPIKeys) == 0 {
		warn("ADMIN_API_KEYS is empty; POST /api/check is open.")
	}
	if len(cfg.PublicAPIKeys) == 0 && len(cfg.AdminAPIKeys) == 0 {
		warn("no API keys set; read routes are open.")
	}
	for _, k := range append(append([]string{}, cfg.PublicAPIKeys...), cfg.AdminAPIKeys...) {
		if strings.Contains(k, " ") {
			warn("API keys contain spaces; use comma-separated with no spaces, e.g. key1,key2")
			break
		}
	}

	ok("alerts via " + strings.Join(cfg.AlertMethods, ","))
	if cfg.DatabaseURL == "" && cfg.SQLitePath == "" {
		warn("no DATABASE_URL or SQLITE_PATH; history endpoint disabled")
	}
	if cfg.StateFile != "" {
		ok("STATE_FILE=" + cfg.StateFile)
	}

	ok("preflight passed")
}
