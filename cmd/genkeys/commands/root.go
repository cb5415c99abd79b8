// Package commands wires the genkeys command line to the run pipeline:
// derive a selector, generate keys, publish DNS records, and regenerate
// the OpenDKIM tables.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Trellmor/opendkim-genkeys/internal/config"
	"github.com/Trellmor/opendkim-genkeys/internal/datafile"
	"github.com/Trellmor/opendkim-genkeys/internal/dnsapi"
	"github.com/Trellmor/opendkim-genkeys/internal/keygen"
	"github.com/Trellmor/opendkim-genkeys/internal/logging"
	"github.com/Trellmor/opendkim-genkeys/internal/metrics"
	"github.com/Trellmor/opendkim-genkeys/internal/signing"
	"github.com/Trellmor/opendkim-genkeys/internal/update"
	pkgexec "github.com/Trellmor/opendkim-genkeys/pkg/exec"
)

// BuildInfo carries the link-time version stamps.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type rootOptions struct {
	configFile     string
	verbose        bool
	nextMonth      bool
	avoidOverwrite bool
	outputSelector bool
	workingDir     string
	noDNS          bool
	noCleanup      bool
	debug          bool
	useNull        bool
}

// runDeps are the pipeline's external touchpoints, swappable in tests.
type runDeps struct {
	exec    pkgexec.CommandExecutor
	resolve datafile.SecretResolver
	now     func() time.Time
	out     io.Writer
	logOut  io.Writer
}

func defaultDeps() runDeps {
	return runDeps{
		exec: pkgexec.DefaultExecutor(),
		now:  time.Now,
		out:  os.Stdout,
	}
}

// NewRootCommand builds the genkeys command.
func NewRootCommand(info BuildInfo) *cobra.Command {
	return newRootCommand(info, defaultDeps())
}

func newRootCommand(info BuildInfo, deps runDeps) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "genkeys [selector]",
		Short: "Generate OpenDKIM key data for a set of domains",
		Long: `genkeys generates a DKIM signing key per key name in the domain
registry, publishes the public keys as DNS TXT records through the
configured DNS APIs, retires records past the retention window, and
rewrites the OpenDKIM key and signing tables.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selector := ""
			if len(args) > 0 {
				selector = args[0]
			}
			return runGenkeys(cmd.Context(), opts, selector, deps)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&opts.configFile, "config", "genkeys.yaml", "Settings file path")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log informational messages in addition to errors")
	cmd.Flags().BoolVarP(&opts.nextMonth, "next-month", "n", false, "Use next month's date for automatically-generated selectors")
	cmd.Flags().BoolVarP(&opts.avoidOverwrite, "avoid-overwrite", "a", false, "Add a suffix to the selector if needed to avoid overwriting existing files")
	cmd.Flags().BoolVarP(&opts.outputSelector, "selector", "s", false, "Output the generated selector and exit")
	cmd.Flags().StringVar(&opts.workingDir, "working-dir", "", "Working directory for DKIM data files")
	cmd.Flags().BoolVar(&opts.noDNS, "no-dns", false, "Do not update DNS data")
	cmd.Flags().BoolVar(&opts.noCleanup, "no-cleanup", false, "Do not delete old key files")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Log debugging info and do not touch live DNS")
	cmd.Flags().BoolVar(&opts.useNull, "use-null", false, "Silently use the null DNS API instead of the real API")

	return cmd
}

func runGenkeys(ctx context.Context, opts *rootOptions, selector string, deps runDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	if opts.workingDir != "" {
		cfg.WorkingDir = opts.workingDir
	}

	level := logging.LevelWarn
	switch {
	case opts.outputSelector:
		level = logging.LevelError
	case opts.debug:
		level = logging.LevelDebug
	case opts.verbose:
		level = logging.LevelInfo
	}
	log := logging.New(level)
	if deps.logOut != nil {
		log.SetOutput(deps.logOut)
	}

	if selector == "" {
		selector = keygen.DeriveSelector(deps.now(), opts.nextMonth)
	}
	log.Info("Selector: %s", selector)
	if opts.outputSelector {
		fmt.Fprintln(deps.out, selector)
		return nil
	}

	updateDNS := !opts.noDNS
	if cfg.NeverUpdateDNS {
		updateDNS = false
	}

	// A missing DNS API registry only disables automatic updates; keys
	// and record files are still generated for manual publication.
	apis, err := datafile.LoadAPIs(cfg.Path(cfg.DNSAPIFile), deps.resolve)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if updateDNS {
			log.Error("No DNS API definitions found in %s", cfg.Path(cfg.DNSAPIFile))
			updateDNS = false
		}
		apis = map[string][]string{datafile.NullAPI: nil}
	}

	domains, err := datafile.LoadDomains(cfg.Path(cfg.DomainFile))
	if err != nil {
		return err
	}

	gen := &keygen.Generator{
		Dir:     cfg.WorkingDir,
		Command: cfg.KeyGenCommand,
		Bits:    cfg.KeyBits,
		Exec:    deps.exec,
		Log:     log,
	}
	keys := make(map[string]*keygen.Key)
	for _, name := range datafile.KeyNames(domains) {
		log.Info("Generating key %s", name)
		key, err := gen.Generate(ctx, name, selector, opts.avoidOverwrite)
		if err != nil {
			return err
		}
		keys[name] = key
	}

	prior := datafile.LoadKeyTable(cfg.Path("key.table"))

	m := metrics.New()
	m.KeysGenerated(len(keys))

	failed := map[string]bool{}
	if updateDNS {
		history, err := datafile.LoadHistory(cfg.Path(cfg.HistoryFile))
		if err != nil {
			return err
		}

		registry := dnsapi.NewRegistry(log, dnsapi.Options{
			Timeout: cfg.ProviderTimeout(),
			Debug:   opts.debug,
		})
		updater := &update.Updater{
			Registry:  registry,
			APIs:      apis,
			Log:       log,
			Retention: cfg.Retention(),
			Cleanup:   !opts.noCleanup,
			ForceNull: opts.useNull,
			Timeout:   cfg.ProviderTimeout(),
			Now:       deps.now,
		}

		log.Info("Updating DNS records")
		result := updater.Run(ctx, domains, keys, history)
		failed = result.Failed

		if err := datafile.SaveHistory(cfg.Path(cfg.HistoryFile), result.History); err != nil {
			return err
		}
		if !opts.noCleanup {
			cleaner := &signing.Cleaner{Dir: cfg.WorkingDir, Log: log}
			cleaner.Run(domains, result.History, failed)
		}
		m.RecordsPruned(result.Pruned)
	}

	log.Info("Generating key and signing tables")
	writer := &signing.TableWriter{OpenDKIMDir: cfg.OpenDKIMDir, Log: log}
	if err := writer.Write(cfg.Path("key.table"), cfg.Path("signing.table"), domains, keys, failed, prior); err != nil {
		return err
	}

	if updateDNS {
		for _, entry := range domains {
			if !failed[entry.Domain] {
				m.DomainUpdated()
			}
		}
		m.DomainsFailed(len(failed))
	}
	m.RunCompleted(deps.now())
	if cfg.MetricsFile != "" {
		if err := m.WriteFile(cfg.MetricsFile); err != nil {
			log.Warn("Could not write metrics file %s: %v", cfg.MetricsFile, err)
		}
	}
	return nil
}
