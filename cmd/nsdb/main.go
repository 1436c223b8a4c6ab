// Command nsdb browses the nitrogenase structure catalog from the terminal and
// serves it over HTTP.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brunocuevas/nsdb/internal/config"
	"github.com/brunocuevas/nsdb/internal/core"
	"github.com/brunocuevas/nsdb/internal/logging"
)

var exitFunc = os.Exit

func main() {
	exitFunc(cli(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root, err := newRootCommand(stdout, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "nsdb: %v\n", err)
		return 2
	}
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "nsdb: %v\n", err)
		return 1
	}
	return 0
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v        *viper.Viper
	cfgFile  string
	settings *config.Settings
	logger   *slog.Logger
	stdout   io.Writer
	stderr   io.Writer
}

func newRootCommand(stdout, stderr io.Writer) (*cobra.Command, error) {
	v, err := config.New()
	if err != nil {
		return nil, err
	}
	a := &app{v: v, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "nsdb",
		Short:         "Nitrogenase structure catalog browser",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.initialize()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: nsdb.yaml in ., $HOME/.config/nsdb or /etc/nsdb)")
	flags.String("log-level", v.GetString("log.level"), "log level: debug|info|warn|error")
	flags.String("log-format", v.GetString("log.format"), "log format: text|json")
	flags.String("catalog-driver", v.GetString("catalog.driver"), "catalog backend: memory|sqlite|postgres")
	flags.String("structures-driver", v.GetString("structures.driver"), "structure store: s3|fs|memory")
	for key, flag := range map[string]string{
		"log.level":         "log-level",
		"log.format":        "log-format",
		"catalog.driver":    "catalog-driver",
		"structures.driver": "structures-driver",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}

	root.AddCommand(
		newServeCommand(a),
		newSearchCommand(a),
		newShowCommand(a),
		newStructureCommand(a),
		newStructuresCommand(a),
		newTreeCommand(a),
	)
	return root, nil
}

// initialize resolves settings and the base logger after flag parsing.
func (a *app) initialize() error {
	s, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(a.stderr, s.Log.Level, s.Log.Format)
	if err != nil {
		return err
	}
	a.settings = s
	a.logger = logger
	return nil
}

// browser opens the catalog, tree and structure store.
func (a *app) browser(ctx context.Context, opts ...core.Option) (*core.Browser, error) {
	return core.Bootstrap(ctx, a.settings, a.logger, opts...)
}
