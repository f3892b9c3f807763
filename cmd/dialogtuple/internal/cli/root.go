// Package cli builds the dialogtuple command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/newtuple/dialogtuple/internal/di"
	"github.com/newtuple/dialogtuple/internal/runtimeconfig"
)

// Option customises the command tree, mainly for tests.
type Option func(*app)

// WithViper loads configuration through v.
func WithViper(v *viper.Viper) Option {
	return func(a *app) {
		if v != nil {
			a.viper = v
		}
	}
}

// WithContainerOptions forwards opts to every container the commands build.
func WithContainerOptions(opts ...di.Option) Option {
	return func(a *app) {
		a.containerOpts = append(a.containerOpts, opts...)
	}
}

type app struct {
	viper         *viper.Viper
	configFile    string
	cfg           runtimeconfig.Config
	containerOpts []di.Option
}

// NewRootCommand returns the dialogtuple command with every subcommand
// attached.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{viper: viper.New()}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	root := &cobra.Command{
		Use:           "dialogtuple",
		Short:         "Serve and manage the DialogTuple site backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := runtimeconfig.Load(a.viper, a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "Path to a dialogtuple config file (yaml, json or toml)")
	root.PersistentFlags().String("content-dir", "", "Directory holding blog Markdown files")
	root.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	_ = a.viper.BindPFlag("blog.content_dir", root.PersistentFlags().Lookup("content-dir"))
	_ = a.viper.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		a.serveCommand(),
		a.blogCommand(),
		a.documentsCommand(),
	)
	return root
}

func (a *app) container(ctx context.Context) (*di.Container, error) {
	container, err := di.NewContainer(ctx, a.cfg, a.containerOpts...)
	if err != nil {
		return nil, fmt.Errorf("build container: %w", err)
	}
	return container, nil
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
