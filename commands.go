package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	zoo "github.com/km-arc/go-boot/app"
	"github.com/km-arc/go-boot/framework/app"
	"github.com/km-arc/go-boot/framework/config"
)

type rootFlags struct {
	envFiles []string
	manifest string
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "goboot",
		Short:         "Run and inspect the zoo application container",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&f.envFiles, "env", nil, "env files to load (default .env)")
	root.PersistentFlags().StringVar(&f.manifest, "manifest", "", "comma separated manifest files, overrides BOOT_MANIFEST")

	root.AddCommand(newServeCmd(f), newDescribeCmd(f), newVersionCmd())
	return root
}

func (f *rootFlags) load() *config.Config {
	cfg := config.Load(f.envFiles...)
	if f.manifest != "" {
		cfg.Manifest.Path = f.manifest
	}
	return cfg
}

func newServeCmd(f *rootFlags) *cobra.Command {
	var inspectAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Boot the application and block until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := f.load()
			if inspectAddr != "" {
				cfg.Inspect.Addr = inspectAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := zoo.Bootstrap(ctx, cfg)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&inspectAddr, "inspect", "", "inspect server address, overrides INSPECT_ADDR")
	return cmd
}

func newDescribeCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [identifier]",
		Short: "Print bound definitions as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := zoo.Bootstrap(ctx, f.load())
			if err != nil {
				return err
			}
			defer a.Stop(ctx)

			var out any = a.Definitions()
			if len(args) == 1 {
				info, ok := a.Describe(args[0])
				if !ok {
					return fmt.Errorf("%s is not bound", args[0])
				}
				out = info
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "goboot", app.Version)
		},
	}
}
