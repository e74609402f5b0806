package main

import (
	"fmt"

	"github.com/jzx17/gopool/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cliOptions is shared by all subcommands
type cliOptions struct {
	cfgFile string
	viper   *viper.Viper
	cfg     config.Config
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "poolstress",
		Short:         "Exercise a fixed-size worker pool with a bounded queue",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.viper, opts.cfgFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config-file", "", "YAML config file.")
	v, err := config.BindFlags(rootCmd.PersistentFlags())
	if err != nil {
		// flag registration is static; a failure here is a programming error
		panic(fmt.Errorf("error while binding flags: %w", err))
	}
	opts.viper = v

	rootCmd.AddCommand(newRunCmd(opts), newConfigCmd(opts))
	return rootCmd
}

func newConfigCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := opts.cfg.YAML()
			if err != nil {
				return fmt.Errorf("error while rendering config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
