package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Kelvi11/smart-warehouse/pkg/config"
)

var (
	cfgFile  string
	logLevel string
	v        = config.New()
	cfg      *config.Config
	logger   = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "warehouse",
	Short: "Smart warehouse resource API",
	Long:  `warehouse serves inventory items, orders, order items and trucks over a paginated, filterable REST API`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if logger, err = newLogger(logLevel); err != nil {
			return err
		}
		if cmd == cmd.Root() || cmd.Name() == "version" {
			return nil
		}
		if cfg, err = config.LoadFrom(v, cfgFile); err != nil {
			return err
		}
		if used := v.ConfigFileUsed(); used != "" {
			logger.Info("using config file", zap.String("file", used))
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			fmt.Println(config.Version)
			return
		}

		// If no subcommand is provided, print help
		cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.Version)
	},
}

func Main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/warehouse.yaml)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "L", "info", "log at this level (debug, info, warn, error, none)")
	rootCmd.Flags().BoolP("version", "v", false, "Print the version number")

	f := rootCmd.PersistentFlags()
	f.String("storage.driver", "", "storage driver (postgres, memory)")
	f.StringP("storage.connString", "c", "", "PostgreSQL connection string")
	f.String("storage.schema", "", "PostgreSQL schema of the warehouse tables")
	bindFlags(v, f.Lookup("storage.driver"), f.Lookup("storage.connString"), f.Lookup("storage.schema"))

	rootCmd.AddCommand(versionCmd, serveCmd, migrateCmd)
}

// newLogger builds the process logger. debug selects the development
// config; none discards everything.
func newLogger(level string) (*zap.Logger, error) {
	switch strings.ToLower(level) {
	case "none", "off":
		return zap.NewNop(), nil
	case "debug":
		return zap.NewDevelopment()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
