package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"phptdd/config"
	"phptdd/internal/adapter/analyzer"
	"phptdd/internal/adapter/cache"
	"phptdd/internal/adapter/tokendump"
	"phptdd/internal/usecase"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "phptdd",
	Short: "Locate testable PHP entities and drive their unit tests",
	Long: `phptdd reads PHP token dumps (the JSON output of token_get_all) and finds
the classes, methods and functions they declare, the entity enclosing any line,
and the unit test each entity is bound to through @testFunction annotations.

Example usage:
  phptdd entities src/Cart.tokens.json   # List declared entities
  phptdd at src/Cart.tokens.json 42      # Entity enclosing line 42
  phptdd index .                         # Index every dump in the workspace
  phptdd watch .                         # Auto-run bound tests on change`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		var logFile *string
		if cfg.Logging.File != "" {
			logFile = &cfg.Logging.File
		}
		commonlog.Configure(cfg.Logging.Verbosity(), logFile)

		if noColor {
			disableColor()
		}
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./phptdd.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "workspace directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// newSource reads token dumps through a cache sized from config.
func newSource() (*tokendump.FileSource, error) {
	tc, err := cache.NewTokenCache(GetConfig().Cache.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cache: %w", err)
	}
	return tokendump.NewFileSource(tc), nil
}

func newLocate() (*usecase.LocateUseCase, error) {
	source, err := newSource()
	if err != nil {
		return nil, err
	}
	return usecase.NewLocateUseCase(source, analyzer.NewEntityParser()), nil
}
