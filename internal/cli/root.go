package cli

import (
	"context"
	"fmt"

	"jobscout/internal/common"
	"jobscout/internal/config"
	"jobscout/internal/errors"

	"github.com/spf13/cobra"
)

type runtimeKeyType struct{}

var runtimeKey = runtimeKeyType{}

// runtime is what PersistentPreRunE prepares for every subcommand.
type runtime struct {
	cfg    *config.Config
	logger *errors.Logger
}

// skipConfigAnnotation marks commands that run without loading configuration.
const skipConfigAnnotation = "skip-config"

var configFile string

// loadConfig is swapped in tests.
var loadConfig = config.LoadConfig

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobscout",
		Short: "Analyze resumes and find matching remote jobs",
		Long: `jobscout derives a profile from a resume (summary, skill gaps and a
learning roadmap), extracts search keywords from it and queries several job
listing sources for matching postings. It runs as a CLI or as an HTTP API.`,
		SilenceUsage:      true,
		PersistentPreRunE: prepareRuntime,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./config.yaml, $HOME/.jobscout, /etc/jobscout)")

	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newKeywordsCmd())
	cmd.AddCommand(newJobsCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSecretsCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the root command. Configuration is loaded lazily so that
// --config is honored and version works without a config file.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func prepareRuntime(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipConfigAnnotation] == "true" {
		return nil
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := config.ResolveSecrets(cfg, logger); err != nil {
		return fmt.Errorf("failed to resolve secrets: %w", err)
	}

	logger.Debug("Starting jobscout",
		"version", Version,
		"command", cmd.Name(),
		"log_level", cfg.App.LogLevel,
		"ai_provider", cfg.AI.Provider,
		"provider_enabled", cfg.AI.ProviderEnabled())

	cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey, &runtime{cfg: cfg, logger: logger}))
	return nil
}

func getRuntime(ctx context.Context) *runtime {
	if rt, ok := ctx.Value(runtimeKey).(*runtime); ok {
		return rt
	}
	panic("runtime not found in context") // PersistentPreRunE always sets it
}

// addOutputFlags registers --format and -o on cmd.
func addOutputFlags(cmd *cobra.Command, out *common.CommandConfig) {
	cmd.Flags().StringVarP(&out.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&out.OutputFormat, "format", "", "Output format: json, yaml, text or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return common.NewOutputHandler(nil).GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveOutput applies the configured default format and validates it.
func resolveOutput(cfg *config.Config, out *common.CommandConfig) error {
	if out.OutputFormat == "" {
		out.OutputFormat = cfg.App.DefaultFormat
	}
	return common.ValidateOutputFormat(out.OutputFormat, cfg.App.SupportedFormats)
}

// newServices builds the shared pipeline for one CLI invocation.
func newServices(rt *runtime) (*common.Services, error) {
	services, err := common.NewServices(rt.cfg, nil, rt.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return services, nil
}

func closeServices(services *common.Services, logger *errors.Logger) {
	if err := services.Close(); err != nil {
		logger.LogWarnError(err, "Failed to close services")
	}
}
