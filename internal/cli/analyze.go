package cli

import (
	"jobscout/internal/common"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var out common.CommandConfig

	cmd := &cobra.Command{
		Use:   "analyze <resume-file|s3://bucket/key>",
		Short: "Analyze a resume",
		Long: `Analyze a resume and print its summary, skill gaps and learning roadmap.

The resume may be a local file or an S3 object. When a generative provider is
configured the analysis is generated by the model, otherwise a keyword
heuristic is used.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return resolveOutput(getRuntime(cmd.Context()).cfg, &out)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := getRuntime(cmd.Context())
			services, err := newServices(rt)
			if err != nil {
				return err
			}
			defer closeServices(services, rt.logger)

			doc, err := services.Loader.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rt.logger.Info("Starting resume analysis",
				"resume", doc.Name,
				"size", len(doc.Data),
				"output_format", out.OutputFormat)

			report, err := services.AnalyzeDocument(cmd.Context(), doc.Name, doc.Data)
			if err != nil {
				return err
			}
			return common.NewOutputHandlerTo(cmd.OutOrStdout(), rt.logger).HandleOutput(report, out)
		},
	}
	addOutputFlags(cmd, &out)
	return cmd
}
