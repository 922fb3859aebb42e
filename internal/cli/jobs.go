package cli

import (
	"fmt"

	"jobscout/internal/common"
	"jobscout/internal/errors"
	"jobscout/internal/types"

	"github.com/spf13/cobra"
)

func newJobsCmd() *cobra.Command {
	var (
		out        common.CommandConfig
		rows       int
		fromResume string
	)

	cmd := &cobra.Command{
		Use:   "jobs [keywords]",
		Short: "Search job sources",
		Long: `Search every enabled job source for comma separated keywords.

With --from-resume the resume is analyzed first and the keywords of its
summary are used for the search; the output then includes the analysis.`,
		Example: `  jobscout jobs "go, kubernetes" --rows 20
  jobscout jobs --from-resume resume.pdf --format markdown`,
		Args: func(cmd *cobra.Command, args []string) error {
			if fromResume != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			rt := getRuntime(cmd.Context())
			if !cmd.Flags().Changed("rows") {
				rows = rt.cfg.Jobs.DefaultRows
			}
			if rows < 1 || rows > rt.cfg.Jobs.MaxRows {
				return errors.NewValidationError(errors.ErrCodeInvalidRequest,
					fmt.Sprintf("--rows must be between 1 and %d", rt.cfg.Jobs.MaxRows), nil)
			}
			return resolveOutput(rt.cfg, &out)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := getRuntime(cmd.Context())
			services, err := newServices(rt)
			if err != nil {
				return err
			}
			defer closeServices(services, rt.logger)

			output := common.NewOutputHandlerTo(cmd.OutOrStdout(), rt.logger)

			if fromResume != "" {
				rec, err := services.Recommend(cmd.Context(), fromResume, rows)
				if err != nil {
					return err
				}
				rt.logger.Info("Recommendation completed",
					"keywords", rec.Keywords,
					"jobs", len(rec.Jobs))
				return output.HandleOutput(rec, out)
			}

			postings, err := services.SearchJobs(cmd.Context(), args[0], rows)
			if err != nil {
				return fmt.Errorf("job search failed: %w", err)
			}
			if postings == nil {
				postings = []types.JobPosting{}
			}
			return output.HandleOutput(types.JobsOutput{Jobs: postings}, out)
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 60, "Maximum number of jobs to return")
	cmd.Flags().StringVar(&fromResume, "from-resume", "", "Analyze this resume (file or s3:// URI) and search with its keywords")
	addOutputFlags(cmd, &out)
	return cmd
}
