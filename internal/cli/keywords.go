package cli

import (
	"fmt"
	"strings"

	"jobscout/internal/common"
	"jobscout/internal/errors"
	"jobscout/internal/types"

	"github.com/spf13/cobra"
)

func newKeywordsCmd() *cobra.Command {
	var (
		out   common.CommandConfig
		limit int
	)

	cmd := &cobra.Command{
		Use:   "keywords [text|-]",
		Short: "Extract search keywords from text",
		Long: `Extract the top search keywords from a summary or any other text.
Reads standard input when the argument is "-" or missing.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			rt := getRuntime(cmd.Context())
			if cmd.Flags().Changed("limit") {
				if limit < 1 {
					return errors.NewValidationError(errors.ErrCodeInvalidRequest,
						fmt.Sprintf("--limit must be at least 1, got %d", limit), nil)
				}
				rt.cfg.Analysis.KeywordLimit = limit
			}
			return resolveOutput(rt.cfg, &out)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := getRuntime(cmd.Context())

			text := common.StdinName
			if len(args) == 1 {
				text = args[0]
			}
			if text == common.StdinName {
				read, err := common.NewFileProcessor(rt.logger).
					WithStdin(cmd.InOrStdin()).
					ReadText(common.StdinName, rt.cfg.Extract.MaxFileSize)
				if err != nil {
					return err
				}
				text = strings.TrimSpace(read)
			}

			services, err := newServices(rt)
			if err != nil {
				return err
			}
			defer closeServices(services, rt.logger)

			result := types.KeywordsOutput{Keywords: services.Keywords(text)}
			return common.NewOutputHandlerTo(cmd.OutOrStdout(), rt.logger).HandleOutput(result, out)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 12, "Maximum number of keywords")
	addOutputFlags(cmd, &out)
	return cmd
}
