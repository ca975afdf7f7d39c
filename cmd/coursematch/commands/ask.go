package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/coursematch/internal/logging"
)

// NewAskCmd constructs the `coursematch ask` command, which answers a single
// question and prints the recommendation to stdout.
func NewAskCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask for course recommendations",
		Long: `Answer one student question with course recommendations from the index.

The index must have been built with 'coursematch index'.

Examples:
  coursematch ask "AI 관련 강의 추천해줘"
  coursematch ask --json "월요일 오전에 듣는 전공선택 과목"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			rec, cleanup, err := buildRecommender(ctx, log, nil)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer cleanup()

			resp, err := rec.service.Recommend(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp) //nolint:wrapcheck // CLI entry point
			}

			fmt.Fprintln(out, resp.Answer)
			if len(resp.Sources) > 0 {
				fmt.Fprintln(out, "\n참고한 강의:")
				for i, s := range resp.Sources {
					fmt.Fprintf(out, "  %d. %s (%s, %s)\n", i+1, s.SubjectName, s.Professor, s.Major)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the answer and sources as JSON")

	return cmd
}
