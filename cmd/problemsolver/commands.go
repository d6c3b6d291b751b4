package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/problemsolver/internal/learning"
)

func newSolveCmd(c *cli) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "solve <text>",
		Short: "Analyze a problem and rank solution approaches",
		Long: `Run the full pipeline on a problem description and print the session.

Examples:
  problemsolver solve "Reduce delivery delays within a budget of $5000"
  problemsolver solve --session sess_custom "Forecast next quarter demand"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.solver.SolveProblem(cmd.Context(), strings.Join(args, " "), sessionID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (generated when empty)")
	return cmd
}

func newDetailsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "details <session> <approach>",
		Short: "Print the implementation guide for one approach",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guide, err := c.app.solver.GetSolutionDetails(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), guide)
		},
	}
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print aggregate session statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := c.app.solver.GetStatistics(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func newFeedbackCmd(c *cli) *cobra.Command {
	var fb learning.Feedback

	cmd := &cobra.Command{
		Use:   "feedback <session> <approach>",
		Short: "Record how an approach worked out",
		Long: `Record feedback on an approach. The rating feeds the adaptive pattern
for the problem's domain and type.

Examples:
  problemsolver feedback sess_1234 analytical_prob_0123456789abcdef --rating 0.8 --success
  problemsolver feedback sess_1234 systematic_prob_0123456789abcdef --rating 0.2 --challenge "no budget"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := c.app.solver.RecordFeedback(cmd.Context(), args[0], args[1], fb)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().Float64Var(&fb.Rating, "rating", 0, "rating in [0,1]")
	cmd.Flags().BoolVar(&fb.Success, "success", false, "the approach succeeded")
	cmd.Flags().StringArrayVar(&fb.Challenges, "challenge", nil, "challenge encountered (repeatable)")
	cmd.Flags().StringVar(&fb.Comment, "comment", "", "free-text comment")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}

func newInsightsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "insights <session>",
		Short: "Summarize the feedback recorded for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			insights, err := c.app.solver.Insights(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), insights)
		},
	}
}
