package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Echoform/internal/services"
)

func (a *app) responsesCmd() *cobra.Command {
	var business, survey string
	var answers bool
	cmd := &cobra.Command{
		Use:   "responses",
		Short: "List standardized responses of the business",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd.Context(), func(ctx context.Context, c *call) error {
				bid, err := c.businessID(business)
				if err != nil {
					return err
				}
				var views []services.ResponseView
				if survey != "" {
					views, err = c.responses.ListSurveyResponses(ctx, bid, survey)
				} else {
					views, err = c.responses.ListBusinessResponses(ctx, bid)
				}
				if err != nil {
					return err
				}
				if answers {
					return a.printAnswers(views)
				}
				return a.printViews(views)
			})
		},
	}
	cmd.Flags().StringVarP(&business, "business", "b", "", "business id (default from session)")
	cmd.Flags().StringVarP(&survey, "survey", "s", "", "only responses of this survey")
	cmd.Flags().BoolVarP(&answers, "answers", "a", false, "list individual answers")
	return cmd
}

func (a *app) customerCmd() *cobra.Command {
	var business string
	cmd := &cobra.Command{
		Use:   "customer <customer-id>",
		Short: "List the responses of one customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(ctx context.Context, c *call) error {
				bid, err := c.businessID(business)
				if err != nil {
					return err
				}
				views, err := c.responses.ListCustomerResponses(ctx, bid, args[0])
				if err != nil {
					return err
				}
				return a.printViews(views)
			})
		},
	}
	cmd.Flags().StringVarP(&business, "business", "b", "", "business id (default from session)")
	return cmd
}

func (a *app) rewardsCmd() *cobra.Command {
	var business string
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Show reward points by approval state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd.Context(), func(ctx context.Context, c *call) error {
				bid, err := c.businessID(business)
				if err != nil {
					return err
				}
				d, err := c.rewards(a).Dashboard(ctx, bid)
				if err != nil {
					return err
				}
				return a.printRewards(d)
			})
		},
	}
	cmd.Flags().StringVarP(&business, "business", "b", "", "business id (default from session)")
	return cmd
}

func (a *app) analyticsCmd() *cobra.Command {
	var business string
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Summarize responses per survey and per day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd.Context(), func(ctx context.Context, c *call) error {
				bid, err := c.businessID(business)
				if err != nil {
					return err
				}
				sum, err := services.NewAnalyticsService(c.responses).Summary(ctx, bid)
				if err != nil {
					return err
				}
				return a.printAnalytics(sum)
			})
		},
	}
	cmd.Flags().StringVarP(&business, "business", "b", "", "business id (default from session)")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var business, survey, format, outDir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export responses as CSV or PDF",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd.Context(), func(ctx context.Context, c *call) error {
				bid, err := c.businessID(business)
				if err != nil {
					return err
				}
				res, err := services.NewExportService(c.responses).Export(ctx, services.ExportParams{
					BusinessID: bid,
					SurveyID:   survey,
					Format:     format,
				})
				if err != nil {
					return err
				}
				if outDir == "-" {
					_, err := a.out.Write(res.Data)
					return err
				}
				path := filepath.Join(outDir, res.Filename)
				if err := os.WriteFile(path, res.Data, 0o600); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(a.out, "Wrote %s (%d bytes)\n", path, len(res.Data))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&business, "business", "b", "", "business id (default from session)")
	cmd.Flags().StringVarP(&survey, "survey", "s", "", "only responses of this survey")
	cmd.Flags().StringVarP(&format, "format", "f", string(services.ExportResponses), "responses, answers or pdf")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory, - for stdout")
	return cmd
}
