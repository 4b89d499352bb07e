package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Echoform/internal/services"
)

type rewardWrite func(ctx context.Context, r *services.RewardsService, businessID string) ([]services.ResponseView, error)

// runWrite applies a reward write and prints the refreshed list.
func (a *app) runWrite(cmd *cobra.Command, business, done string, write rewardWrite) error {
	return a.withSession(cmd.Context(), func(ctx context.Context, c *call) error {
		bid, _ := c.businessID(business)
		views, err := write(ctx, c.rewards(a), bid)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), done)
		if bid == "" {
			return nil
		}
		return a.printViews(views)
	})
}

func (a *app) approveCmd() *cobra.Command {
	var business string
	var points int
	cmd := &cobra.Command{
		Use:   "approve <response-id>",
		Short: "Approve the reward points of a response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWrite(cmd, business, "Points approved", func(ctx context.Context, r *services.RewardsService, bid string) ([]services.ResponseView, error) {
				return r.Approve(ctx, bid, args[0], points)
			})
		},
	}
	cmd.Flags().StringVarP(&business, "business", "b", "", "business id (default from session)")
	cmd.Flags().IntVar(&points, "points", 0, "points to grant")
	return cmd
}

func (a *app) rejectCmd() *cobra.Command {
	var business string
	cmd := &cobra.Command{
		Use:   "reject <response-id>",
		Short: "Reject the reward points of a response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWrite(cmd, business, "Points rejected", func(ctx context.Context, r *services.RewardsService, bid string) ([]services.ResponseView, error) {
				return r.Reject(ctx, bid, args[0])
			})
		},
	}
	cmd.Flags().StringVarP(&business, "business", "b", "", "business id (default from session)")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	var business string
	cmd := &cobra.Command{
		Use:   "delete <response-id>",
		Short: "Delete a response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWrite(cmd, business, "Response deleted", func(ctx context.Context, r *services.RewardsService, bid string) ([]services.ResponseView, error) {
				return r.Delete(ctx, bid, args[0])
			})
		},
	}
	cmd.Flags().StringVarP(&business, "business", "b", "", "business id (default from session)")
	return cmd
}

func (a *app) pointsCmd() *cobra.Command {
	var business string
	cmd := &cobra.Command{
		Use:   "points <add|subtract> <customer> <amount>",
		Short: "Adjust a customer's point balance",
		Long:  "customer is whatever the backend accepts as identifier: an id, email or phone number.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := services.ParsePointsOperation(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("amount must be a whole number: %q", args[2])
			}
			return a.runWrite(cmd, business, "Points updated", func(ctx context.Context, r *services.RewardsService, bid string) ([]services.ResponseView, error) {
				return r.AdjustCustomerPoints(ctx, bid, args[1], amount, op)
			})
		},
	}
	cmd.Flags().StringVarP(&business, "business", "b", "", "business id (default from session)")
	return cmd
}
