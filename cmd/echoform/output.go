package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/soaringjerry/Echoform/internal/services"
)

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printViews(views []services.ResponseView) error {
	if a.asJSON {
		if views == nil {
			views = []services.ResponseView{}
		}
		return a.printJSON(views)
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSURVEY\tCUSTOMER\tANSWERS\tPOINTS\tSTATUS\tCREATED")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			v.ID, v.Survey.Title, customerCell(v.Customer), len(v.Answers),
			v.RewardPoints, v.PointsStatus(), dateCell(v.CreatedAt))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d responses\n", len(views))
	return nil
}

// printAnswers lists every answer of every view, one per line.
func (a *app) printAnswers(views []services.ResponseView) error {
	if a.asJSON {
		return a.printViews(views)
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RESPONSE\tSURVEY\tQUESTION\tANSWER")
	for _, v := range views {
		for _, ans := range v.Answers {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, v.Survey.Title, ans.QuestionText, services.FormatAnswerValue(ans.Value))
		}
	}
	return tw.Flush()
}

func (a *app) printRewards(d *services.RewardsDashboard) error {
	if a.asJSON {
		return a.printJSON(d)
	}
	s := d.Summary
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tRESPONSES\tPOINTS")
	fmt.Fprintf(tw, "pending\t%d\t%d\n", s.Pending, s.PointsPending)
	fmt.Fprintf(tw, "approved\t%d\t%d\n", s.Approved, s.PointsApproved)
	fmt.Fprintf(tw, "rejected\t%d\t%d\n", s.Rejected, s.PointsRejected)
	fmt.Fprintf(tw, "total\t%d\t%d\n", s.Total, s.PointsPending+s.PointsApproved+s.PointsRejected)
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(a.out)
	return a.printViews(d.Responses)
}

func (a *app) printAnalytics(s *services.AnalyticsSummary) error {
	if a.asJSON {
		return a.printJSON(s)
	}
	fmt.Fprintf(a.out, "Business %s: %d responses from %d customers\n\n", s.BusinessID, s.TotalResponses, s.UniqueCustomers)
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SURVEY\tRESPONSES\tRATED QUESTIONS\tCONSISTENCY\tN")
	for _, sv := range s.Surveys {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%d\n", sv.Title, sv.Responses, len(sv.Questions), sv.Consistency, sv.N)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(s.Timeseries) > 0 {
		fmt.Fprintln(a.out)
		tw = tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DAY\tRESPONSES")
		for _, p := range s.Timeseries {
			fmt.Fprintf(tw, "%s\t%d\n", p.Date, p.Count)
		}
		return tw.Flush()
	}
	return nil
}

func customerCell(c services.CustomerInfo) string {
	if c.Email == "" {
		return c.Name
	}
	return c.Name + " (" + c.Email + ")"
}

func dateCell(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}
