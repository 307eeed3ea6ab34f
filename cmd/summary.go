package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pinkesh2905/FaceTrace/internal/constants"
	"github.com/Pinkesh2905/FaceTrace/internal/database"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show or recompute daily attendance summaries",
}

var summaryShowCmd = &cobra.Command{
	Use:   "show <employee-id> [date]",
	Short: "Show the summary and punches of one day (defaults to today)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSummaryShow,
}

var summaryRecomputeCmd = &cobra.Command{
	Use:   "recompute <employee-id> <date>",
	Short: "Rebuild a day's summary from its punches",
	Args:  cobra.ExactArgs(2),
	RunE:  runSummaryRecompute,
}

var historyCmd = &cobra.Command{
	Use:   "history <employee-id>",
	Short: "List an employee's punches, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.AddCommand(summaryShowCmd)
	summaryCmd.AddCommand(summaryRecomputeCmd)
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().String("from", "", "First date (defaults to 30 days before --to)")
	historyCmd.Flags().String("to", "", "Last date (defaults to today)")
}

func runSummaryShow(cmd *cobra.Command, args []string) error {
	tenant, err := requireTenantFlag()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	date := a.service.Today()
	if len(args) == 2 {
		date = args[1]
	}

	summary, err := a.service.Summary(ctx, tenant, args[0], date)
	if err != nil {
		return err
	}
	if summary == nil {
		fmt.Printf("No attendance for %s on %s\n", args[0], date)
		return nil
	}
	printSummary(summary, a.service.Policy().Location)

	punches, err := a.service.History(ctx, tenant, args[0], date, date)
	if err != nil {
		return err
	}
	if len(punches) > 0 {
		fmt.Println("\nPunches:")
		printPunches(punches, a.service.Policy().Location)
	}
	return nil
}

func runSummaryRecompute(cmd *cobra.Command, args []string) error {
	tenant, err := requireTenantFlag()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.service.Recompute(ctx, tenant, args[0], args[1])
	if err != nil {
		return err
	}
	if summary == nil {
		fmt.Printf("No punches for %s on %s, nothing to recompute\n", args[0], args[1])
		return nil
	}
	fmt.Println("Summary recomputed")
	printSummary(summary, a.service.Policy().Location)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	tenant, err := requireTenantFlag()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	to := mustGetString(cmd, "to")
	if to == "" {
		to = a.service.Today()
	}
	from := mustGetString(cmd, "from")
	if from == "" {
		end, err := time.Parse(database.DateLayout, to)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
		from = end.AddDate(0, 0, -(constants.DefaultHistoryDays - 1)).Format(database.DateLayout)
	}

	punches, err := a.service.History(ctx, tenant, args[0], from, to)
	if err != nil {
		return err
	}
	fmt.Printf("Punches of %s from %s to %s: %d\n", args[0], from, to, len(punches))
	printPunches(punches, a.service.Policy().Location)
	return nil
}

func printSummary(s *database.DailySummary, loc *time.Location) {
	fmt.Printf("Employee:  %s\n", s.EmployeeID)
	fmt.Printf("Date:      %s\n", s.Date)
	fmt.Printf("Check-in:  %s\n", formatClock(s.CheckIn, loc))
	fmt.Printf("Check-out: %s\n", formatClock(s.CheckOut, loc))
	hours := "-"
	if s.TotalHours.Valid {
		hours = s.TotalHours.Decimal.StringFixed(2)
	}
	fmt.Printf("Hours:     %s\n", hours)
	fmt.Printf("Present: %t  Late: %t  Early departure: %t\n", s.IsPresent, s.IsLate, s.IsEarlyDeparture)
}

func printPunches(punches []database.Punch, loc *time.Location) {
	for _, p := range punches {
		source := p.CameraID
		if p.Manual {
			source = "manual"
		}
		fmt.Printf("  %s  %-3s  %5.1f%%  %s\n", p.Timestamp.In(loc).Format("2006-01-02 15:04:05"), p.Type, p.Confidence, source)
	}
}

func formatClock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format("15:04:05")
}
