package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [employee-id]",
	Short: "Show monthly statistics of an employee, or the tenant's daily overview",
	Long: `With an employee id, print that employee's monthly attendance statistics.
Without one, print the tenant's overview of --date.

Examples:
  facetrace stats EMP001 --tenant acme --year 2026 --month 3
  facetrace stats --tenant acme --date 2026-03-02`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Int("year", 0, "Year (defaults to the current year)")
	statsCmd.Flags().Int("month", 0, "Month 1-12 (defaults to the current month)")
	statsCmd.Flags().String("date", "", "Date of the daily overview (defaults to today)")
}

func runStats(cmd *cobra.Command, args []string) error {
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

	if len(args) == 0 {
		date := mustGetString(cmd, "date")
		if date == "" {
			date = a.service.Today()
		}
		o, err := a.service.DailyOverview(ctx, tenant, date)
		if err != nil {
			return err
		}
		fmt.Printf("Date:             %s\n", o.Date)
		fmt.Printf("Active employees: %d\n", o.TotalEmployees)
		fmt.Printf("Present:          %d\n", o.Present)
		fmt.Printf("Absent:           %d\n", o.Absent)
		fmt.Printf("Late:             %d\n", o.Late)
		fmt.Printf("Early departures: %d\n", o.EarlyDepartures)
		return nil
	}

	now := time.Now().In(a.service.Policy().Location)
	year := mustGetInt(cmd, "year")
	if year == 0 {
		year = now.Year()
	}
	month := mustGetInt(cmd, "month")
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("invalid --month %d", month)
	}

	s, err := a.service.MonthlyStats(ctx, tenant, args[0], year, time.Month(month))
	if err != nil {
		return err
	}
	fmt.Printf("Employee:         %s\n", s.EmployeeID)
	fmt.Printf("Month:            %s %d\n", s.Month, s.Year)
	fmt.Printf("Days recorded:    %d\n", s.TotalDays)
	fmt.Printf("Present:          %d\n", s.PresentDays)
	fmt.Printf("Absent:           %d\n", s.AbsentDays)
	fmt.Printf("Late:             %d\n", s.LateDays)
	fmt.Printf("Early departures: %d\n", s.EarlyDepartures)
	fmt.Printf("Attendance:       %s%%\n", s.AttendancePercentage.StringFixed(2))
	fmt.Printf("Average hours:    %s\n", s.AverageHours.StringFixed(2))
	return nil
}
