package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Pinkesh2905/FaceTrace/internal/attendance"
	"github.com/Pinkesh2905/FaceTrace/internal/database"
)

var punchCmd = &cobra.Command{
	Use:   "punch <employee-id>",
	Short: "Record a manual punch",
	Long: `Record a manual punch for an employee. The punch type alternates with the
employee's previous punch of the day. Manual punches skip the confidence check.

Examples:
  facetrace punch EMP001 --tenant acme --notes "forgot badge"
  facetrace punch EMP001 --tenant acme --at 2026-03-02T09:05:00+05:30`,
	Args: cobra.ExactArgs(1),
	RunE: runPunch,
}

func init() {
	rootCmd.AddCommand(punchCmd)

	punchCmd.Flags().String("at", "", "Punch time in RFC 3339 (defaults to now)")
	punchCmd.Flags().String("notes", "", "Notes stored with the punch")
}

func runPunch(cmd *cobra.Command, args []string) error {
	tenant, err := requireTenantFlag()
	if err != nil {
		return err
	}
	var at time.Time
	if s := mustGetString(cmd, "at"); s != "" {
		at, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	emp, err := a.employees.GetEmployee(ctx, tenant, args[0])
	if err != nil {
		return err
	}
	if emp == nil {
		return fmt.Errorf("%w: %s", database.ErrEmployeeNotFound, args[0])
	}

	punch, err := a.service.MarkAttendance(ctx, attendance.Observation{
		Employee:   *emp,
		Confidence: 100,
		Timestamp:  at,
		Manual:     true,
		Notes:      mustGetString(cmd, "notes"),
	})
	if err != nil {
		if attendance.IsRejection(err) {
			fmt.Printf("Punch rejected: %s\n", attendance.RejectionReason(err))
			return nil
		}
		return err
	}

	loc := a.service.Policy().Location
	fmt.Printf("%s punched %s at %s\n", emp.FullName(), punch.Type, punch.Timestamp.In(loc).Format("2006-01-02 15:04:05"))
	return nil
}
