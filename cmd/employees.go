package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pinkesh2905/FaceTrace/internal/database"
	"github.com/Pinkesh2905/FaceTrace/internal/database/postgres"
	"github.com/Pinkesh2905/FaceTrace/internal/encodings"
)

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "Look up and maintain employees of the attendance database",
}

var employeesSearchCmd = &cobra.Command{
	Use:   "search <name>",
	Short: "Find employees by name (accents and case are ignored)",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmployeesSearch,
}

var employeesAddCmd = &cobra.Command{
	Use:   "add <employee-id>",
	Short: "Create or update an employee in the PostgreSQL employee table",
	Long: `Create or update an employee in the PostgreSQL employee table. Deployments
that read employees from the HR database (HR_DATABASE_DSN) manage them there.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmployeesAdd,
}

func init() {
	rootCmd.AddCommand(employeesCmd)
	employeesCmd.AddCommand(employeesSearchCmd)
	employeesCmd.AddCommand(employeesAddCmd)

	employeesAddCmd.Flags().String("first-name", "", "First name")
	employeesAddCmd.Flags().String("last-name", "", "Last name")
	employeesAddCmd.Flags().String("status", string(database.StatusActive), "Status: active, inactive or suspended")
}

func runEmployeesSearch(cmd *cobra.Command, args []string) error {
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

	found, err := a.employees.SearchByName(ctx, tenant, args[0])
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Println("No employees found")
		return nil
	}
	for _, e := range found {
		face := "no face"
		if e.FaceRegistered {
			face = "face registered"
		}
		fmt.Printf("%-12s %-30s %-10s %s\n", e.EmployeeID, e.FullName(), e.Status, face)
	}
	return nil
}

func runEmployeesAdd(cmd *cobra.Command, args []string) error {
	tenant, err := requireTenantFlag()
	if err != nil {
		return err
	}
	if err := encodings.ValidateKey(tenant, args[0]); err != nil {
		return err
	}
	status := database.EmployeeStatus(mustGetString(cmd, "status"))
	switch status {
	case database.StatusActive, database.StatusInactive, database.StatusSuspended:
	default:
		return fmt.Errorf("invalid --status %q", status)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	pool := postgres.GetGlobalPool()
	if pool == nil {
		return errors.New("employees add requires BACKEND=postgres")
	}
	repo := postgres.NewEmployeeRepository(pool)

	emp := database.Employee{
		TenantID:   tenant,
		EmployeeID: args[0],
		FirstName:  mustGetString(cmd, "first-name"),
		LastName:   mustGetString(cmd, "last-name"),
		Status:     status,
	}
	if existing, err := repo.GetEmployee(ctx, tenant, args[0]); err != nil {
		return err
	} else if existing != nil {
		emp.FaceRegistered = existing.FaceRegistered
		emp.EncodingRef = existing.EncodingRef
	}
	if err := repo.Upsert(ctx, emp); err != nil {
		return err
	}
	fmt.Printf("Saved %s (%s)\n", emp.FullName(), emp.EmployeeID)
	return nil
}
