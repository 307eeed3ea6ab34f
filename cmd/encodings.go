package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Pinkesh2905/FaceTrace/internal/encodings"
	"github.com/Pinkesh2905/FaceTrace/internal/registration"
)

var encodingsCmd = &cobra.Command{
	Use:   "encodings",
	Short: "Manage registered face encodings",
}

var encodingsRegisterCmd = &cobra.Command{
	Use:   "register <employee-id> <image>",
	Short: "Register an employee's face from a photo",
	Long: `Extract the single face of a photo and store it as the employee's encoding.
The photo must contain exactly one face.`,
	Args: cobra.ExactArgs(2),
	RunE: runEncodingsRegister,
}

var encodingsImportCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Register faces from a directory of photos",
	Long: `Register every photo of a directory. Each file must be named after the
employee it shows, e.g. EMP001.jpg. Photos without exactly one face are
reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runEncodingsImport,
}

var encodingsDeleteCmd = &cobra.Command{
	Use:   "delete <employee-id>",
	Short: "Delete an employee's encoding and clear the registration flag",
	Args:  cobra.ExactArgs(1),
	RunE:  runEncodingsDelete,
}

var encodingsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Load known encodings and print per-tenant counts",
	Long: `Load the known encodings of one tenant (or all tenants without --tenant)
the same way the server does and report what would be matched against.`,
	Args: cobra.NoArgs,
	RunE: runEncodingsRefresh,
}

func init() {
	rootCmd.AddCommand(encodingsCmd)
	encodingsCmd.AddCommand(encodingsRegisterCmd)
	encodingsCmd.AddCommand(encodingsImportCmd)
	encodingsCmd.AddCommand(encodingsDeleteCmd)
	encodingsCmd.AddCommand(encodingsRefreshCmd)

	encodingsImportCmd.Flags().Bool("dry-run", false, "List the photos that would be registered without registering them")
}

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

func runEncodingsRegister(cmd *cobra.Command, args []string) error {
	tenant, err := requireTenantFlag()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	emp, err := a.registrar.Register(cmd.Context(), tenant, args[0], data)
	if err != nil {
		return err
	}
	fmt.Printf("Registered face of %s (%s)\n", emp.FullName(), emp.EmployeeID)
	return nil
}

// importFile is one photo of the import directory.
type importFile struct {
	path       string
	employeeID string
}

func collectImportFiles(dir string) ([]importFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var files []importFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !imageExtensions[ext] {
			continue
		}
		files = append(files, importFile{
			path:       filepath.Join(dir, e.Name()),
			employeeID: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
		})
	}
	return files, nil
}

func runEncodingsImport(cmd *cobra.Command, args []string) error {
	tenant, err := requireTenantFlag()
	if err != nil {
		return err
	}
	files, err := collectImportFiles(args[0])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No photos found")
		return nil
	}

	if mustGetBool(cmd, "dry-run") {
		for _, f := range files {
			fmt.Printf("%s -> %s\n", f.path, f.employeeID)
		}
		fmt.Printf("\n%d photos would be registered\n", len(files))
		return nil
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Registering faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var registered int
	var failures []string
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		err := importOne(cmd, a, tenant, f)
		bar.Add(1)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(f.path), err))
			continue
		}
		registered++
	}
	bar.Finish()

	fmt.Printf("\nRegistered: %d, failed: %d\n", registered, len(failures))
	for _, f := range failures {
		fmt.Printf("  %s\n", f)
	}
	return nil
}

func importOne(cmd *cobra.Command, a *app, tenant string, f importFile) error {
	if err := encodings.ValidateKey(tenant, f.employeeID); err != nil {
		return err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	_, err = a.registrar.Register(cmd.Context(), tenant, f.employeeID, data)
	if err != nil && !registration.IsRegistrationError(err) {
		a.logger.Warn("registration failed", "employee", f.employeeID, "error", err)
	}
	return err
}

func runEncodingsDelete(cmd *cobra.Command, args []string) error {
	tenant, err := requireTenantFlag()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.registrar.Unregister(cmd.Context(), tenant, args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted encoding of %s\n", args[0])
	return nil
}

func runEncodingsRefresh(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.cache.Refresh(cmd.Context(), tenantID); err != nil {
		return err
	}
	tenants := a.cache.Tenants()
	if len(tenants) == 0 {
		return errors.New("no recognizable employees found")
	}
	for _, t := range tenants {
		s := a.cache.Get(t)
		index := ""
		if s.Indexed() {
			index = " (hnsw)"
		}
		fmt.Printf("%-20s %6d encodings%s\n", t, s.Len(), index)
	}
	fmt.Printf("\nTotal: %d\n", a.cache.Size())
	return nil
}
