package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kozaktomas/facerecognx/internal/config"
	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/database"
	"github.com/spf13/cobra"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Inspect attendance records",
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance for a day",
	Long: `List every student marked present on a day, with their section.

Examples:
  facerecognx attendance list
  facerecognx attendance list --date 2026-09-14`,
	RunE: runAttendanceList,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceListCmd)

	attendanceListCmd.Flags().String("date", "", "Day in YYYY-MM-DD format (default today in APP_TIMEZONE)")
}

func runAttendanceList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	date := mustGetString(cmd, "date")
	if date == "" {
		date = time.Now().In(cfg.Location()).Format(constants.DateLayout)
	} else {
		parsed, err := database.ParseDate(date)
		if err != nil {
			return err
		}
		date = parsed
	}

	store, _, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Shutdown()

	records, err := store.Attendance.ListByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to list attendance: %w", err)
	}
	if len(records) == 0 {
		fmt.Printf("No attendance recorded on %s\n", date)
		return nil
	}

	students, err := store.Students.ListStudents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list students: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STUDENT ID\tNAME\tSECTION\tTIME\tMARKED BY")
	for _, a := range database.JoinSections(records, students) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.StudentID, a.Name, a.Section, a.Time, a.MarkedBy)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d present on %s\n", len(records), date)
	return nil
}
