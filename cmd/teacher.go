package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/kozaktomas/facerecognx/internal/auth"
	"github.com/kozaktomas/facerecognx/internal/config"
	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/database"
	"github.com/kozaktomas/facerecognx/internal/roster"
	"github.com/spf13/cobra"
)

var teacherCmd = &cobra.Command{
	Use:   "teacher",
	Short: "Manage teacher accounts",
}

var teacherCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a teacher account",
	Long: `Create a teacher account that can log in, enroll students and mark attendance.

Examples:
  facerecognx teacher create --id T001 --name "Jana Nováková" --email jana@school.example --password secret`,
	RunE: runTeacherCreate,
}

var teacherListCmd = &cobra.Command{
	Use:   "list",
	Short: "List teacher accounts",
	RunE:  runTeacherList,
}

func init() {
	rootCmd.AddCommand(teacherCmd)
	teacherCmd.AddCommand(teacherCreateCmd)
	teacherCmd.AddCommand(teacherListCmd)

	teacherCreateCmd.Flags().String("id", "", "Teacher identifier (required)")
	teacherCreateCmd.Flags().String("name", "", "Full name (required)")
	teacherCreateCmd.Flags().String("email", "", "Email address (required)")
	teacherCreateCmd.Flags().String("password", "", "Password (required)")
	_ = teacherCreateCmd.MarkFlagRequired("id")
	_ = teacherCreateCmd.MarkFlagRequired("name")
	_ = teacherCreateCmd.MarkFlagRequired("email")
	_ = teacherCreateCmd.MarkFlagRequired("password")

	teacherListCmd.Flags().String("search", "", "Filter by identifier, name or email")
}

func runTeacherCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	id := strings.TrimSpace(mustGetString(cmd, "id"))
	name := strings.TrimSpace(mustGetString(cmd, "name"))
	email := strings.TrimSpace(mustGetString(cmd, "email"))
	password := mustGetString(cmd, "password")
	if id == "" || name == "" || email == "" || password == "" {
		return errors.New("--id, --name, --email and --password must not be empty")
	}

	store, _, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Shutdown()

	if _, err := auth.RegisterTeacher(ctx, store.Teachers, id, name, email, password); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("teacher %s already exists", id)
		}
		return fmt.Errorf("failed to create teacher: %w", err)
	}

	fmt.Printf("Teacher %s (%s) created\n", id, name)
	return nil
}

func runTeacherList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	store, _, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Shutdown()

	teachers, err := store.Teachers.ListTeachers(ctx, constants.RoleTeacher)
	if err != nil {
		return fmt.Errorf("failed to list teachers: %w", err)
	}
	teachers = roster.FilterTeachers(teachers, mustGetString(cmd, "search"))

	if len(teachers) == 0 {
		fmt.Println("No teachers found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCREATED")
	for _, t := range teachers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Email, t.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()

	fmt.Printf("\nTotal: %d teachers\n", len(teachers))
	return nil
}
