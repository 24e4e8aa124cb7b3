package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/kozaktomas/facerecognx/internal/config"
	"github.com/kozaktomas/facerecognx/internal/faceapi"
	"github.com/kozaktomas/facerecognx/internal/recognition"
	"github.com/kozaktomas/facerecognx/internal/roster"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Manage enrolled students",
}

var studentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled students",
	RunE:  runStudentList,
}

var studentEnrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a student from a directory of face images",
	Long: `Enroll a student using JPEG or PNG images from a directory.
Every image is sent to the face service and only images with exactly one face
are kept. Enrollment fails when fewer than MIN_ENCODINGS images qualify.

Examples:
  facerecognx student enroll --id S042 --name "Petr Dvořák" --section 3B --dir ./captures/S042`,
	RunE: runStudentEnroll,
}

var imageExtensions = []string{".jpg", ".jpeg", ".png"}

func init() {
	rootCmd.AddCommand(studentCmd)
	studentCmd.AddCommand(studentListCmd)
	studentCmd.AddCommand(studentEnrollCmd)

	studentListCmd.Flags().String("search", "", "Filter by identifier, name or section")

	studentEnrollCmd.Flags().String("id", "", "Student identifier (required)")
	studentEnrollCmd.Flags().String("name", "", "Full name (required)")
	studentEnrollCmd.Flags().String("section", "", "Class section (required)")
	studentEnrollCmd.Flags().String("dir", "", "Directory with face images (required)")
	studentEnrollCmd.Flags().String("teacher", "", "Teacher identifier recorded as registrar (default ADMIN_ID)")
	_ = studentEnrollCmd.MarkFlagRequired("id")
	_ = studentEnrollCmd.MarkFlagRequired("name")
	_ = studentEnrollCmd.MarkFlagRequired("section")
	_ = studentEnrollCmd.MarkFlagRequired("dir")
}

func runStudentList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	store, _, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Shutdown()

	students, err := store.Students.ListStudents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list students: %w", err)
	}
	students = roster.FilterStudents(students, mustGetString(cmd, "search"))

	if len(students) == 0 {
		fmt.Println("No students found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSECTION\tENCODINGS\tREGISTERED BY\tREGISTERED ON")
	for _, s := range students {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.Name, s.Section, s.EncodingCount, s.RegisteredBy, s.RegisteredOn.Format("2006-01-02 15:04"))
	}
	w.Flush()

	fmt.Printf("\nTotal: %d students\n", len(students))
	return nil
}

// readImageDir loads every image file in dir sorted by name.
func readImageDir(dir string) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	var images [][]byte
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		images = append(images, data)
	}
	return images, nil
}

func runStudentEnroll(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	images, err := readImageDir(mustGetString(cmd, "dir"))
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return errors.New("no .jpg, .jpeg or .png images found")
	}

	teacherID := mustGetString(cmd, "teacher")
	if teacherID == "" {
		teacherID = cfg.Admin.ID
	}

	store, _, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Shutdown()

	faceClient := faceapi.NewClient(cfg.FaceService.URL, cfg.FaceService.Timeout)
	enroller := recognition.NewEnroller(store.Students, faceClient, cfg.Recognition, nil)

	bar := progressbar.NewOptions(len(images),
		progressbar.OptionSetDescription("Encoding faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	student, err := enroller.Enroll(ctx, recognition.EnrollRequest{
		StudentID: mustGetString(cmd, "id"),
		Name:      mustGetString(cmd, "name"),
		Section:   mustGetString(cmd, "section"),
		TeacherID: teacherID,
		Images:    images,
	}, func() { _ = bar.Add(1) })
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	fmt.Printf("Student %s (%s, section %s) enrolled with %d encodings\n",
		student.ID, student.Name, student.Section, len(student.Encodings))
	return nil
}
