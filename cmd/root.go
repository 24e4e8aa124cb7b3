package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facerecognx",
	Short: "Classroom attendance by face recognition",
	Long: `FaceRecognX is a web application for classroom attendance.
Teachers enroll students from camera captures and mark attendance by
recognizing faces in live frames. Face detection and encoding are delegated
to an external face service.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
