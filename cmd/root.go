package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "turingwire",
	Short: "turingwire - realtime imitation-game session server",
	Long: `turingwire matches a human player against either another human or an AI
opponent and referees a timed text conversation, letting the player guess
which one they were talking to.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Global flags can be added here
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is .env)")
}
