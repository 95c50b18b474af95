package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/slotkeeper/internal/logging"
)

// rootCmd represents the base command for the slotkeeper application
var rootCmd = &cobra.Command{
	Use:   "slotkeeper",
	Short: "Checks and books calendar slots from natural-language requests",
	Long: `slotkeeper checks whether a time slot on a Google Calendar is free,
lists the free slots of a day and books events, refusing to book over an
existing event.

It can run as:
  - An interactive chat assistant backed by an OpenAI-compatible model (chat)
  - An MCP (Model Context Protocol) server for AI assistants (serve)
  - One-shot commands (check, book, free, today)`,
	SilenceUsage: true,
}

var (
	// version will be set by main
	version = "dev"

	configFile string
	debugMode  bool
	logFormat  string
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "slotkeeper version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger. Logs go to w so that stdout stays
// free for command output and the stdio transport.
func newLogger(w io.Writer) *slog.Logger {
	logger := logging.New(w, logFormat, debugMode)
	slog.SetDefault(logger)
	return logger
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default: ./slotkeeper.yaml or ~/.config/slotkeeper/slotkeeper.yaml)")
	pf.BoolVar(&debugMode, "debug", false, "Enable debug logging")
	pf.StringVar(&logFormat, "log-format", logging.FormatText, "Log format: text or json")

	pf.String("calendar-id", "", "Calendar ID to read and book (config: calendar.id)")
	pf.String("credentials-file", "", "Service-account JSON key file (config: calendar.credentials_file)")
	pf.String("backend", "", "Calendar backend: google or memory (config: calendar.backend)")
	pf.String("timezone", "", "IANA zone for times given without one (config: time.location)")
	pf.Bool("day-first", false, "Read ambiguous numeric dates as day/month (config: time.day_first)")
	pf.Duration("slot-duration", 0, "Default slot and booking length (config: slots.duration)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newBookCmd())
	rootCmd.AddCommand(newFreeCmd())
	rootCmd.AddCommand(newTodayCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
