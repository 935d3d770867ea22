package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/neo/turingwire/internal/clock"
	"github.com/neo/turingwire/internal/llmclient"
	"github.com/neo/turingwire/internal/logging"
	"github.com/neo/turingwire/internal/matchmaker"
	"github.com/neo/turingwire/internal/pool"
	"github.com/neo/turingwire/internal/server"
	"github.com/neo/turingwire/internal/storelog"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the turingwire server",
	Long: `Start the turingwire server with the configuration named in the
environment. This initializes the pool registry, matchmaker, session log
and WebSocket routes, then blocks until interrupted.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := os.MkdirAll("data", 0755); err != nil {
			fmt.Printf("Error creating data directory: %v\n", err)
			os.Exit(1)
		}

		if _, err := os.Stat(".env"); os.IsNotExist(err) {
			fmt.Println("Warning: .env file not found. Make sure to create it with your OPENAI_API_KEY")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.New(os.Stdout, "[turingwire] ", log.LstdFlags|log.Lshortfile)

		if err := godotenv.Load(); err != nil {
			logger.Printf("Warning: Error loading .env file: %v", err)
		}

		cfg := server.LoadConfig()

		logLevel := logging.INFO
		if cfg.AppEnv == "development" {
			logLevel = logging.DEBUG
		}
		if err := logging.InitDefaultLogger(logging.Config{
			Level:       logLevel,
			Prefix:      "turingwire",
			Colored:     true,
			LogToFile:   true,
			LogFilePath: cfg.DataDir + "/turingwire.log",
		}); err != nil {
			logger.Printf("Warning: failed to initialize structured logger: %v", err)
		}

		var llm llmclient.Client
		if cfg.OpenAIKey != "" {
			client, err := llmclient.New(cfg.OpenAIKey)
			if err != nil {
				return fmt.Errorf("failed to create llm client: %v", err)
			}
			llm = client
		} else {
			logger.Printf("Warning: OPENAI_API_KEY is not set, bot replies will use the canned fallback responder")
		}

		store, err := storelog.New(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open session log: %v", err)
		}
		defer store.Close()

		mm := matchmaker.New(matchmaker.Config{
			H2HProb:     cfg.H2HProb,
			MatchWindow: cfg.MatchWindow,
		}, clock.Real)

		reg := pool.New()

		srv := server.NewServer(cfg, mm, reg, store, llm)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		errChan := make(chan error, 1)
		go func() {
			addr := ":" + cfg.Port
			logger.Printf("Starting HTTP server on %s...", addr)
			if err := srv.Run(addr); err != nil {
				errChan <- fmt.Errorf("server error: %v", err)
			}
		}()

		select {
		case err := <-errChan:
			return err
		case sig := <-sigChan:
			logger.Printf("Received signal %v, initiating shutdown...", sig)

			shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
			defer shutdownCancel()

			cancel()
			deadline, _ := shutdownCtx.Deadline()
			logger.Printf("Waiting up to %v for active connections to finish...", time.Until(deadline).Round(time.Second))

			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				logger.Printf("Shutdown deadline exceeded, forcing exit")
			} else {
				logger.Printf("Shutdown completed gracefully")
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
