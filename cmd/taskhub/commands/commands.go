package commands

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskhub/core/internal/adapters/memory"
	"github.com/taskhub/core/internal/application/executor"
	"github.com/taskhub/core/internal/client"
	"github.com/taskhub/core/internal/infrastructure/admin"
	"github.com/taskhub/core/internal/infrastructure/config"
	"github.com/taskhub/core/internal/infrastructure/logger"
	"github.com/taskhub/core/internal/infrastructure/metrics"
	"github.com/taskhub/core/internal/infrastructure/server"
	"github.com/taskhub/core/internal/infrastructure/snapshot"
)

const stopKeyword = "stop"

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the TaskHub command server",
		Long:  "Start the TaskHub command server, restoring the store snapshot on start and saving it on stop",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewClientCommand creates the interactive client command.
func NewClientCommand() *cobra.Command {
	clientCmd := &cobra.Command{
		Use:   "client",
		Short: "Connect to a TaskHub server interactively",
		Run: func(cmd *cobra.Command, args []string) {
			host, _ := cmd.Flags().GetString("host")
			port, _ := cmd.Flags().GetInt("port")
			bufferSize, _ := cmd.Flags().GetInt("buffer-size")
			runClient(host, port, bufferSize)
		},
	}

	clientCmd.Flags().String("host", "localhost", "Server host")
	clientCmd.Flags().Int("port", 9999, "Server port")
	clientCmd.Flags().Int("buffer-size", 2048, "Reply buffer size in bytes")
	return clientCmd
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print TaskHub version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("TaskHub v1.0.0")
		},
	}
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	store, err := loadStore(cfg, appLogger)
	if err != nil {
		appLogger.Fatalw("failed to restore snapshot", "error", err)
	}

	m := metrics.New()
	exec := executor.New(store, appLogger)
	srv := server.New(cfg.Server, exec, m, appLogger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		appLogger.Fatalw("server failed to start", "error", err)
	}

	var adminSrv *admin.Server
	if cfg.Admin.Enabled {
		adminSrv = admin.New(cfg.Admin, m, appLogger)
		go func() {
			if err := adminSrv.Start(); err != nil {
				appLogger.Errorw("admin surface failed", "error", err)
			}
		}()
	}

	appLogger.Infow("taskhub started",
		"addr", cfg.Server.Addr(),
		"environment", cfg.App.Environment,
	)

	// The console "stop" keyword ends the server, same as a signal.
	go watchConsole(cancel)
	<-ctx.Done()

	srv.Shutdown()
	if adminSrv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			appLogger.Warnw("admin shutdown failed", "error", err)
		}
	}

	if cfg.Snapshot.Enabled {
		if err := snapshot.Save(cfg.Snapshot.Path, store); err != nil {
			appLogger.Errorw("failed to save snapshot", "error", err)
		} else {
			appLogger.Infow("snapshot saved", "path", cfg.Snapshot.Path)
		}
	}
}

func loadStore(cfg *config.Config, appLogger *logger.Logger) (*memory.Store, error) {
	if !cfg.Snapshot.Enabled {
		return memory.New(), nil
	}

	store, err := snapshot.Load(cfg.Snapshot.Path)
	if err != nil {
		return nil, err
	}
	appLogger.Infow("snapshot restored", "path", cfg.Snapshot.Path)
	return store, nil
}

func watchConsole(cancel context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if scanner.Text() == stopKeyword {
			cancel()
			return
		}
	}
}

func runClient(host string, port, bufferSize int) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", addr, err)
	}
	defer conn.Close()

	fmt.Printf("Connected to %s. Type \"help\" for the command list.\n", addr)

	c := client.New(conn, os.Stdin, os.Stdout, bufferSize)
	if err := c.Run(); err != nil {
		log.Fatalf("Session ended with error: %v", err)
	}
}
