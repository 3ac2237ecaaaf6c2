package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"modpack-editor/logger"
	"modpack-editor/server"
	"modpack-editor/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser editor",
	Long: `Starts the HTTP backend and serves the browser editor. The last
opened modpack is loaded again on start.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := bootstrap(".")
	sess := session.New()
	restoreLastOpened(ctx, svc, sess)

	var state server.StateStore
	if svc.cache != nil {
		state = svc.cache
	}
	srv := server.New(sess, svc.resolver, svc.client, state, logger.Named("http"))

	addr := svc.cfg.Addr()
	fmt.Println("Welcome to modpack-editor!")
	fmt.Printf("Listening on %s, accessible at http://%s/\n", addr, addr)
	fmt.Println("Press CTRL+C to exit.")
	logger.Log.Infow("Starting HTTP server", zap.String("addr", addr))

	err := srv.ListenAndServe(ctx, addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Errorw("HTTP server failed", zap.Error(err))
		return fmt.Errorf("error starting server: %w", err)
	}
	return nil
}

// restoreLastOpened loads the pack the previous run had open, if any.
func restoreLastOpened(ctx context.Context, svc services, sess *session.Session) {
	folder, ok := svc.cache.LastOpened()
	if !ok {
		return
	}
	if _, err := sess.Load(ctx, folder, svc.resolver); err != nil {
		logger.Log.Warnw("Error loading modpack from cached folder", zap.String("folder", folder), zap.Error(err))
		return
	}
	logger.Log.Infow("Restored last opened modpack", zap.String("folder", folder))
}
