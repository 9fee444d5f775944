package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/comigor/movieagent/internal/logger"
	"github.com/comigor/movieagent/internal/session"
)

const sessionHeader = "X-Session-ID"

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over HTTP (POST the message as the request body)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			comps, err := ctx.build()
			if err != nil {
				return err
			}
			defer comps.store.Close()

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
				Handler:           newInferenceHandler(session.NewManager(comps.agent, comps.store, session.WithIdleTimeout(cfg.Server.SessionIdleTimeout))),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(sigCtx, srv)
		},
	}
}

func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.L.Info("starting server", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("start server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.L.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// newInferenceHandler answers one turn per request. The session id travels in
// the X-Session-ID header; a missing or unknown id starts a new session.
func newInferenceHandler(sessions *session.Manager) http.Handler {
	mux := http.NewServeMux()

	// main inference endpoint
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "use POST with the message as body", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
		if err != nil {
			logger.L.Error("read body error", "err", err)
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		if len(body) == 0 {
			http.Error(w, "empty message", http.StatusBadRequest)
			return
		}

		sess := sessions.Get(r.Header.Get(sessionHeader))
		logger.L.Info("inference request", "session", sess.ID, "bytes", len(body))
		logger.L.Debug("inference request body", "session", sess.ID, "body", string(body))

		turn, err := sess.Send(r.Context(), string(body))
		if err != nil {
			logger.L.Error("process error", "err", err, "session", sess.ID)
			http.Error(w, "failed to process request", http.StatusInternalServerError)
			return
		}

		w.Header().Set(sessionHeader, sess.ID)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(turn.Reply))
	})

	return mux
}
