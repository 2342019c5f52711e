// Command server boots the party-game engine: one process, one Session
// (spec §2), serving the websocket protocol described in spec §6 plus the
// small HTTP surface in internal/httpapi.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/balalek/partygame-server/internal/bus"
	"github.com/balalek/partygame-server/internal/config"
	"github.com/balalek/partygame-server/internal/dictionary"
	"github.com/balalek/partygame-server/internal/dispatcher"
	"github.com/balalek/partygame-server/internal/handlers"
	"github.com/balalek/partygame-server/internal/httpapi"
	"github.com/balalek/partygame-server/internal/logging"
	"github.com/balalek/partygame-server/internal/quizstore"
	"github.com/balalek/partygame-server/internal/session"
	"github.com/balalek/partygame-server/internal/wordprovider"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := quizstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("main: connect to quiz store")
	}
	defer store.Close()

	dict := dictionary.Load(cfg.DictionaryPath)
	if !dict.Loaded() {
		log.Warn("main: dictionary not loaded, word_chain running in permissive mode")
	} else {
		log.WithField("words", dict.Size()).Info("main: dictionary loaded")
	}

	var words wordprovider.Provider
	if cfg.WordProviderURL != "" {
		words = wordprovider.New(cfg.WordProviderURL)
	} else {
		words = wordprovider.NewStatic(nil)
	}

	b := bus.New(log)
	lobby := session.New(b, log)
	lobby.Session.IsRemote = cfg.IsRemoteEnabled

	flow := session.NewFlow(lobby, store, words, nil)
	flow.Hooks = &handlers.Hooks{WordChain: &handlers.WordChain{Dict: dict}}

	d := dispatcher.New(lobby, flow, b, log)
	flow.Post = d.Post

	srv := httpapi.New(lobby, flow, d, b, store, log)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.RegisterRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go d.Run(ctx)

	go func() {
		log.WithField("port", cfg.Port).Info("main: listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("main: server crashed")
		}
	}()

	<-ctx.Done()
	log.Info("main: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("main: graceful shutdown failed")
	}
}
