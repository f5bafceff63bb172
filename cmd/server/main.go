package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/internal/logging"
	"github.com/jrsteele09/go-session-auth/server"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	_, logCloser := logging.New(c)
	defer logCloser.Close()

	if err := config.Validate(c); err != nil {
		return err
	}

	displayAppname(c.GetAppName())

	repos, storeCloser, err := openStores(c)
	if err != nil {
		return err
	}
	defer storeCloser()

	manager, err := auth.NewSessionManager(
		repos,
		token.NewCodec(token.NewHMACSigner(c.GetTokenSecret())),
		auth.WithPasswordHasher(users.NewBcryptHasher(c.GetBcryptCost())),
		auth.WithMaxActiveSessions(c.GetMaxActiveSessions()),
		auth.WithTTLs(c.GetSessionTTL(), c.GetClaimsTTL()),
	)
	if err != nil {
		return fmt.Errorf("auth.NewSessionManager: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           server.New(c, manager),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg conc.WaitGroup
	serveErr := make(chan error, 1)
	wg.Go(func() {
		serveErr <- listenAndServe(httpServer)
	})
	if interval := c.GetReaperInterval(); interval > 0 {
		reaper := auth.NewReaper(repos.Sessions, interval)
		wg.Go(func() {
			if err := reaper.Run(ctx); err != nil {
				log.Err(err).Msg("session reaper stopped")
			}
		})
	}

	select {
	case returnError = <-serveErr:
	case <-waitForStopSignal():
	}

	cancel()
	if err := shutdown(httpServer); err != nil && returnError == nil {
		returnError = err
	}
	wg.Wait()
	return returnError
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
