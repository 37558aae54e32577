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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gatekit/gatekit/auth"
	"github.com/gatekit/gatekit/codes"
	codefakes "github.com/gatekit/gatekit/codes/repofakes"
	"github.com/gatekit/gatekit/email"
	"github.com/gatekit/gatekit/internal/config"
	"github.com/gatekit/gatekit/provider"
	"github.com/gatekit/gatekit/server"
	"github.com/gatekit/gatekit/sessions"
	sessionfakes "github.com/gatekit/gatekit/sessions/repofakes"
	"github.com/gatekit/gatekit/token"
	userfakes "github.com/gatekit/gatekit/users/repofake"
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
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	handler, err := buildServer(c)
	if err != nil {
		return fmt.Errorf("buildServer: %w", err)
	}

	srv := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(srv)
	waitForStopSignal()
	return shutdown(srv)
}

func buildServer(c config.Config) (*server.Server, error) {
	// In-memory stores; swap the repos for a durable record store in
	// production deployments.
	sessionStore, err := sessions.NewStore(sessionfakes.NewFakeSessionRepo())
	if err != nil {
		return nil, fmt.Errorf("sessions.NewStore: %w", err)
	}
	codeStore, err := codes.NewStore(codefakes.NewFakeCodeRepo())
	if err != nil {
		return nil, fmt.Errorf("codes.NewStore: %w", err)
	}

	authService, err := auth.NewService(auth.Repos{
		Users:    userfakes.NewFakeUserRepo(),
		Sessions: sessionStore,
		Codes:    codeStore,
	}, buildSender(c))
	if err != nil {
		return nil, fmt.Errorf("auth.NewService: %w", err)
	}

	keyPair, err := loadKeyPair(c)
	if err != nil {
		return nil, fmt.Errorf("loadKeyPair: %w", err)
	}
	issuer, err := token.NewIssuer(token.NewKeyPairSigner(keyPair), c.GetBaseURL(), c.GetAudience())
	if err != nil {
		return nil, fmt.Errorf("token.NewIssuer: %w", err)
	}

	return server.New(c, authService, sessionStore, issuer, buildProviders(c)...)
}

func buildSender(c config.Config) email.Sender {
	if c.GetSmtpAccount() == "" {
		log.Warn().Msg("SMTP not configured, logging verification codes instead")
		return email.LogSender{}
	}
	return email.NewSMTPSender(email.SMTPConfig{
		Host:     c.GetSmtpHost(),
		Port:     c.GetSmtpPort(),
		Account:  c.GetSmtpAccount(),
		Password: c.GetSmtpPassword(),
	}, codes.CodeTTL)
}

func loadKeyPair(c config.Config) (*token.KeyPair, error) {
	if pemData := c.GetPrivateKeyPEM(); pemData != "" {
		return token.LoadKeyPairFromPEM(c.GetKeyID(), pemData)
	}
	if c.GetEnv() != "DEV" {
		return nil, errors.New("AUTH_PRIVATE_KEY is required outside DEV")
	}
	// Tokens signed with an ephemeral key stop verifying on restart.
	log.Warn().Msg("AUTH_PRIVATE_KEY not set, generating an ephemeral key pair")
	return token.GenerateRSAKeyPair(c.GetKeyID(), 2048)
}

func buildProviders(c config.Config) []provider.Provider {
	var providers []provider.Provider

	if c.GetGitHubClientID() != "" {
		providers = append(providers, provider.NewGitHub(c.GetGitHubClientID(), c.GetGitHubClientSecret()))
	}

	if c.GetGoogleClientID() != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		google, err := provider.NewGoogle(ctx, c.GetGoogleClientID(), c.GetGoogleClientSecret(), c.GetBaseURL()+"/auth/google/callback")
		if err != nil {
			log.Err(err).Msg("Google OIDC discovery failed, provider disabled")
		} else {
			providers = append(providers, google)
		}
	}

	return providers
}

func setupLogging(c config.Config) {
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(srv *http.Server) {
	log.Info().Str("addr", srv.Addr).Msg("Server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
