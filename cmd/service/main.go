package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VietDinh95/Notes/internal"
	"github.com/VietDinh95/Notes/internal/config"
	"github.com/VietDinh95/Notes/internal/logging"
	"github.com/VietDinh95/Notes/internal/notes"
	"github.com/VietDinh95/Notes/internal/surreal"

	log "github.com/sirupsen/logrus"
	"github.com/surrealdb/surrealdb.go"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	wipeNotes := flag.Bool("wipe-notes", false, "destructive: wipe all locally persisted notes on startup (dev only)")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.LogsPath,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: false,
		Environment:   cfg.Environment,
		SentryEnabled: cfg.SentryEnabled,
		SentryDSN:     sentryDSN,
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)
	log.Debugf("using local notes store: [%s]", cfg.SqlitePath)

	localRepo, err := notes.NewSqliteRepo(cfg.SqlitePath)
	if err != nil {
		log.Fatalf("open local notes store: %s", err)
	}

	if *wipeNotes {
		if cfg.Environment == "production" {
			log.Fatalf("refusing to wipe notes in production")
		}
		wipeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		wiped, err := localRepo.Wipe(wipeCtx)
		cancel()
		if err != nil {
			log.Fatalf("wipe local notes store: %s", err)
		}
		log.Warnf("wiped %d notes from the local store", wiped)
	}

	remoteRepo := remoteRepoSetup(cfg)

	// a nil *SurrealRepo must stay a nil interface inside the switchboard
	var remote notes.RemoteRepo
	if remoteRepo != nil {
		remote = remoteRepo
	}

	switchboard := notes.NewSwitchboard(
		localRepo,
		func() (notes.Repo, error) {
			return notes.NewSqliteRepo(cfg.SqlitePath)
		},
		remote,
	)

	server := internal.NewServer(switchboard)
	server.Serve("", cfg.Port)

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)
	receivedSig := <-chOsInterrupt

	log.Warnf("signal [%s] received, shutting down ...", receivedSig)
	server.GracefulShutdown()
	if remoteRepo != nil {
		remoteRepo.Close()
	}
}

// remoteRepoSetup dials the remote record store, if one is configured.
// Credentials come from env vars, never from the config file.
func remoteRepoSetup(cfg *config.Config) *notes.SurrealRepo {
	if cfg.SurrealURL == "" {
		log.Warnln("remote notes store not configured, sync disabled")
		return nil
	}

	surrealUser := os.Getenv("NOTES_SURREAL_USER")
	surrealPass := os.Getenv("NOTES_SURREAL_PASS")
	if surrealUser == "" || surrealPass == "" {
		log.Errorf("surreal credentials not set, use NOTES_SURREAL_USER and NOTES_SURREAL_PASS")
	}

	db, err := surrealdb.New(cfg.SurrealURL)
	if err != nil {
		log.Errorf("connect to remote notes store: %s, sync disabled", err)
		return nil
	}

	noteTable := cfg.SurrealNoteTable
	if noteTable == "" {
		noteTable = "note"
	}

	client, err := surreal.NewNotesSurrealClient(db, cfg.SurrealNamespace, cfg.SurrealDatabase, noteTable)
	if err != nil {
		log.Errorf("bind remote notes store: %s, sync disabled", err)
		return nil
	}

	if err := client.Signin(surrealUser, surrealPass); err != nil {
		log.Errorf("remote notes store signin: %s", err)
	}

	return notes.NewSurrealRepo(client)
}
