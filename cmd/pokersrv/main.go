// Command pokersrv runs the Hand Manager behind a gRPC listener: it
// wires together the SQLite store, the presence tracker, the turn/
// auto-start scheduler, the event bus, and the engine deck factory,
// then serves pkg/rpcserver's Engine service over the configured
// address.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"google.golang.org/grpc"

	"github.com/vctt94/holdemcore/pkg/cards"
	"github.com/vctt94/holdemcore/pkg/diagnostics"
	"github.com/vctt94/holdemcore/pkg/events"
	"github.com/vctt94/holdemcore/pkg/logging"
	"github.com/vctt94/holdemcore/pkg/manager"
	"github.com/vctt94/holdemcore/pkg/presence"
	"github.com/vctt94/holdemcore/pkg/rpcserver"
	"github.com/vctt94/holdemcore/pkg/scheduler"
	"github.com/vctt94/holdemcore/pkg/store"
)

type config struct {
	dbPath     string
	host       string
	port       int
	portFile   string
	seed       int64
	debugLevel string
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.dbPath, "db", "", "Path to SQLite database file (created if missing)")
	flag.StringVar(&cfg.host, "host", "127.0.0.1", "Host to listen on")
	flag.IntVar(&cfg.port, "port", 0, "Port to listen on (0 for random free port)")
	flag.StringVar(&cfg.portFile, "portfile", "", "If set, write the selected port to this file")
	flag.Int64Var(&cfg.seed, "seed", 0, "Deterministic RNG seed for decks (0 = cryptographically random)")
	flag.StringVar(&cfg.debugLevel, "debuglevel", "info", "Logging level: trace, debug, info, warn, error")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()

	logBackend, err := logging.NewBackend(logging.Config{DebugLevel: cfg.debugLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logging: %v\n", err)
		os.Exit(1)
	}
	log := logBackend.Logger("PKSR")

	if cfg.dbPath == "" {
		cfg.dbPath = filepath.Join(os.TempDir(), "holdemcore.sqlite")
	}
	st, err := store.Open(cfg.dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	bus := events.NewBus(logBackend.Logger("EVNT"))
	pres := presence.New()

	mgr := manager.New(st, bus, pres, time.Now, logBackend.Logger("MGMT"))

	if cfg.seed != 0 {
		seed := cfg.seed
		mgr.SetDeckFactory(func() (*cards.Deck, error) {
			return cards.NewDeck(seed), nil
		})
	}

	sched := scheduler.New(pres, mgr, logBackend.Logger("SCHD"))
	defer sched.Stop()
	mgr.SetScheduler(sched)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sampler, err := diagnostics.New(30*time.Second, logBackend.Logger("DIAG")); err != nil {
		log.Warnf("diagnostics disabled: %v", err)
	} else {
		go sampler.Run(ctx)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.host, cfg.port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to listen: %v\n", err)
		os.Exit(1)
	}

	if cfg.portFile != "" {
		_, p, _ := net.SplitHostPort(lis.Addr().String())
		if err := os.WriteFile(cfg.portFile, []byte(p), 0600); err != nil {
			log.Warnf("failed to write portfile: %v", err)
		}
	}

	grpcSrv := grpc.NewServer()
	rpcserver.RegisterEngineServer(grpcSrv, rpcserver.NewServer(mgr, bus, logBackend.Logger("RPCS")))

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Infof("shutting down")
		cancel()
		grpcSrv.GracefulStop()
	}()

	log.Infof("listening on %s", lis.Addr().String())
	if err := grpcSrv.Serve(lis); err != nil {
		fmt.Fprintf(os.Stderr, "grpc serve error: %v\n", err)
		os.Exit(1)
	}
}
