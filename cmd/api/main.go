package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"meetix.org/internal/admins"
	"meetix.org/internal/auth"
	"meetix.org/internal/authz"
	"meetix.org/internal/config"
	"meetix.org/internal/coupons"
	"meetix.org/internal/events"
	"meetix.org/internal/httpapi"
	"meetix.org/internal/migrate"
	"meetix.org/internal/obs"
	"meetix.org/internal/participants"
	"meetix.org/internal/store/pg"
	"meetix.org/internal/users"
	"meetix.org/migrations"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// stores groups the persistence backends selected at startup.
type stores struct {
	identities   users.Store
	events       events.Store
	grants       admins.Store
	coupons      coupons.Store
	participants participants.Store

	// dependents hold per-user rows the database would otherwise cascade.
	dependents []users.Dependent
	ready      httpapi.ReadinessCheck
	close      func() error
}

func main() {
	if err := run(); err != nil {
		obs.Logger().Fatal().Err(err).Msg("meetix_api_failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	displayAppname("meetix")

	obs.Init()
	obs.InitBuildInfo(version, commit)
	if err := obs.SetLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log := obs.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Warn().Err(err).Msg("store_close_failed")
		}
	}()

	codec, err := auth.NewCodec(cfg.JWT.Secret)
	if err != nil {
		return err
	}
	authSvc, err := auth.NewService(st.identities, codec,
		auth.WithAccessTTL(cfg.JWT.AccessTTL),
		auth.WithRefreshTTL(cfg.JWT.RefreshTTL),
	)
	if err != nil {
		return err
	}
	evaluator := authz.New(st.events, st.grants)

	api := httpapi.New(st.ready, version, httpapi.Services{
		Auth:         authSvc,
		Users:        users.NewService(st.identities, st.events, authSvc, users.WithDependents(st.dependents...)),
		Events:       events.NewService(st.events, st.identities, evaluator),
		Admins:       admins.NewService(st.grants, st.events, st.identities, evaluator),
		Coupons:      coupons.NewService(st.coupons, evaluator),
		Participants: participants.NewService(st.participants, st.events, st.identities, evaluator),
	}, httpapi.Options{
		TokenHeader:    cfg.JWT.Header,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		RateBurst:      cfg.HTTP.AuthRateBurst,
		RatePerSec:     cfg.HTTP.AuthRatePerS,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Dur("access_ttl", authSvc.AccessTTL()).
			Dur("refresh_ttl", authSvc.RefreshTTL()).
			Msg("http_listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http listen: %w", err)
		}
	}()

	var grpcSrv *grpc.Server
	if cfg.HTTP.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.HTTP.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcSrv = grpc.NewServer()
		healthpb.RegisterHealthServer(grpcSrv, httpapi.NewGRPCServer(st.ready))
		go func() {
			log.Info().Str("addr", cfg.HTTP.GRPCAddr).Msg("grpc_listening")
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc serve: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting_down")
	case err := <-errCh:
		log.Error().Err(err).Msg("server_failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("stopped")
	return nil
}

// openStores selects PostgreSQL when a DSN is configured and applies pending
// migrations; otherwise everything lives in process memory.
func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.PGDSN == "" {
		obs.Logger().Warn().Msg("no MEETIX_PG_DSN configured, using in-memory stores")
		grants := admins.NewMemoryStore()
		regs := participants.NewMemoryStore()
		return stores{
			identities:   auth.NewMemoryIdentityStore(),
			events:       events.NewMemoryStore(),
			grants:       grants,
			coupons:      coupons.NewMemoryStore(),
			participants: regs,
			dependents:   []users.Dependent{grants, regs},
			close:        func() error { return nil },
		}, nil
	}

	db, err := pg.Open(cfg.PGDSN)
	if err != nil {
		return stores{}, fmt.Errorf("open db: %w", err)
	}
	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := migrate.NewManager(db.DB(), migrations.FS).Up(migrateCtx); err != nil {
		_ = db.Close()
		return stores{}, fmt.Errorf("migrate: %w", err)
	}
	return stores{
		identities:   db.Identities(),
		events:       db.Events(),
		grants:       db.Grants(),
		coupons:      db.Coupons(),
		participants: db.Participants(),
		ready:        httpapi.ReadinessCheck{DB: db},
		close:        db.Close,
	}, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
