// Command authkit-probe exercises a Flowzz auth backend end to end: it
// hydrates any persisted session, signs in when none is held, validates,
// prints the resulting snapshot and counters, and optionally logs out.
//
// Configuration comes from the environment:
//
//	FLOWZZ_API_URL     backend origin (default http://localhost:8000)
//	FLOWZZ_EMAIL       login email (required)
//	FLOWZZ_PASSWORD    login password (required)
//	FLOWZZ_STATE_PATH  session blob path (default .flowzz/session.json)
//
// Flags:
//
//	-logout   log out (and revoke server-side) after the probe
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	authkit "github.com/flowzz/authkit"
	"github.com/flowzz/authkit/guard"
	"github.com/flowzz/authkit/storage"
)

type probeConfig struct {
	APIURL    string `env:"FLOWZZ_API_URL" env-default:"http://localhost:8000"`
	Email     string `env:"FLOWZZ_EMAIL" env-required:"true"`
	Password  string `env:"FLOWZZ_PASSWORD" env-required:"true"`
	StatePath string `env:"FLOWZZ_STATE_PATH" env-default:".flowzz/session.json"`
}

func main() {
	doLogout := flag.Bool("logout", false, "log out after the probe")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var cfg probeConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	client, err := authkit.New().
		WithBaseURL(cfg.APIURL).
		WithStorage(storage.NewFileStore(cfg.StatePath)).
		WithLogger(logger).
		Build()
	if err != nil {
		logger.Fatal("build client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = authkit.WithRequestID(ctx, uuid.NewString())

	if err := client.Hydrate(ctx); err != nil {
		logger.Fatal("hydrate", zap.Error(err))
	}

	if !client.IsAuthenticated() {
		logger.Info("no persisted session, signing in", zap.String("email", cfg.Email))
		if err := client.SignIn(ctx, cfg.Email, cfg.Password); err != nil {
			logger.Fatal("sign in", zap.Error(err))
		}
	}

	ok, err := client.Validate(ctx)
	switch {
	case err != nil && errors.Is(err, authkit.ErrServiceUnavailable):
		logger.Warn("backend unreachable, session kept", zap.Error(err))
	case err != nil:
		logger.Fatal("validate", zap.Error(err))
	case !ok:
		logger.Warn("session rejected, sign-in required")
	}

	snap := client.Snapshot()
	if snap.Principal != nil {
		logger.Info("session",
			zap.String("phase", snap.Phase.String()),
			zap.String("email", snap.Principal.Email),
			zap.String("role", snap.Principal.Role.String()),
			zap.String("admin_surface", guard.Decide(snap, false, authkit.RoleSuperAdmin).String()),
		)
	} else {
		logger.Info("session", zap.String("phase", snap.Phase.String()))
	}

	m := client.MetricsSnapshot()
	logger.Info("counters",
		zap.Uint64("login_success", m.Value(authkit.MetricLoginSuccess)),
		zap.Uint64("validate_success", m.Value(authkit.MetricValidateSuccess)),
		zap.Uint64("refresh_success", m.Value(authkit.MetricRefreshSuccess)),
	)

	if *doLogout {
		if err := client.Logout(ctx); err != nil {
			logger.Fatal("logout", zap.Error(err))
		}
		logger.Info("logged out")
	}
}
