package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Pinkesh2905/FaceTrace/internal/attendance"
	"github.com/Pinkesh2905/FaceTrace/internal/cache"
	"github.com/Pinkesh2905/FaceTrace/internal/config"
	"github.com/Pinkesh2905/FaceTrace/internal/database"
	"github.com/Pinkesh2905/FaceTrace/internal/database/mariadb"
	"github.com/Pinkesh2905/FaceTrace/internal/database/mock"
	"github.com/Pinkesh2905/FaceTrace/internal/database/postgres"
	"github.com/Pinkesh2905/FaceTrace/internal/encodings"
	"github.com/Pinkesh2905/FaceTrace/internal/recognition"
	"github.com/Pinkesh2905/FaceTrace/internal/registration"
)

// app holds the wired services shared by the commands.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	employees  database.EmployeeWriter
	attendance database.AttendanceWriter
	store      encodings.Store
	cache      *cache.Cache
	service    *attendance.Service
	extractor  recognition.Extractor
	registrar  *registration.Registrar
	closers    []io.Closer
}

// newApp loads configuration and connects the configured backends.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	a := &app{cfg: cfg, logger: newLogger(cfg.LogLevel)}

	if err := a.initBackend(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.employees, err = database.GetEmployeeWriter(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.attendance, err = database.GetAttendanceWriter(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	switch strings.ToLower(cfg.Encodings.Store) {
	case "postgres":
		pool := postgres.GetGlobalPool()
		if pool == nil {
			a.Close()
			return nil, fmt.Errorf("ENCODING_STORE=postgres requires BACKEND=postgres")
		}
		a.store = postgres.NewEncodingStore(pool)
	default:
		a.store = encodings.NewFileStore(cfg.Encodings.Dir)
	}

	policy, err := attendance.PolicyFromConfig(cfg.Attendance)
	if err != nil {
		a.Close()
		return nil, err
	}

	dim := cfg.Recognition.EncodingDim
	a.cache = cache.New(cache.NewStoreLoader(a.employees, a.store, dim, a.logger),
		cache.WithHNSWThreshold(cfg.Recognition.HNSWMinEncodings),
		cache.WithLogger(a.logger),
	)
	a.service = attendance.NewService(a.attendance, a.employees, policy, attendance.WithLogger(a.logger))
	a.extractor = recognition.NewHTTPExtractor(cfg.Extractor.URL, cfg.Extractor.Timeout)
	a.registrar = registration.New(a.extractor, a.store, a.employees, a.cache, dim, a.logger)
	return a, nil
}

func (a *app) initBackend(ctx context.Context) error {
	switch strings.ToLower(a.cfg.Database.Backend) {
	case "memory":
		mock.Register(mock.NewMockEmployeeDirectory(), mock.NewMockAttendanceStore())
		a.logger.Warn("using in-memory backend, punches are lost on exit")
	default:
		pool, err := postgres.Initialize(ctx, &a.cfg.Database, a.logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pool)
	}

	if a.cfg.Directory.DSN != "" {
		hr, err := mariadb.NewPool(a.cfg.Directory.DSN)
		if err != nil {
			return fmt.Errorf("failed to connect to HR directory: %w", err)
		}
		a.closers = append(a.closers, hr)
		dir := mariadb.NewDirectory(hr)
		database.RegisterEmployeeDirectory(func() database.EmployeeWriter { return dir })
		a.logger.Info("employee directory", "source", "mariadb")
	}
	return nil
}

// Close releases database pools in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
