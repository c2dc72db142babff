package main

import (
	"fmt"
	"os"

	"github.com/jwalitptl/clinical-records/internal/cache"
	cachemem "github.com/jwalitptl/clinical-records/internal/cache/memory"
	cacheredis "github.com/jwalitptl/clinical-records/internal/cache/redis"
	"github.com/jwalitptl/clinical-records/internal/config"
	"github.com/jwalitptl/clinical-records/internal/handler/health"
	"github.com/jwalitptl/clinical-records/internal/handler/prometheus"
	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository/fallback"
	"github.com/jwalitptl/clinical-records/internal/repository/local"
	"github.com/jwalitptl/clinical-records/internal/repository/remote"
	"github.com/jwalitptl/clinical-records/internal/service/assembler"
	"github.com/jwalitptl/clinical-records/internal/service/doctor"
	"github.com/jwalitptl/clinical-records/internal/service/patient"
	"github.com/jwalitptl/clinical-records/internal/service/profile"
	"github.com/jwalitptl/clinical-records/internal/service/sharing"
	"github.com/jwalitptl/clinical-records/internal/store"
	storemem "github.com/jwalitptl/clinical-records/internal/store/memory"
	"github.com/jwalitptl/clinical-records/internal/store/postgres"
	"github.com/jwalitptl/clinical-records/pkg/logger"
	"github.com/jwalitptl/clinical-records/pkg/metrics"
	"github.com/jwalitptl/clinical-records/pkg/retry"
)

// app holds the wired services shared by every command.
type app struct {
	cfg *config.Config
	log *logger.Logger

	prom    *prometheus.Handler
	checks  map[string]health.Pinger
	closers []func() error

	patients *patient.Service
	doctors  *doctor.Service
	profiles *profile.Service
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger(&logger.Config{
		Level:   logger.ParseLevel(cfg.Log.Level),
		Output:  os.Stdout,
		Console: cfg.Log.Console,
	})

	a := &app{
		cfg:    cfg,
		log:    log,
		prom:   prometheus.New(),
		checks: make(map[string]health.Pinger),
	}
	m := metrics.NewRegistered("clinic", a.prom.Registry())

	rows, err := a.openRowStore(m)
	if err != nil {
		a.Close()
		return nil, err
	}
	deviceCache, err := a.openCache(m)
	if err != nil {
		a.Close()
		return nil, err
	}

	policy := retry.Policy{Attempts: cfg.Reconcile.RetryAttempts, Interval: cfg.Reconcile.RetryInterval}

	users := remote.NewUserRepository(rows)
	patientRepo := remote.NewPatientRepository(rows)
	observations := remote.NewObservationRepository(rows)
	diagnoses := remote.NewDiagnosisRepository(rows, cfg.Tables.Diagnoses)

	remoteEnabled := cfg.Profiles.RemoteEnabled
	sharingRepo := fallback.NewSharing(remoteEnabled,
		remote.NewSharingRepository(rows), local.NewSharingRepository(deviceCache), log, m)
	profileRepo := fallback.NewProfile(remoteEnabled,
		remote.NewProfileRepository(rows), local.NewProfileRepository(deviceCache), log, m)

	sharingSvc := sharing.NewService(sharingRepo, log, sharing.WithRetry(policy))
	asm := assembler.New(users, patientRepo, profileRepo, observations, log,
		assembler.WithRetry(policy), assembler.WithMetrics(m))

	a.patients = patient.NewService(patient.Repositories{
		Users:        users,
		Patients:     patientRepo,
		Profiles:     profileRepo,
		Observations: observations,
		Diagnoses:    diagnoses,
	}, sharingSvc, asm, log, patient.WithRetry(policy), patient.WithMetrics(m))
	a.doctors = doctor.NewService(users, sharingSvc, log)
	a.profiles = profile.NewService(profileRepo, users, log)

	log.Info("application wired",
		"database_driver", cfg.Database.Driver,
		"cache_backend", cfg.Cache.Backend,
		"profiles_remote", remoteEnabled)
	return a, nil
}

func (a *app) openRowStore(m *metrics.Metrics) (store.RowStore, error) {
	if a.cfg.Database.Driver == "memory" {
		a.log.Warn(nil, "using the in-memory row store; data is lost on exit")
		return storemem.New(
			model.TableUsers, model.TablePatients, model.TablePersonalData, model.TableMedicalData,
			model.TableObservations, model.TableSharing, a.cfg.Tables.Diagnoses,
		), nil
	}

	db, err := postgres.NewDB(a.cfg.Database)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	a.checks["database"] = db
	return postgres.NewStore(db, m), nil
}

func (a *app) openCache(m *metrics.Metrics) (cache.Cache, error) {
	switch a.cfg.Cache.Backend {
	case "redis":
		c, err := cacheredis.NewCache(cacheredis.Config{URL: a.cfg.Cache.RedisURL, KeyPrefix: a.cfg.Cache.KeyPrefix}, m)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, c.Close)
		a.checks["cache"] = c
		return c, nil
	case "memory":
		return cachemem.New(a.cfg.Cache.KeyPrefix, m), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", a.cfg.Cache.Backend)
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn(err, "failed to close resource")
		}
	}
}
