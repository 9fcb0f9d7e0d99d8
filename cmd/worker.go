package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AchAffand/SuratJalan-sub001/config"
	"github.com/AchAffand/SuratJalan-sub001/internal/cache"
	"github.com/AchAffand/SuratJalan-sub001/internal/db"
	"github.com/AchAffand/SuratJalan-sub001/internal/repository"
	"github.com/AchAffand/SuratJalan-sub001/internal/service"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that periodically reconciles purchase order tonnage against recorded delivery notes`,
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	dbConn, err := db.Connect(&cfg.Database)
	if err != nil {
		return err
	}

	cacheClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		logrus.WithError(err).Warn("Failed to initialize Redis cache, continuing without caching")
		cacheClient = cache.NewNoopClient()
	}

	noteRepo := repository.NewDeliveryNoteRepository(dbConn)
	poRepo := repository.NewPurchaseOrderRepository(dbConn)
	reconciler := service.NewReconciler(noteRepo, poRepo, cacheClient)

	// Periodic sweep catches the note changes that skip per-edit
	// reconciliation: creates, deletes and weight edits
	g.Go(func() error {
		logrus.WithField("interval", cfg.Reconcile.SweepInterval).
			Info("Starting purchase order reconciliation sweep")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Reconcile.SweepInterval),
			gocron.NewTask(func() {
				if err := reconciler.ReconcileAll(ctx); err != nil {
					logrus.WithError(err).Error("Reconciliation sweep failed")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Error("Worker error")
		return err
	}

	logrus.Info("Worker shutting down gracefully")
	return nil
}
