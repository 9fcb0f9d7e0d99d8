package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AchAffand/SuratJalan-sub001/config"
	"github.com/AchAffand/SuratJalan-sub001/internal/cache"
	"github.com/AchAffand/SuratJalan-sub001/internal/db"
	"github.com/AchAffand/SuratJalan-sub001/internal/repository"
	"github.com/AchAffand/SuratJalan-sub001/internal/service"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute all purchase order tonnage summaries",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			logrus.Fatalf("Failed to load configuration: %v", err)
		}

		dbConn, err := db.Connect(&cfg.Database)
		if err != nil {
			logrus.Fatalf("Failed to connect to database: %v", err)
		}

		cacheClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			logrus.WithError(err).Warn("Failed to initialize Redis cache, continuing without caching")
			cacheClient = cache.NewNoopClient()
		}

		noteRepo := repository.NewDeliveryNoteRepository(dbConn)
		poRepo := repository.NewPurchaseOrderRepository(dbConn)
		reconciler := service.NewReconciler(noteRepo, poRepo, cacheClient)

		logrus.Info("Reconciling purchase orders...")
		if err := reconciler.ReconcileAll(context.Background()); err != nil {
			logrus.Fatalf("Reconciliation failed: %v", err)
		}

		logrus.Info("Reconciliation completed successfully")
	},
}
