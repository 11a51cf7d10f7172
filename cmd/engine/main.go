package main

import (
	"incentiva-engine/internal/httpapi"
	"incentiva-engine/pkg/config"
	"incentiva-engine/pkg/db"
	"incentiva-engine/pkg/gen"
	"incentiva-engine/pkg/health"
	"incentiva-engine/pkg/logger"
	"incentiva-engine/pkg/otelcol"
	"incentiva-engine/pkg/redis"
	"incentiva-engine/pkg/sequence"
	"incentiva-engine/pkg/server"
	"incentiva-engine/pkg/task"
	"incentiva-engine/services/campaign"
	"incentiva-engine/services/fulfillment"
	"incentiva-engine/services/member"
	"incentiva-engine/services/ranking"
	"incentiva-engine/services/submission"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	opts := fx.Options(
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),

		config.Module,
		logger.Module,
		otelcol.Module,
		gen.Module,
		db.Module,
		redis.Module,
		sequence.Module,
		task.Client,
		task.Server,
		health.Module,

		member.Module,
		campaign.Module,
		submission.Module,
		fulfillment.Module,
		ranking.Module,

		httpapi.Module,
		server.ProvideHTTPServer,

		fx.Invoke(db.Otel),
		fx.Invoke(func(cfg *config.Config, gdb *gorm.DB) error {
			if cfg.AppEnv != "production" {
				return nil
			}
			return db.Metric(cfg, gdb)
		}),
		// Schema management lives in the deployment pipeline for production;
		// development environments migrate on boot.
		fx.Invoke(func(cfg *config.Config, gdb *gorm.DB) error {
			if cfg.AppEnv == "production" {
				return nil
			}
			return gdb.AutoMigrate(
				&member.Store{},
				&member.Member{},
				&campaign.Campaign{},
				&campaign.Tier{},
				&campaign.Objective{},
				&submission.Submission{},
			)
		}),
	)

	if err := fx.ValidateApp(opts); err != nil {
		zap.L().Fatal("dependency graph validation failed", zap.Error(err))
	}

	fx.New(opts).Run()
}
