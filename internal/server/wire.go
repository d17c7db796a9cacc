package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/nutrichef/backend/config"
	"github.com/pageza/nutrichef/backend/internal/api"
	"github.com/pageza/nutrichef/backend/internal/audit"
	"github.com/pageza/nutrichef/backend/internal/database"
	"github.com/pageza/nutrichef/backend/internal/router"
	"github.com/pageza/nutrichef/backend/internal/service"
)

const redisStreamMaxLen = 10000

// New builds the generator, audit trail, service and router described by cfg
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	generator, err := service.NewGenerator(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create text generator: %w", err)
	}

	srv := &Server{logger: logger}

	auditor, err := srv.buildAuditTrail(ctx, cfg, logger)
	if err != nil {
		_ = srv.Close()
		return nil, err
	}

	recipes := service.NewRecipeService(generator, auditor, logger, cfg.GenerationTimeout)
	handler := router.SetupRouter(api.NewGenerateHandler(recipes, logger), logger)

	built := NewServer(cfg.Addr(), handler, cfg.GenerationTimeout, logger)
	built.closers = srv.closers

	logger.Info("server configured",
		zap.String("provider", generator.Provider()),
		zap.String("model", generator.Model()),
		zap.Duration("generation_timeout", cfg.GenerationTimeout),
		zap.Int("audit_sinks", auditor.Len()),
	)
	return built, nil
}

// buildAuditTrail always logs, and adds a sink for each configured backend
func (s *Server) buildAuditTrail(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*audit.Multi, error) {
	sinks := []audit.Sink{audit.NewLogSink(logger)}

	if cfg.AuditDatabaseURL != "" {
		db, err := database.OpenAudit(cfg.AuditDatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		s.onClose(sqlDB.Close)

		gormSink := audit.NewGormSink(db)
		if err := gormSink.Migrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate audit table: %w", err)
		}
		sinks = append(sinks, gormSink)
	}

	if cfg.AuditRedisURL != "" {
		client, err := database.NewRedisClient(ctx, cfg.AuditRedisURL, logger)
		if err != nil {
			return nil, err
		}
		s.onClose(client.Close)
		sinks = append(sinks, audit.NewRedisSink(client, cfg.AuditRedisStream, redisStreamMaxLen))
	}

	if cfg.AuditS3Bucket != "" {
		s3Cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		sinks = append(sinks, audit.NewS3Sink(s3Cfg.Client, s3Cfg.BucketName))
	}

	return audit.NewMulti(logger, sinks...), nil
}
