// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rovshanmuradov/launchpad/internal/storage"
	"github.com/rovshanmuradov/launchpad/internal/storage/models"
)

// gormLogger bridges GORM logging onto zap.
type gormLogger struct {
	zapLogger *zap.Logger
	logLevel  logger.LogLevel
}

func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger: zapLogger,
		logLevel:  logger.Warn,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
		return
	}

	if l.logLevel >= logger.Info {
		l.zapLogger.Info("trace", fields...)
	}
}

type postgresStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStorage connects to postgres and returns a Storage backed by it.
func NewStorage(dsn string, zapLogger *zap.Logger) (storage.Storage, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newGormLogger(zapLogger.Named("gorm")),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &postgresStorage{
		db:     db,
		logger: zapLogger,
	}, nil
}

func (p *postgresStorage) RunMigrations() error {
	var lockObtained bool
	err := p.db.Raw("SELECT pg_try_advisory_lock(214)").Scan(&lockObtained).Error
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !lockObtained {
		return fmt.Errorf("another migration is in progress")
	}
	defer p.db.Exec("SELECT pg_advisory_unlock(214)")

	err = p.db.AutoMigrate(
		&models.LaunchRecord{},
		&models.TradeRecord{},
		&models.PendingGraduation{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (p *postgresStorage) SaveLaunch(ctx context.Context, launch *models.LaunchRecord) error {
	return p.db.WithContext(ctx).Create(launch).Error
}

func (p *postgresStorage) UpdateLaunch(ctx context.Context, launch *models.LaunchRecord) error {
	return p.db.WithContext(ctx).Model(&models.LaunchRecord{}).
		Where("launch_id = ?", launch.LaunchID).
		Updates(map[string]interface{}{
			"free_token":           launch.FreeToken,
			"venue_pool_id":        launch.VenuePoolID,
			"trading_enabled":      launch.TradingEnabled,
			"graduated":            launch.Graduated,
			"reserve_asset_raised": launch.ReserveAssetRaised,
			"tokens_sold":          launch.TokensSold,
			"graduated_at":         launch.GraduatedAt,
		}).Error
}

func (p *postgresStorage) DeleteLaunch(ctx context.Context, launchID string) error {
	return p.db.WithContext(ctx).
		Where("launch_id = ?", launchID).
		Delete(&models.LaunchRecord{}).Error
}

func (p *postgresStorage) GetLaunch(ctx context.Context, launchID string) (*models.LaunchRecord, error) {
	var launch models.LaunchRecord
	err := p.db.WithContext(ctx).Where("launch_id = ?", launchID).First(&launch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: launch %s", storage.ErrNotFound, launchID)
	}
	if err != nil {
		return nil, err
	}
	return &launch, nil
}

func (p *postgresStorage) ListGraduated(ctx context.Context, limit, offset int) ([]*models.LaunchRecord, error) {
	var launches []*models.LaunchRecord
	err := p.db.WithContext(ctx).
		Where("graduated = ?", true).
		Order("graduated_at asc").
		Limit(limit).
		Offset(offset).
		Find(&launches).Error
	return launches, err
}

func (p *postgresStorage) SaveTrade(ctx context.Context, trade *models.TradeRecord) error {
	return p.db.WithContext(ctx).Create(trade).Error
}

func (p *postgresStorage) ListTrades(ctx context.Context, launchID string, limit, offset int) ([]*models.TradeRecord, error) {
	var trades []*models.TradeRecord
	err := p.db.WithContext(ctx).
		Where("launch_id = ?", launchID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&trades).Error
	return trades, err
}

func (p *postgresStorage) SavePendingGraduation(ctx context.Context, pending *models.PendingGraduation) error {
	return p.db.WithContext(ctx).Create(pending).Error
}

func (p *postgresStorage) DeletePendingGraduation(ctx context.Context, launchID string) error {
	return p.db.WithContext(ctx).
		Where("launch_id = ?", launchID).
		Delete(&models.PendingGraduation{}).Error
}

func (p *postgresStorage) ListPendingGraduations(ctx context.Context) ([]*models.PendingGraduation, error) {
	var pending []*models.PendingGraduation
	err := p.db.WithContext(ctx).Find(&pending).Error
	return pending, err
}
