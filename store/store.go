package store

import (
	"context"
	"fmt"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gtoxlili/echoChart/entity"
	"github.com/gtoxlili/echoChart/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// UsageLog 是每次分析的脱敏记录，不保存图片
type UsageLog struct {
	ID           uuid.UUID `gorm:"type:text;primaryKey" json:"id"`
	UserID       string    `gorm:"index" json:"user_id"`
	Symbol       string    `gorm:"index" json:"symbol"`
	AnalysisType string    `json:"analysis_type"`
	Prompt       string    `json:"prompt"`
	Response     string    `json:"response"`
	CreatedAt    time.Time `gorm:"index" json:"timestamp"`
}

func (UsageLog) TableName() string {
	return "ai_usage_logs"
}

type storedResponse struct {
	entity.AnalysisResult
	Metadata responseMetadata `json:"metadata"`
}

type responseMetadata struct {
	Model      string `json:"model"`
	TemplateID string `json:"templateId,omitempty"`
}

type Store struct {
	db             *gorm.DB
	maxPromptRunes int
}

// Open 打开 sqlite 数据库并迁移表结构，dsn 可以是 ":memory:"
func Open(dsn string, maxPromptRunes int) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	// sqlite 只有一个写者；内存库在多连接下也会各自独立
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&UsageLog{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db, maxPromptRunes: maxPromptRunes}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record 写入一条使用日志，提示词按配置截断
func (s *Store) Record(ctx context.Context, rec entity.AnalysisRecord) error {
	resp, err := json.MarshalString(storedResponse{
		AnalysisResult: rec.Result,
		Metadata:       responseMetadata{Model: rec.Model, TemplateID: rec.TemplateID},
	})
	if err != nil {
		return fmt.Errorf("store: encode response: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	row := UsageLog{
		ID:           uuid.New(),
		UserID:       rec.UserID,
		Symbol:       rec.Symbol,
		AnalysisType: rec.AnalysisType,
		Prompt:       utils.Truncate(rec.Prompt, s.maxPromptRunes),
		Response:     resp,
		CreatedAt:    createdAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("store: insert usage log: %w", err)
	}
	return nil
}

// Recent 返回用户最近的记录，最新在前
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]UsageLog, error) {
	var rows []UsageLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: query recent: %w", err)
	}
	return rows, nil
}

// RecentBySymbol 同 Recent，但只看某个标的
func (s *Store) RecentBySymbol(ctx context.Context, userID, symbol string, limit int) ([]UsageLog, error) {
	var rows []UsageLog
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: query recent by symbol: %w", err)
	}
	return rows, nil
}

// CountRecentBySymbol 统计用户最近 window 条记录中某个标的出现的次数
func (s *Store) CountRecentBySymbol(ctx context.Context, userID, symbol string, window int) (int64, error) {
	db := s.db.WithContext(ctx)
	recent := db.Model(&UsageLog{}).
		Select("symbol").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(window)

	var n int64
	err := db.Table("(?) AS recent", recent).
		Where("symbol = ?", symbol).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("store: count recent by symbol: %w", err)
	}
	return n, nil
}
