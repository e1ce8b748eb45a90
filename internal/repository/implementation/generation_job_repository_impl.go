package implementation

import (
	"context"
	"errors"

	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GenerationJobRepositoryImpl struct {
	db *gorm.DB
}

func NewGenerationJobRepository(db *gorm.DB) contract.GenerationJobRepository {
	return &GenerationJobRepositoryImpl{db: db}
}

// Upsert writes the latest job snapshot. Every orchestrator transition lands
// here, so conflicts on id are routine, not errors.
func (r *GenerationJobRepositoryImpl) Upsert(ctx context.Context, record *entity.GenerationJobRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(record).Error
}

func (r *GenerationJobRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.GenerationJobRecord, error) {
	var record entity.GenerationJobRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *GenerationJobRepositoryImpl) FindByUser(ctx context.Context, userId string, limit, offset int) ([]entity.GenerationJobRecord, int64, error) {
	var records []entity.GenerationJobRecord
	var total int64

	db := r.db.WithContext(ctx).Model(&entity.GenerationJobRecord{}).Where("user_id = ?", userId)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error

	return records, total, err
}

func (r *GenerationJobRepositoryImpl) FindBySession(ctx context.Context, sessionId string) ([]entity.GenerationJobRecord, error) {
	var records []entity.GenerationJobRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}
