package contract

import (
	"context"

	"ai-storycraft-be/internal/entity"

	"github.com/google/uuid"
)

type GenerationJobRepository interface {
	Upsert(ctx context.Context, record *entity.GenerationJobRecord) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.GenerationJobRecord, error)
	FindByUser(ctx context.Context, userId string, limit, offset int) ([]entity.GenerationJobRecord, int64, error)
	FindBySession(ctx context.Context, sessionId string) ([]entity.GenerationJobRecord, error)
}
