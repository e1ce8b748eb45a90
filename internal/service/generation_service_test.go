package service

import (
	"context"
	"log"
	"os"
	"testing"

	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/pkg/generation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeJobRepo struct {
	records []entity.GenerationJobRecord
}

func (r *fakeJobRepo) Upsert(_ context.Context, record *entity.GenerationJobRecord) error {
	for i := range r.records {
		if r.records[i].Id == record.Id {
			r.records[i] = *record
			return nil
		}
	}
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeJobRepo) FindById(_ context.Context, id uuid.UUID) (*entity.GenerationJobRecord, error) {
	for i := range r.records {
		if r.records[i].Id == id {
			return &r.records[i], nil
		}
	}
	return nil, nil
}

func (r *fakeJobRepo) FindByUser(_ context.Context, userId string, limit, offset int) ([]entity.GenerationJobRecord, int64, error) {
	var matched []entity.GenerationJobRecord
	for _, record := range r.records {
		if record.UserId == userId {
			matched = append(matched, record)
		}
	}
	total := int64(len(matched))
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (r *fakeJobRepo) FindBySession(_ context.Context, sessionId string) ([]entity.GenerationJobRecord, error) {
	var matched []entity.GenerationJobRecord
	for _, record := range r.records {
		if record.SessionId == sessionId {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func seededJobRepo() *fakeJobRepo {
	return &fakeJobRepo{records: []entity.GenerationJobRecord{
		{Id: uuid.New(), SessionId: "panel-1", UserId: "user-1", Kind: generation.KindImage, Status: generation.StatusSucceeded},
		{Id: uuid.New(), SessionId: "panel-1", UserId: "user-2", Kind: generation.KindVideo, Status: generation.StatusRunning},
		{Id: uuid.New(), SessionId: "panel-2", UserId: "user-1", Kind: generation.KindAudio, Status: generation.StatusFailed},
	}}
}

func newTestGenerationService(repo *fakeJobRepo) IGenerationService {
	orch := generation.NewOrchestrator(stubRender{}, nil, nil, log.New(os.Stderr, "", 0))
	return NewGenerationService(orch, repo, &noopLogger{})
}

func TestListByUser(t *testing.T) {
	svc := newTestGenerationService(seededJobRepo())

	res, err := svc.List(context.Background(), "user-1", "", 20, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	assert.Len(t, res.Jobs, 2)
}

func TestListBySessionFiltersOwnership(t *testing.T) {
	svc := newTestGenerationService(seededJobRepo())

	res, err := svc.List(context.Background(), "user-1", "panel-1", 20, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	if assert.Len(t, res.Jobs, 1) {
		assert.Equal(t, generation.KindImage, res.Jobs[0].Kind)
		assert.Equal(t, "panel-1", res.Jobs[0].SessionId)
	}
}

func TestStatusFallsBackToAuditTable(t *testing.T) {
	repo := seededJobRepo()
	svc := newTestGenerationService(repo)

	res, err := svc.Status(context.Background(), "user-1", repo.records[0].Id)
	assert.NoError(t, err)
	assert.Equal(t, generation.StatusSucceeded, res.Status)

	_, err = svc.Status(context.Background(), "user-1", repo.records[1].Id)
	assert.ErrorIs(t, err, generation.ErrJobNotFound)
}
