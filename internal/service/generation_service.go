package service

import (
	"context"
	"encoding/json"

	"ai-storycraft-be/internal/dto"
	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/pkg/logger"
	"ai-storycraft-be/internal/repository/contract"
	"ai-storycraft-be/pkg/generation"

	"github.com/google/uuid"
)

type IGenerationService interface {
	Dispatch(ctx context.Context, userId, identity string, req *dto.DispatchJobRequest) (*dto.DispatchJobResponse, error)
	Retry(ctx context.Context, userId, identity string, jobId uuid.UUID) (*dto.DispatchJobResponse, error)
	Status(ctx context.Context, userId string, jobId uuid.UUID) (*dto.JobStatusResponse, error)
	List(ctx context.Context, userId, sessionId string, limit, offset int) (*dto.JobListResponse, error)
}

type generationService struct {
	orchestrator *generation.Orchestrator
	jobRepo      contract.GenerationJobRepository
	logger       logger.ILogger
}

func NewGenerationService(
	orchestrator *generation.Orchestrator,
	jobRepo contract.GenerationJobRepository,
	sysLogger logger.ILogger,
) IGenerationService {
	return &generationService{
		orchestrator: orchestrator,
		jobRepo:      jobRepo,
		logger:       sysLogger,
	}
}

func (s *generationService) Dispatch(ctx context.Context, userId, identity string, req *dto.DispatchJobRequest) (*dto.DispatchJobResponse, error) {
	payload := generation.Payload{
		Prompt:      req.Prompt,
		Lyrics:      req.Lyrics,
		Tags:        req.Tags,
		DurationSec: req.DurationSec,
		AspectRatio: req.AspectRatio,
	}

	jobId, err := s.orchestrator.Dispatch(req.Kind, payload, req.SessionId, userId, identity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Generation", "Job dispatched", map[string]interface{}{
		"job_id":     jobId,
		"kind":       req.Kind,
		"session_id": req.SessionId,
	})
	return &dto.DispatchJobResponse{JobId: jobId}, nil
}

func (s *generationService) Retry(ctx context.Context, userId, identity string, jobId uuid.UUID) (*dto.DispatchJobResponse, error) {
	if _, err := s.ownedJob(ctx, userId, jobId); err != nil {
		return nil, err
	}

	newId, err := s.orchestrator.Redispatch(jobId, identity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Generation", "Job redispatched", map[string]interface{}{
		"job_id":   newId,
		"retry_of": jobId,
	})
	return &dto.DispatchJobResponse{JobId: newId}, nil
}

func (s *generationService) Status(ctx context.Context, userId string, jobId uuid.UUID) (*dto.JobStatusResponse, error) {
	job, err := s.ownedJob(ctx, userId, jobId)
	if err != nil {
		return nil, err
	}
	return jobToDTO(job), nil
}

// List reads from the audit table, not the orchestrator, so it also covers
// jobs of previous process lifetimes. A non-empty sessionId narrows the
// listing to one panel session.
func (s *generationService) List(ctx context.Context, userId, sessionId string, limit, offset int) (*dto.JobListResponse, error) {
	if sessionId != "" {
		records, err := s.jobRepo.FindBySession(ctx, sessionId)
		if err != nil {
			return nil, err
		}
		jobs := make([]dto.JobStatusResponse, 0, len(records))
		for _, record := range records {
			if record.UserId != userId {
				continue
			}
			jobs = append(jobs, *recordToDTO(&record))
		}
		return &dto.JobListResponse{Jobs: jobs, Total: int64(len(jobs))}, nil
	}

	records, total, err := s.jobRepo.FindByUser(ctx, userId, limit, offset)
	if err != nil {
		return nil, err
	}

	jobs := make([]dto.JobStatusResponse, 0, len(records))
	for _, record := range records {
		jobs = append(jobs, *recordToDTO(&record))
	}
	return &dto.JobListResponse{Jobs: jobs, Total: total}, nil
}

// ownedJob resolves a job id against the live orchestrator first, then the
// audit table, enforcing ownership either way.
func (s *generationService) ownedJob(ctx context.Context, userId string, jobId uuid.UUID) (generation.Job, error) {
	job, err := s.orchestrator.Status(jobId)
	if err == nil {
		if job.UserID != userId {
			return generation.Job{}, generation.ErrJobNotFound
		}
		return job, nil
	}

	record, repoErr := s.jobRepo.FindById(ctx, jobId)
	if repoErr != nil {
		return generation.Job{}, repoErr
	}
	if record == nil || record.UserId != userId {
		return generation.Job{}, generation.ErrJobNotFound
	}
	return recordToJob(record), nil
}

func jobToDTO(job generation.Job) *dto.JobStatusResponse {
	res := &dto.JobStatusResponse{
		JobId:     job.ID,
		SessionId: job.SessionID,
		Kind:      job.Kind,
		Status:    job.Status,
		Error:     job.Error,
		RetryOf:   job.RetryOf,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if job.Result != nil {
		res.Result = &dto.AssetDTO{URL: job.Result.URL, MimeType: job.Result.MimeType}
	}
	return res
}

func recordToDTO(record *entity.GenerationJobRecord) *dto.JobStatusResponse {
	return jobToDTO(recordToJob(record))
}

func recordToJob(record *entity.GenerationJobRecord) generation.Job {
	job := generation.Job{
		ID:        record.Id,
		SessionID: record.SessionId,
		UserID:    record.UserId,
		Kind:      record.Kind,
		Status:    record.Status,
		Error:     record.Error,
		RetryOf:   record.RetryOf,
		RemoteID:  record.RemoteId,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if len(record.Payload) > 0 {
		_ = json.Unmarshal(record.Payload, &job.Payload)
	}
	if len(record.Result) > 0 {
		var asset generation.AssetRef
		if err := json.Unmarshal(record.Result, &asset); err == nil && asset.URL != "" {
			job.Result = &asset
		}
	}
	return job
}

// GormAuditSink persists every orchestrator transition to the audit table.
type GormAuditSink struct {
	jobRepo contract.GenerationJobRepository
}

func NewGormAuditSink(jobRepo contract.GenerationJobRepository) *GormAuditSink {
	return &GormAuditSink{jobRepo: jobRepo}
}

func (a *GormAuditSink) Record(ctx context.Context, job generation.Job) error {
	payloadJSON, err := json.Marshal(job.Payload)
	if err != nil {
		return err
	}
	var resultJSON []byte
	if job.Result != nil {
		resultJSON, err = json.Marshal(job.Result)
		if err != nil {
			return err
		}
	}

	return a.jobRepo.Upsert(ctx, &entity.GenerationJobRecord{
		Id:        job.ID,
		SessionId: job.SessionID,
		UserId:    job.UserID,
		Kind:      job.Kind,
		Status:    job.Status,
		Payload:   payloadJSON,
		Result:    resultJSON,
		Error:     job.Error,
		RetryOf:   job.RetryOf,
		RemoteId:  job.RemoteID,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	})
}
