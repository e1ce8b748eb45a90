package service

import (
	"context"
	"sync"

	"ai-storycraft-be/internal/dto"
	"ai-storycraft-be/internal/pkg/logger"
	"ai-storycraft-be/internal/pkg/serverutils"
	"ai-storycraft-be/internal/repository/memory"
	"ai-storycraft-be/pkg/panel"
	"ai-storycraft-be/pkg/store"

	"github.com/google/uuid"
)

type IAssistantService interface {
	OpenPanel(ctx context.Context, userId string, req *dto.OpenPanelRequest) (*dto.PanelSessionResponse, error)
	SwitchMode(ctx context.Context, userId, sessionId string, req *dto.SwitchModeRequest) (*dto.PanelSessionResponse, error)
	SendInput(ctx context.Context, userId, sessionId, identity string, req *dto.SendInputRequest) (*dto.SendInputResponse, error)
	StartWorkflow(ctx context.Context, userId, sessionId string, req *dto.StartWorkflowRequest) (*dto.SendInputResponse, error)
	CancelWorkflow(ctx context.Context, userId, sessionId string) (bool, error)
	ConfirmInsert(ctx context.Context, userId, sessionId string) (*dto.InsertResponse, error)
	InsertJobResult(ctx context.Context, userId, sessionId string, jobId uuid.UUID) (*dto.InsertResponse, error)
	Transcript(ctx context.Context, userId, sessionId string) (*dto.TranscriptResponse, error)
}

type assistantService struct {
	sessions   *memory.PanelSessionRepository
	controller *panel.Controller
	logger     logger.ILogger

	// One lock per live session. Panel events are strictly serialized per
	// session; concurrent requests on the same session queue up here.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAssistantService(
	sessions *memory.PanelSessionRepository,
	controller *panel.Controller,
	sysLogger logger.ILogger,
) IAssistantService {
	return &assistantService{
		sessions:   sessions,
		controller: controller,
		logger:     sysLogger,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (s *assistantService) sessionLock(sessionId string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[sessionId]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[sessionId] = l
	return l
}

func (s *assistantService) OpenPanel(ctx context.Context, userId string, req *dto.OpenPanelRequest) (*dto.PanelSessionResponse, error) {
	lock := s.sessionLock(req.SessionId)
	lock.Lock()
	defer lock.Unlock()

	// Reopening an existing session keeps its transcript and mode.
	if existing, ok := s.sessions.Get(req.SessionId); ok && existing.UserID == userId {
		s.sessions.Save(existing)
		return sessionToDTO(existing), nil
	}

	session, err := s.controller.Open(ctx, req.SessionId, userId, req.DocumentId)
	if err != nil {
		return nil, err
	}
	s.sessions.Save(session)

	s.logger.Info("Assistant", "Panel opened", map[string]interface{}{
		"session_id":  session.ID,
		"user_id":     userId,
		"document_id": req.DocumentId,
	})
	return sessionToDTO(session), nil
}

func (s *assistantService) SwitchMode(ctx context.Context, userId, sessionId string, req *dto.SwitchModeRequest) (*dto.PanelSessionResponse, error) {
	lock := s.sessionLock(sessionId)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}

	if err := s.controller.SwitchMode(ctx, session, store.Mode(req.Mode), req.ConfirmDiscard); err != nil {
		return nil, err
	}
	s.sessions.Save(session)
	return sessionToDTO(session), nil
}

func (s *assistantService) SendInput(ctx context.Context, userId, sessionId, identity string, req *dto.SendInputRequest) (*dto.SendInputResponse, error) {
	lock := s.sessionLock(sessionId)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}

	outcome, err := s.controller.RouteInput(ctx, session, req.Text, identity)
	if err != nil {
		return nil, err
	}
	s.sessions.Save(session)
	return outcomeToDTO(outcome), nil
}

func (s *assistantService) StartWorkflow(ctx context.Context, userId, sessionId string, req *dto.StartWorkflowRequest) (*dto.SendInputResponse, error) {
	lock := s.sessionLock(sessionId)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}

	outcome, err := s.controller.StartWorkflow(session, req.EntityKind, req.ConfirmDiscard)
	if err != nil {
		return nil, err
	}
	s.sessions.Save(session)
	return outcomeToDTO(outcome), nil
}

func (s *assistantService) CancelWorkflow(ctx context.Context, userId, sessionId string) (bool, error) {
	lock := s.sessionLock(sessionId)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.session(userId, sessionId)
	if err != nil {
		return false, err
	}

	cancelled := s.controller.CancelWorkflow(session)
	s.sessions.Save(session)
	return cancelled, nil
}

func (s *assistantService) ConfirmInsert(ctx context.Context, userId, sessionId string) (*dto.InsertResponse, error) {
	lock := s.sessionLock(sessionId)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}

	result, err := s.controller.ConfirmInsert(ctx, session)
	if err != nil {
		return nil, err
	}
	s.sessions.Save(session)
	return &dto.InsertResponse{
		Applied:    result.Applied,
		Duplicate:  result.Duplicate,
		DocumentId: result.DocumentID,
		Position:   result.Position,
	}, nil
}

func (s *assistantService) InsertJobResult(ctx context.Context, userId, sessionId string, jobId uuid.UUID) (*dto.InsertResponse, error) {
	lock := s.sessionLock(sessionId)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}

	result, err := s.controller.InsertJobResult(ctx, session, jobId)
	if err != nil {
		return nil, err
	}
	return &dto.InsertResponse{
		Applied:    result.Applied,
		Duplicate:  result.Duplicate,
		DocumentId: result.DocumentID,
		Position:   result.Position,
	}, nil
}

func (s *assistantService) Transcript(ctx context.Context, userId, sessionId string) (*dto.TranscriptResponse, error) {
	lock := s.sessionLock(sessionId)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}

	messages := make([]dto.ChatMessageDTO, 0, len(session.Transcript))
	for _, msg := range session.Transcript {
		messages = append(messages, messageToDTO(msg))
	}
	return &dto.TranscriptResponse{
		SessionId: session.ID,
		Messages:  messages,
	}, nil
}

func (s *assistantService) session(userId, sessionId string) (*store.ModeSession, error) {
	session, ok := s.sessions.Get(sessionId)
	if !ok || session.UserID != userId {
		return nil, serverutils.ErrSessionNotFound
	}
	return session, nil
}

func sessionToDTO(session *store.ModeSession) *dto.PanelSessionResponse {
	return &dto.PanelSessionResponse{
		SessionId:      session.ID,
		ActiveMode:     string(session.ActiveMode),
		DocumentId:     session.DocumentContext.DocumentID,
		CursorPosition: session.DocumentContext.CursorPosition,
		Phase:          string(session.Phase),
	}
}

func messageToDTO(msg store.ChatMessage) dto.ChatMessageDTO {
	return dto.ChatMessageDTO{
		Id:          msg.ID,
		Role:        msg.Role,
		Text:        msg.Text,
		CreatedAt:   msg.Timestamp,
		WorkflowTag: msg.WorkflowTag,
		IsError:     msg.IsError,
	}
}

func outcomeToDTO(outcome panel.RouteOutcome) *dto.SendInputResponse {
	res := &dto.SendInputResponse{
		InterviewCompleted: outcome.InterviewCompleted,
	}
	if outcome.Reply != nil {
		reply := messageToDTO(*outcome.Reply)
		res.Reply = &reply
	}
	if outcome.JobID != uuid.Nil {
		jobId := outcome.JobID
		res.JobId = &jobId
	}
	if outcome.Payload != nil {
		res.Entity = &dto.EntityPayloadDTO{
			EntityKind: outcome.Payload.EntityKind,
			EntityId:   outcome.Payload.EntityID,
			WorkflowId: outcome.Payload.WorkflowID,
			Fields:     outcome.Payload.Fields,
		}
	}
	return res
}
