package serverutils

import (
	"errors"
	"log"

	"ai-storycraft-be/pkg/editor"
	"ai-storycraft-be/pkg/generation"
	"ai-storycraft-be/pkg/interview"
	"ai-storycraft-be/pkg/panel"
	"ai-storycraft-be/pkg/workflow"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps domain errors to HTTP statuses so controllers
// can return errors straight from the service layer.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		code := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, workflow.ErrWorkflowNotFound),
			errors.Is(err, generation.ErrJobNotFound),
			errors.Is(err, ErrSessionNotFound):
			code = fiber.StatusNotFound
		case errors.Is(err, panel.ErrUnknownMode):
			code = fiber.StatusBadRequest
		case errors.Is(err, panel.ErrDiscardRequired),
			errors.Is(err, interview.ErrSessionBusy),
			errors.Is(err, interview.ErrInvalidPhase),
			errors.Is(err, interview.ErrNoCompletedInterview):
			code = fiber.StatusConflict
		case errors.Is(err, generation.ErrInvalidPayload):
			code = fiber.StatusUnprocessableEntity
		case errors.Is(err, editor.ErrMutationApplyFailed),
			errors.Is(err, generation.ErrCollaboratorUnavailable):
			code = fiber.StatusBadGateway
		}

		if code == fiber.StatusInternalServerError {
			log.Printf("[ERROR] Unhandled error on %s %s: %v", ctx.Method(), ctx.Path(), err)
		}
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}

// ErrSessionNotFound is shared by controllers resolving a panel session id.
var ErrSessionNotFound = errors.New("panel session not found")
