package controller

import (
	"ai-storycraft-be/internal/dto"
	"ai-storycraft-be/internal/pkg/serverutils"
	"ai-storycraft-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	OpenPanel(ctx *fiber.Ctx) error
	SwitchMode(ctx *fiber.Ctx) error
	SendInput(ctx *fiber.Ctx) error
	StartWorkflow(ctx *fiber.Ctx) error
	CancelWorkflow(ctx *fiber.Ctx) error
	ConfirmInsert(ctx *fiber.Ctx) error
	Transcript(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
}

func NewAssistantController(assistantService service.IAssistantService) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/panel", c.OpenPanel)
	h.Post("/panel/:id/mode", c.SwitchMode)
	h.Post("/panel/:id/chat", c.SendInput)
	h.Post("/panel/:id/workflow", c.StartWorkflow)
	h.Delete("/panel/:id/workflow", c.CancelWorkflow)
	h.Post("/panel/:id/insert", c.ConfirmInsert)
	h.Get("/panel/:id/transcript", c.Transcript)
}

func (c *assistantController) OpenPanel(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	var req dto.OpenPanelRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.OpenPanel(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success open panel", res))
}

func (c *assistantController) SwitchMode(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)
	sessionId := ctx.Params("id")

	var req dto.SwitchModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.SwitchMode(ctx.Context(), userId, sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success switch mode", res))
}

func (c *assistantController) SendInput(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)
	identity := ctx.Locals("identity_token").(string)
	sessionId := ctx.Params("id")

	var req dto.SendInputRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.SendInput(ctx.Context(), userId, sessionId, identity, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send input", res))
}

func (c *assistantController) StartWorkflow(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)
	sessionId := ctx.Params("id")

	var req dto.StartWorkflowRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.StartWorkflow(ctx.Context(), userId, sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start workflow", res))
}

func (c *assistantController) CancelWorkflow(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)
	sessionId := ctx.Params("id")

	cancelled, err := c.assistantService.CancelWorkflow(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success cancel workflow", fiber.Map{"cancelled": cancelled}))
}

// ConfirmInsert inserts either the completed interview entity or, when the
// body names a job id, a finished generation result.
func (c *assistantController) ConfirmInsert(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)
	sessionId := ctx.Params("id")

	var req dto.InsertJobResultRequest
	// Empty body means "insert the completed entity"
	_ = ctx.BodyParser(&req)

	var (
		res *dto.InsertResponse
		err error
	)
	if req.JobId != uuid.Nil {
		res, err = c.assistantService.InsertJobResult(ctx.Context(), userId, sessionId, req.JobId)
	} else {
		res, err = c.assistantService.ConfirmInsert(ctx.Context(), userId, sessionId)
	}
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success insert", res))
}

func (c *assistantController) Transcript(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)
	sessionId := ctx.Params("id")

	res, err := c.assistantService.Transcript(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show transcript", res))
}
