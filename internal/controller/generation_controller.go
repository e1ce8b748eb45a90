package controller

import (
	"ai-storycraft-be/internal/dto"
	"ai-storycraft-be/internal/pkg/serverutils"
	"ai-storycraft-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IGenerationController interface {
	RegisterRoutes(r fiber.Router)
	Dispatch(ctx *fiber.Ctx) error
	Retry(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type generationController struct {
	generationService service.IGenerationService
}

func NewGenerationController(generationService service.IGenerationService) IGenerationController {
	return &generationController{
		generationService: generationService,
	}
}

func (c *generationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/generation/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Dispatch)
	h.Get("", c.List)
	h.Post(":id/retry", c.Retry)
	h.Get(":id", c.Status)
}

func (c *generationController) Dispatch(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)
	identity := ctx.Locals("identity_token").(string)

	var req dto.DispatchJobRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.generationService.Dispatch(ctx.Context(), userId, identity, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success dispatch job", res))
}

func (c *generationController) Retry(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)
	identity := ctx.Locals("identity_token").(string)

	jobId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid job id")
	}

	res, err := c.generationService.Retry(ctx.Context(), userId, identity, jobId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success retry job", res))
}

func (c *generationController) Status(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	jobId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid job id")
	}

	res, err := c.generationService.Status(ctx.Context(), userId, jobId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show job", res))
}

func (c *generationController) List(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	sessionId := ctx.Query("session_id")
	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.generationService.List(ctx.Context(), userId, sessionId, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list jobs", res))
}
