package controller

import (
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IQuestionController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	ListSets(ctx *fiber.Ctx) error
	ShowSet(ctx *fiber.Ctx) error
	Review(ctx *fiber.Ctx) error
	Edit(ctx *fiber.Ctx) error
}

type questionController struct {
	questionService service.IQuestionService
}

func NewQuestionController(questionService service.IQuestionService) IQuestionController {
	return &questionController{
		questionService: questionService,
	}
}

func (c *questionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/questions")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/sessions", c.CreateSession)
	h.Get("/sets", c.ListSets)
	h.Get("/sets/:id", c.ShowSet)
	h.Put(":id/review", c.Review)
	h.Put(":id", c.Edit)
}

func (c *questionController) CreateSession(ctx *fiber.Ctx) error {
	userId, tenantId := identityFromLocals(ctx)

	var req dto.CreateQuestionSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.questionService.CreateQuestionSession(ctx.Context(), userId, tenantId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Question session started", res))
}

func (c *questionController) ListSets(ctx *fiber.Ctx) error {
	userId, _ := identityFromLocals(ctx)

	res, err := c.questionService.ListSets(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list question sets", res))
}

func (c *questionController) ShowSet(ctx *fiber.Ctx) error {
	userId, _ := identityFromLocals(ctx)
	setId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid question set id")
	}

	res, err := c.questionService.ShowSet(ctx.Context(), userId, setId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show question set", res))
}

func (c *questionController) Review(ctx *fiber.Ctx) error {
	userId, _ := identityFromLocals(ctx)
	questionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid question id")
	}

	var req dto.ReviewQuestionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.QuestionId = questionId

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.questionService.Review(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success review question", res))
}

func (c *questionController) Edit(ctx *fiber.Ctx) error {
	userId, _ := identityFromLocals(ctx)
	questionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid question id")
	}

	var req dto.EditQuestionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.QuestionId = questionId

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.questionService.Edit(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success edit question", res))
}
