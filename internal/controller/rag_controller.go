package controller

import (
	"bufio"
	"context"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/service"
	"ai-tutor-be/pkg/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IRagController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type ragController struct {
	ragService service.IRagService
	logger     logger.ILogger
}

func NewRagController(ragService service.IRagService, log logger.ILogger) IRagController {
	return &ragController{
		ragService: ragService,
		logger:     log,
	}
}

func (c *ragController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.CreateSession)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Get(":id/stream", c.Stream)
	h.Post(":id/cancel", c.Cancel)
}

func (c *ragController) CreateSession(ctx *fiber.Ctx) error {
	userId, tenantId := identityFromLocals(ctx)

	var req dto.CreateAnswerSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ragService.CreateAnswerSession(ctx.Context(), userId, tenantId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Session started", res))
}

// Stream attaches the caller to a live session as its single SSE consumer.
// The stream stays open through retries and rewrites; only the done event
// ends it.
func (c *ragController) Stream(ctx *fiber.Ctx) error {
	userId, _ := identityFromLocals(ctx)
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	publisher, err := c.ragService.Stream(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		if err := stream.ServeSSE(context.Background(), w, publisher); err != nil {
			c.logger.Warn("rag_controller", "SSE stream ended with error", map[string]interface{}{
				"session_id": sessionId,
				"error":      err.Error(),
			})
		}
	}))
	return nil
}

func (c *ragController) Cancel(ctx *fiber.Ctx) error {
	userId, _ := identityFromLocals(ctx)
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	if err := c.ragService.Cancel(ctx.Context(), userId, sessionId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session cancelled", nil))
}

func (c *ragController) Show(ctx *fiber.Ctx) error {
	userId, _ := identityFromLocals(ctx)
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	res, err := c.ragService.Show(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *ragController) List(ctx *fiber.Ctx) error {
	userId, _ := identityFromLocals(ctx)

	res, err := c.ragService.List(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}
