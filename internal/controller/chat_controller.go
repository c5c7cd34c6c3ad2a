package controller

import (
	"announce-qa-be/internal/dto"
	"announce-qa-be/internal/pkg/serverutils"
	"announce-qa-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	ClearHistory(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("ask", c.Ask)
	h.Get("history/:conversation_id", c.GetHistory)
	h.Delete("history/:conversation_id", c.ClearHistory)
}

func (c *chatController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Ask(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	conversationId := ctx.Params("conversation_id")
	if conversationId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing conversation id")
	}

	res, err := c.chatService.GetHistory(ctx.Context(), conversationId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success fetch history", res))
}

func (c *chatController) ClearHistory(ctx *fiber.Ctx) error {
	conversationId := ctx.Params("conversation_id")
	if conversationId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing conversation id")
	}

	if err := c.chatService.ClearHistory(ctx.Context(), conversationId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("History cleared", nil))
}
