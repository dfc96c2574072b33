package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"screening-bot-be/internal/dto"
	"screening-bot-be/internal/pkg/logger"
	"screening-bot-be/internal/pkg/serverutils"
	"screening-bot-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	logger      logger.ILogger
}

func NewChatController(chatService service.IChatService, logger logger.ILogger) IChatController {
	return &chatController{
		chatService: chatService,
		logger:      logger,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Post("/stream", c.Stream)
}

// Stream answers with server-sent events. Errors before the first byte use the
// normal JSON error path; after that they arrive as an in-band error frame.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	var req dto.ChatStreamRequest
	if err := ctx.BodyParser(&req); err != nil {
		return invalidBody(err)
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	turn, err := c.chatService.BeginTurn(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// The writer runs after this handler returns, when ctx is no longer valid.
	streamCtx := context.WithoutCancel(ctx.UserContext())
	sessionId := req.SessionId

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		err := turn.Stream(streamCtx, func(frame dto.StreamFrame) error {
			return writeFrame(w, frame)
		})
		if err != nil {
			c.logger.Warn("HTTP", "Chat stream ended early", map[string]interface{}{
				"session_id": sessionId,
				"error":      err,
			})
		}
	}))

	return nil
}

func writeFrame(w *bufio.Writer, frame dto.StreamFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}
