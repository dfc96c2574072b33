package controller

import (
	"screening-bot-be/internal/dto"
	"screening-bot-be/internal/pkg/serverutils"
	"screening-bot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IGetterController serves the public read-only routes under /get.
type IGetterController interface {
	RegisterRoutes(r fiber.Router)
	Ping(ctx *fiber.Ctx) error
	Models(ctx *fiber.Ctx) error
	ListQuestionnaires(ctx *fiber.Ctx) error
	ShowQuestionnaire(ctx *fiber.Ctx) error
	ShowChat(ctx *fiber.Ctx) error
}

type getterController struct {
	questionnaireService service.IQuestionnaireService
	chatService          service.IChatService
	reviewService        service.IReviewService
}

func NewGetterController(
	questionnaireService service.IQuestionnaireService,
	chatService service.IChatService,
	reviewService service.IReviewService,
) IGetterController {
	return &getterController{
		questionnaireService: questionnaireService,
		chatService:          chatService,
		reviewService:        reviewService,
	}
}

func (c *getterController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/get")
	h.Get("/ping", c.Ping)
	h.Get("/models", c.Models)
	h.Get("/questionnaires", c.ListQuestionnaires)
	h.Get("/questionnaire/:name", c.ShowQuestionnaire)
	h.Get("/chat/:session_id", c.ShowChat)
}

func (c *getterController) Ping(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("pong", dto.PingResponse{
		Status:  "ok",
		Message: "server is running",
	}))
}

func (c *getterController) Models(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success list models", dto.ModelListResponse{
		Models: c.chatService.Models(),
	}))
}

func (c *getterController) ListQuestionnaires(ctx *fiber.Ctx) error {
	res, err := c.questionnaireService.List(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list questionnaires", res))
}

func (c *getterController) ShowQuestionnaire(ctx *fiber.Ctx) error {
	res, err := c.questionnaireService.Show(ctx.UserContext(), ctx.Params("name"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show questionnaire", res))
}

func (c *getterController) ShowChat(ctx *fiber.Ctx) error {
	res, err := c.reviewService.GetChat(ctx.UserContext(), ctx.Params("session_id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show chat", res))
}
