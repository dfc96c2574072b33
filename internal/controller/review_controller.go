package controller

import (
	"screening-bot-be/internal/dto"
	"screening-bot-be/internal/pkg/serverutils"
	"screening-bot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IReviewController serves the psychologist dashboard. Every route requires a
// bearer token.
type IReviewController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	ListResponses(ctx *fiber.Ctx) error
	ShowChat(ctx *fiber.Ctx) error
	UpdateDiagnosis(ctx *fiber.Ctx) error
	Schools(ctx *fiber.Ctx) error
	ImportQuestionnaire(ctx *fiber.Ctx) error
}

type reviewController struct {
	reviewService        service.IReviewService
	questionnaireService service.IQuestionnaireService
}

func NewReviewController(reviewService service.IReviewService, questionnaireService service.IQuestionnaireService) IReviewController {
	return &reviewController{
		reviewService:        reviewService,
		questionnaireService: questionnaireService,
	}
}

func (c *reviewController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/psychologist", auth)
	h.Get("/chat-responses", c.ListResponses)
	h.Get("/chat/:session_id", c.ShowChat)
	h.Post("/update-diagnosis", c.UpdateDiagnosis)
	h.Get("/schools", c.Schools)
	h.Post("/questionnaire", c.ImportQuestionnaire)
}

func (c *reviewController) ListResponses(ctx *fiber.Ctx) error {
	var query dto.ChatResponsesQuery
	if err := ctx.QueryParser(&query); err != nil {
		return invalidBody(err)
	}

	res, err := c.reviewService.ListResponses(ctx.UserContext(), &query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list responses", res))
}

func (c *reviewController) ShowChat(ctx *fiber.Ctx) error {
	res, err := c.reviewService.GetChat(ctx.UserContext(), ctx.Params("session_id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show chat", res))
}

func (c *reviewController) UpdateDiagnosis(ctx *fiber.Ctx) error {
	var req dto.UpdateDiagnosisRequest
	if err := ctx.BodyParser(&req); err != nil {
		return invalidBody(err)
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.reviewService.UpdateDiagnosis(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(res.Message, res))
}

func (c *reviewController) Schools(ctx *fiber.Ctx) error {
	res, err := c.reviewService.Schools(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list schools", res))
}

func (c *reviewController) ImportQuestionnaire(ctx *fiber.Ctx) error {
	var req dto.ImportQuestionnaireRequest
	if err := ctx.BodyParser(&req); err != nil {
		return invalidBody(err)
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.questionnaireService.Import(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Questionnaire imported", res))
}
