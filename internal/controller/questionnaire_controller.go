package controller

import (
	"screening-bot-be/internal/dto"
	"screening-bot-be/internal/pkg/apperror"
	"screening-bot-be/internal/pkg/serverutils"
	"screening-bot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQuestionnaireController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	End(ctx *fiber.Ctx) error
}

type questionnaireController struct {
	questionnaireService service.IQuestionnaireService
}

func NewQuestionnaireController(questionnaireService service.IQuestionnaireService) IQuestionnaireController {
	return &questionnaireController{
		questionnaireService: questionnaireService,
	}
}

func (c *questionnaireController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/questionnaire")
	h.Post("/start", c.Start)
	h.Post("/end", c.End)
}

func (c *questionnaireController) Start(ctx *fiber.Ctx) error {
	var req dto.StartQuestionnaireRequest
	if err := ctx.BodyParser(&req); err != nil {
		return invalidBody(err)
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.questionnaireService.Start(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Questionnaire started", res))
}

func (c *questionnaireController) End(ctx *fiber.Ctx) error {
	var req dto.EndQuestionnaireRequest
	if err := ctx.BodyParser(&req); err != nil {
		return invalidBody(err)
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.questionnaireService.End(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(res.Message, res))
}

func invalidBody(err error) error {
	return apperror.Validation(apperror.CodeInvalidRequest, "invalid request body: "+err.Error())
}
