package controller

import (
	"pdf-annotator-be/internal/dto"
	"pdf-annotator-be/internal/pkg/serverutils"
	"pdf-annotator-be/internal/service"
	"pdf-annotator-be/pkg/annotation"

	"github.com/gofiber/fiber/v2"
)

type IAnnotationController interface {
	RegisterRoutes(r fiber.Router)
	Toggle(ctx *fiber.Ctx) error
}

type annotationController struct {
	service service.IAnnotationService
}

func NewAnnotationController(service service.IAnnotationService) IAnnotationController {
	return &annotationController{service: service}
}

func (c *annotationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/annotations")
	h.Post("/toggle", c.Toggle)
}

func (c *annotationController) Toggle(ctx *fiber.Ctx) error {
	var req dto.ToggleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return annotation.Validation(annotation.CodeInvalidBody, "Invalid JSON")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Toggle(ctx.UserContext(), serverutils.SessionID(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
