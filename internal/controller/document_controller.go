package controller

import (
	"strconv"

	"pdf-annotator-be/internal/pkg/serverutils"
	"pdf-annotator-be/internal/service"
	"pdf-annotator-be/pkg/annotation"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Workspace(ctx *fiber.Ctx) error
	PageImage(ctx *fiber.Ctx) error
	Download(ctx *fiber.Ctx) error
	Discard(ctx *fiber.Ctx) error
}

type documentController struct {
	service   service.IAnnotationService
	startPath string
}

// NewDocumentController wires the document endpoints. Navigational endpoints
// send callers without a loaded document back to startPath.
func NewDocumentController(service service.IAnnotationService, startPath string) IDocumentController {
	return &documentController{service: service, startPath: startPath}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/documents")
	h.Post("", c.Upload)
	h.Get("/current", c.Workspace)
	h.Delete("/current", c.Discard)
	h.Get("/current/pages/:page/image", c.PageImage)
	h.Get("/current/download", c.Download)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	header, err := ctx.FormFile("pdf_file")
	if err != nil {
		return annotation.Validation(annotation.CodeMissingField, "Select a PDF file")
	}
	file, err := header.Open()
	if err != nil {
		return annotation.Validation(annotation.CodeInvalidBody, "Uploaded file could not be read")
	}
	defer file.Close()

	res, err := c.service.Upload(ctx.UserContext(), serverutils.SessionID(ctx), file)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("PDF uploaded", res))
}

func (c *documentController) Workspace(ctx *fiber.Ctx) error {
	res, err := c.service.Workspace(ctx.UserContext(), serverutils.SessionID(ctx))
	if annotation.KindOf(err) == annotation.KindPrecondition {
		return ctx.Redirect(c.startPath, fiber.StatusSeeOther)
	}
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Current document", res))
}

func (c *documentController) PageImage(ctx *fiber.Ctx) error {
	pageNum, err := strconv.Atoi(ctx.Params("page"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "PDF page not found or PDF not loaded.")
	}

	img, err := c.service.PageImage(ctx.UserContext(), serverutils.SessionID(ctx), pageNum)
	if annotation.KindOf(err) == annotation.KindPrecondition {
		return fiber.NewError(fiber.StatusNotFound, "PDF page not found or PDF not loaded.")
	}
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "image/png")
	ctx.Set(fiber.HeaderCacheControl, "no-store")
	return ctx.Send(img)
}

func (c *documentController) Download(ctx *fiber.Ctx) error {
	res, err := c.service.Export(ctx.UserContext(), serverutils.SessionID(ctx))
	if annotation.KindOf(err) == annotation.KindPrecondition {
		return ctx.Redirect(c.startPath, fiber.StatusSeeOther)
	}
	if err != nil {
		return err
	}

	ctx.Attachment(res.Filename)
	ctx.Set(fiber.HeaderContentType, "application/pdf")
	ctx.Set("X-Annotation-Warnings", strconv.Itoa(len(res.Warnings)))
	return ctx.Send(res.Data)
}

func (c *documentController) Discard(ctx *fiber.Ctx) error {
	if err := c.service.Discard(ctx.UserContext(), serverutils.SessionID(ctx)); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Session discarded", nil))
}
