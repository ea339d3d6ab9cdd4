package controller

import (
	"fmt"

	"field-data-be/internal/dto"
	"field-data-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IExportController interface {
	RegisterRoutes(r fiber.Router)
	Download(ctx *fiber.Ctx) error
}

type exportController struct {
	exportService service.IExportService
}

func NewExportController(exportService service.IExportService) IExportController {
	return &exportController{exportService: exportService}
}

func (c *exportController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/export/v1")
	h.Get("", c.Download)
}

func (c *exportController) Download(ctx *fiber.Ctx) error {
	var req dto.ExportRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.exportService.Export(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "application/zip")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, res.FileName))
	ctx.Set("X-Record-Count", fmt.Sprint(res.RecordCount))
	return ctx.Send(res.Data)
}
