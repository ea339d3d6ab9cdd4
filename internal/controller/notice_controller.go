package controller

import (
	"field-data-be/internal/dto"
	"field-data-be/internal/pkg/serverutils"
	"field-data-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type INoticeController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
}

type noticeController struct {
	noticeService service.INoticeService
}

func NewNoticeController(noticeService service.INoticeService) INoticeController {
	return &noticeController{noticeService: noticeService}
}

func (c *noticeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/notices/v1")
	h.Get("", c.List)
}

func (c *noticeController) List(ctx *fiber.Ctx) error {
	var req dto.ListNoticesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.noticeService.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get notices", res))
}
