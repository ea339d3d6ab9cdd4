package controller

import (
	"field-data-be/internal/dto"
	"field-data-be/internal/pkg/serverutils"
	"field-data-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ILocationController interface {
	RegisterRoutes(r fiber.Router)
	Report(ctx *fiber.Ctx) error
	Current(ctx *fiber.Ctx) error
}

type locationController struct {
	service service.ILocationService
}

func NewLocationController(service service.ILocationService) ILocationController {
	return &locationController{service: service}
}

// RegisterRoutes leaves /feed to the stream handler.
func (c *locationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/location/v1")
	h.Post("", c.Report)
	h.Get("", c.Current)
}

func (c *locationController) Report(ctx *fiber.Ctx) error {
	var req dto.ReportLocationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Report(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Location updated", res))
}

func (c *locationController) Current(ctx *fiber.Ctx) error {
	res, ok := c.service.Current(ctx.UserContext())
	if !ok {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "no location reading yet"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get location", res))
}
