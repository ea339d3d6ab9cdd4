package controller

import (
	"field-data-be/internal/dto"
	"field-data-be/internal/pkg/serverutils"
	"field-data-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRecordController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	CreateNote(ctx *fiber.Ctx) error
	CreateMeasurement(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
}

type recordController struct {
	recordService service.IRecordService
}

func NewRecordController(recordService service.IRecordService) IRecordController {
	return &recordController{recordService: recordService}
}

func (c *recordController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/record/v1")
	h.Get("", c.List)
	h.Delete("", c.Clear)
	h.Post("/note", c.CreateNote)
	h.Post("/measurement", c.CreateMeasurement)
	h.Delete("/:id", c.Delete)
}

func (c *recordController) List(ctx *fiber.Ctx) error {
	var req dto.ListRecordsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.recordService.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get records", res))
}

func (c *recordController) CreateNote(ctx *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.recordService.AddNote(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success save note", res))
}

func (c *recordController) CreateMeasurement(ctx *fiber.Ctx) error {
	var req dto.CreateMeasurementRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.recordService.AddMeasurement(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success save measurement", res))
}

func (c *recordController) Delete(ctx *fiber.Ctx) error {
	if err := c.recordService.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete record", nil))
}

// Clear wipes every record of every project, so it insists on confirm=true.
func (c *recordController) Clear(ctx *fiber.Ctx) error {
	if !ctx.QueryBool("confirm", false) {
		return fiber.NewError(fiber.StatusBadRequest, service.ErrClearNotConfirmed.Error())
	}

	res, err := c.recordService.Clear(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success clear records", res))
}
