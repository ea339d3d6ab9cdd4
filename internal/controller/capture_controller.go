package controller

import (
	"field-data-be/internal/dto"
	"field-data-be/internal/pkg/serverutils"
	"field-data-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICaptureController interface {
	RegisterRoutes(r fiber.Router)
	Open(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	TakePhoto(ctx *fiber.Ctx) error
	StartRecording(ctx *fiber.Ctx) error
	StopRecording(ctx *fiber.Ctx) error
	ToggleFacing(ctx *fiber.Ctx) error
	Retake(ctx *fiber.Ctx) error
	Confirm(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
}

type captureController struct {
	captureService service.ICaptureService
}

func NewCaptureController(captureService service.ICaptureService) ICaptureController {
	return &captureController{captureService: captureService}
}

// RegisterRoutes leaves /:id/media to the stream handler.
func (c *captureController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/capture/v1")
	h.Post("", c.Open)
	h.Get("/:id", c.Show)
	h.Delete("/:id", c.Cancel)
	h.Post("/:id/photo", c.TakePhoto)
	h.Post("/:id/recording", c.StartRecording)
	h.Delete("/:id/recording", c.StopRecording)
	h.Post("/:id/facing", c.ToggleFacing)
	h.Post("/:id/retake", c.Retake)
	h.Post("/:id/confirm", c.Confirm)
}

func (c *captureController) Open(ctx *fiber.Ctx) error {
	var req dto.OpenCaptureRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.captureService.Open(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Capture session opened", res))
}

func (c *captureController) Show(ctx *fiber.Ctx) error {
	res, err := c.captureService.Show(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get capture session", res))
}

func (c *captureController) TakePhoto(ctx *fiber.Ctx) error {
	res, err := c.captureService.TakePhoto(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Photo taken", res))
}

func (c *captureController) StartRecording(ctx *fiber.Ctx) error {
	res, err := c.captureService.StartRecording(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Recording started", res))
}

func (c *captureController) StopRecording(ctx *fiber.Ctx) error {
	res, err := c.captureService.StopRecording(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Recording stopped", res))
}

func (c *captureController) ToggleFacing(ctx *fiber.Ctx) error {
	res, err := c.captureService.ToggleFacing(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Camera switched", res))
}

func (c *captureController) Retake(ctx *fiber.Ctx) error {
	res, err := c.captureService.Retake(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Preview discarded", res))
}

func (c *captureController) Confirm(ctx *fiber.Ctx) error {
	res, err := c.captureService.Confirm(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Capture saved", res))
}

func (c *captureController) Cancel(ctx *fiber.Ctx) error {
	if err := c.captureService.Cancel(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Capture cancelled", nil))
}
