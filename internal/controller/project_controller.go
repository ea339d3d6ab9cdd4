package controller

import (
	"field-data-be/internal/dto"
	"field-data-be/internal/pkg/serverutils"
	"field-data-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IProjectController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	SetActive(ctx *fiber.Ctx) error
	Active(ctx *fiber.Ctx) error
}

type projectController struct {
	projectService service.IProjectService
}

func NewProjectController(projectService service.IProjectService) IProjectController {
	return &projectController{projectService: projectService}
}

func (c *projectController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/project/v1")
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get("/active", c.Active)
	h.Put("/:id/active", c.SetActive)
}

func (c *projectController) List(ctx *fiber.Ctx) error {
	res, err := c.projectService.List(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get projects", res))
}

func (c *projectController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.projectService.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create project", res))
}

func (c *projectController) SetActive(ctx *fiber.Ctx) error {
	res, err := c.projectService.SetActive(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success switch project", res))
}

func (c *projectController) Active(ctx *fiber.Ctx) error {
	res, err := c.projectService.Active(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get active project", res))
}
