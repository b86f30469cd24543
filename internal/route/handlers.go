package route

import (
	"github.com/Bera0422/WalkWays/internal/walk"

	"github.com/gofiber/fiber/v2"
)

type saveRequest struct {
	Draft walk.RouteDraft `json:"draft"`
	Meta  Meta            `json:"meta"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req saveRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Meta.CreatedBy == "" {
			if userID, ok := c.Locals("user_id").(string); ok {
				req.Meta.CreatedBy = userID
			}
		}
		saved, err := svc.SaveRoute(c.Context(), req.Draft, req.Meta)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(saved)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		routes, err := svc.ListRoutes(c.Context(), c.QueryBool("home"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(routes)
	})

	r.Get("/tags", func(c *fiber.Ctx) error {
		tags, err := svc.Tags(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(tags)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		found, err := svc.GetRoute(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(found)
	})
}
