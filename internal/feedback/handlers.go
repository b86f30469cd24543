package feedback

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			RouteID string `json:"route_id"`
			UserID  string `json:"user_id"`
			Rating  int    `json:"rating"`
			Comment string `json:"comment"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.UserID == "" {
			if userID, ok := c.Locals("user_id").(string); ok {
				req.UserID = userID
			}
		}
		if req.RouteID == "" || req.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "route_id and user_id required")
		}

		fb, err := svc.Submit(c.Context(), req.RouteID, req.UserID, req.Rating, req.Comment)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fb)
	})

	r.Get("/routes/:id", func(c *fiber.Ctx) error {
		out, err := svc.ForRoute(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(out)
	})

	r.Get("/history/:userID", authMiddleware, func(c *fiber.Ctx) error {
		out, err := svc.History(c.Context(), c.Params("userID"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(out)
	})
}
