package tracking

import (
	"errors"

	"github.com/Bera0422/WalkWays/internal/shared/geo"
	"github.com/Bera0422/WalkWays/internal/walk"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, mgr *Manager, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/", func(c *fiber.Ctx) error {
		var req struct {
			DeviceID string `json:"device_id"`
			Mode     string `json:"mode"`
			RouteID  string `json:"route_id"`
			Resume   bool   `json:"resume"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.DeviceID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "device_id required")
		}

		mode := walk.Mode(req.Mode)
		if mode != walk.ModeTracking && mode != walk.ModeRecording {
			return fiber.NewError(fiber.StatusBadRequest, "mode must be tracking or recording")
		}

		userID, _ := c.Locals("user_id").(string)
		resumed, err := mgr.Start(c.Context(), req.DeviceID, userID, mode, req.RouteID, req.Resume)
		if err != nil {
			if errors.Is(err, walk.ErrSessionActive) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		stats, err := mgr.Stats(req.DeviceID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"resumed": resumed, "stats": stats})
	})

	r.Post("/:device/position", func(c *fiber.Ctx) error {
		var p geo.Point
		if err := c.BodyParser(&p); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := mgr.Position(c.Params("device"), p); err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/:device/steps", func(c *fiber.Ctx) error {
		var req struct {
			Cumulative uint64 `json:"cumulative"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := mgr.Steps(c.Params("device"), req.Cumulative); err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/:device/background", func(c *fiber.Ctx) error {
		if err := mgr.Background(c.Context(), c.Params("device")); err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:device/foreground", func(c *fiber.Ctx) error {
		stats, err := mgr.Foreground(c.Params("device"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(stats)
	})

	r.Get("/:device", func(c *fiber.Ctx) error {
		stats, err := mgr.Stats(c.Params("device"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(stats)
	})

	r.Get("/:device/batches", func(c *fiber.Ctx) error {
		batches, err := mgr.Batches(c.Params("device"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(fiber.Map{"batches": batches})
	})

	r.Post("/:device/end", func(c *fiber.Ctx) error {
		result, err := mgr.End(c.Context(), c.Params("device"))
		if err != nil {
			if errors.Is(err, ErrUnknownDevice) || errors.Is(err, walk.ErrNoSession) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(result)
	})
}
