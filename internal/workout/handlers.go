package workout

import (
	"errors"
	"io"
	"time"

	"backend-fittrack/internal/auth"
	"backend-fittrack/internal/workoutlog"

	"github.com/gofiber/fiber/v2"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	dateLayout        = "2006-01-02"
	maxUploadBytes    = 1 << 20
)

// RegisterUserRoutes mounts the text ingestion and legacy-shaped read routes.
func RegisterUserRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/workouts/bulk", authMiddleware, func(c *fiber.Ctx) error {
		var req TextRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		res, replayed, err := svc.IngestBulk(c.Context(), ownerID(c), c.Get(idempotencyHeader), req)
		if err != nil {
			return svc.httpError(c, err)
		}
		return created(c, replayed, res)
	})

	r.Post("/workouts/upload", authMiddleware, func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file required")
		}
		if fh.Size > maxUploadBytes {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "workout file too large")
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		defer f.Close()
		raw, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		req := TextRequest{WorkoutString: string(raw)}
		if d := c.FormValue("date"); d != "" {
			if req.Date, err = parseDate(d); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
			}
		}
		res, replayed, err := svc.IngestBulk(c.Context(), ownerID(c), c.Get(idempotencyHeader), req)
		if err != nil {
			return svc.httpError(c, err)
		}
		return created(c, replayed, res)
	})

	r.Post("/workout", authMiddleware, func(c *fiber.Ctx) error {
		var req TextRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		w, replayed, err := svc.QuickAdd(c.Context(), ownerID(c), c.Get(idempotencyHeader), req)
		if err != nil {
			return svc.httpError(c, err)
		}
		return created(c, replayed, fiber.Map{"workout": w})
	})

	r.Get("/workout", authMiddleware, func(c *fiber.Ctx) error {
		var date time.Time
		if raw := c.Query("date"); raw != "" {
			d, err := parseDate(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
			}
			date = d
		}
		day, err := svc.WorkoutsByDate(c.Context(), ownerID(c), date)
		if err != nil {
			return svc.httpError(c, err)
		}
		return c.JSON(day)
	})

	r.Get("/dashboard", authMiddleware, func(c *fiber.Ctx) error {
		dash, err := svc.Dashboard(c.Context(), ownerID(c))
		if err != nil {
			return svc.httpError(c, err)
		}
		return c.JSON(dash)
	})
}

// RegisterRoutes mounts the structured workout routes.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		w, replayed, err := svc.CreateStructured(c.Context(), ownerID(c), c.Get(idempotencyHeader), req)
		if err != nil {
			return svc.httpError(c, err)
		}
		return created(c, replayed, fiber.Map{"workout": w})
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		f, err := filterFromQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		workouts, err := svc.List(c.Context(), f)
		if err != nil {
			return svc.httpError(c, err)
		}
		return c.JSON(fiber.Map{"workouts": workouts})
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), ownerID(c), c.Params("id")); err != nil {
			return svc.httpError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Workout deleted successfully"})
	})
}

func (s *Service) httpError(c *fiber.Ctx, err error) error {
	var pe *workoutlog.ParseError
	switch {
	case errors.As(err, &pe):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": pe.Error(),
			"code":  pe.Code,
			"block": pe.Block,
			"field": pe.Field,
			"raw":   pe.Raw,
		})
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "workout not found")
	case errors.Is(err, ErrIdempotencyInFlight):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}

	attrs := []any{"method", c.Method(), "path", c.Path(), "owner_id", ownerID(c), "error", err}
	var dw *DualWriteError
	if errors.As(err, &dw) {
		attrs = append(attrs, "dual_write", dw.Kind.String(), "xref_id", dw.XrefID)
	}
	s.log.Error("request failed", attrs...)
	return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
}

func created(c *fiber.Ctx, replayed bool, body any) error {
	if replayed {
		c.Set(replayedHeader, "true")
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}

func ownerID(c *fiber.Ctx) string {
	return auth.UserID(c)
}

func filterFromQuery(c *fiber.Ctx) (Filter, error) {
	owner := ownerID(c)
	if raw := c.Query("date"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return Filter{}, errors.New("date must be YYYY-MM-DD")
		}
		return Day(owner, d), nil
	}

	f := Filter{OwnerID: owner}
	if raw := c.Query("from"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return Filter{}, errors.New("from must be YYYY-MM-DD")
		}
		f.From = d
	}
	if raw := c.Query("to"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return Filter{}, errors.New("to must be YYYY-MM-DD")
		}
		f.To = d.AddDate(0, 0, 1)
	}
	return f, nil
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}
