package httpapi

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/KirGorbunov/weather-test-task/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, st store.Store, defaultLimit int) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/latest", func(c *fiber.Ctx) error {
		req, err := parseLatestQuery(c, defaultLimit)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := st.RecentRecords(c.Context(), req.Limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather records")
		}
		if len(records) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no weather records stored yet")
		}

		return c.JSON(fiber.Map{
			"count":   len(records),
			"records": records,
		})
	})
}

// latestQuery holds query parameters for the latest-records endpoint.
type latestQuery struct {
	Limit int `validate:"min=1,max=1000"`
}

func parseLatestQuery(c *fiber.Ctx, defaultLimit int) (latestQuery, error) {
	q := latestQuery{Limit: defaultLimit}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, err
		}
		q.Limit = n
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}
