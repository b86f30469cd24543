package route

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func passthrough(c *fiber.Ctx) error { return c.Next() }

func TestSaveRouteHandler(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO routes`).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/routes"), NewService(mock), passthrough)

	body, _ := json.Marshal(saveRequest{
		Draft: draftFixture(),
		Meta:  Meta{Name: "Seine Stroll", Rating: 4, CreatedBy: "user-1"},
	})
	req := httptest.NewRequest(http.MethodPost, "/routes/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("save route status: %v %d", err, resp.StatusCode)
	}
}

func TestSaveRouteHandlerBadPayload(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/routes"), NewService(nil), passthrough)

	req := httptest.NewRequest(http.MethodPost, "/routes/", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestSaveRouteHandlerFillsAuthorFromLocals(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO routes`).
		WithArgs(pgxmock.AnyArg(), "Seine Stroll", "", 1240.5, int64(25), "", 0, 1, false, pgxmock.AnyArg(), pgxmock.AnyArg(), "user-from-token").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	app := fiber.New()
	withUser := func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-from-token")
		return c.Next()
	}
	RegisterRoutes(app.Group("/routes"), NewService(mock), withUser)

	body, _ := json.Marshal(saveRequest{Draft: draftFixture(), Meta: Meta{Name: "Seine Stroll"}})
	req := httptest.NewRequest(http.MethodPost, "/routes/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("save route status: %v %d", err, resp.StatusCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListRoutesHandler(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, description`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "distance_m", "estimated_min", "elevation", "rating", "review_count", "display_on_home", "image_urls", "created_by", "created_at"}).
			AddRow("route-1", "Seine Stroll", "Riverside", 1240.5, int64(25), "Flat", 4, 3, true, `[]`, "user-1", time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/routes"), NewService(mock), passthrough)

	req := httptest.NewRequest(http.MethodGet, "/routes/", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}
}

func TestGetRouteHandlerNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, description`).
		WithArgs("missing").
		WillReturnError(errRoute)

	app := fiber.New()
	RegisterRoutes(app.Group("/routes"), NewService(mock), passthrough)

	req := httptest.NewRequest(http.MethodGet, "/routes/missing", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found")
	}
}

func TestTagsHandler(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, icon FROM tags`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "icon"}).AddRow("tag-park", "Park", "tree"))

	app := fiber.New()
	RegisterRoutes(app.Group("/routes"), NewService(mock), passthrough)

	req := httptest.NewRequest(http.MethodGet, "/routes/tags", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("tags status: %v", err)
	}
}
