package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amirphl/crud-project/app/handlers"
	businessflow "github.com/amirphl/crud-project/business_flow"
	"github.com/amirphl/crud-project/models"
	"github.com/amirphl/crud-project/repository"
	testingutil "github.com/amirphl/crud-project/testing"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type handlerFixture struct {
	app      *fiber.App
	demos    *testingutil.InMemoryDemoRepository
	sequence *testingutil.InMemorySequenceCounter
}

func newHandlerFixture(seed ...models.Demo) *handlerFixture {
	demos := testingutil.NewInMemoryDemoRepository(seed...)
	sequence := testingutil.NewInMemorySequenceCounter()
	h := handlers.NewDemoHandler(businessflow.NewDemoFlow(demos, sequence, models.DemoSequenceName))

	app := fiber.New(fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
	app.Get("/demo/export", h.Export)
	app.Get("/demo", h.List)
	app.Post("/demo/delete", h.DeleteMany)
	app.Post("/demo", h.Create)
	app.Put("/demo/:id", h.Replace)
	app.Patch("/demo/:id", h.Patch)
	app.Delete("/demo/:id", h.Delete)

	return &handlerFixture{app: app, demos: demos, sequence: sequence}
}

func (fx *handlerFixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := fx.app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

type demoBody struct {
	ID          int64   `json:"id"`
	Name        string  `json:"Name"`
	Description string  `json:"Description"`
	Price       float64 `json:"Price"`
	Category    string  `json:"Category"`
}

type demoEnvelope struct {
	Message string   `json:"message"`
	Demo    demoBody `json:"demo"`
}

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details"`
}

func seed() []models.Demo {
	return []models.Demo{
		{ID: 1, Name: "Apple", Description: "red", Price: 10, Category: "fruit"},
		{ID: 2, Name: "banana", Description: "long", Price: 3.5, Category: "fruit"},
		{ID: 3, Name: "Cherry", Description: "small", Price: 7, Category: "berry"},
	}
}

func TestCreateDemo(t *testing.T) {
	t.Run("ids increase from one", func(t *testing.T) {
		fx := newHandlerFixture()

		resp, raw := fx.do(t, http.MethodPost, "/demo", `{"Name":"A","Price":10}`)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
		first := decode[demoEnvelope](t, raw)
		assert.Equal(t, "Data added successfully", first.Message)
		assert.Equal(t, demoBody{ID: 1, Name: "A", Price: 10}, first.Demo)

		resp, raw = fx.do(t, http.MethodPost, "/demo", `{"Name":"B"}`)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		assert.Equal(t, int64(2), decode[demoEnvelope](t, raw).Demo.ID)
	})

	t.Run("field names decode case-insensitively and unknown fields are ignored", func(t *testing.T) {
		fx := newHandlerFixture()

		resp, raw := fx.do(t, http.MethodPost, "/demo", `{"name":"lower","price":2,"colour":"blue"}`)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		got := decode[demoEnvelope](t, raw).Demo
		assert.Equal(t, "lower", got.Name)
		assert.Equal(t, 2.0, got.Price)
	})

	t.Run("scalar values are coerced to the field type", func(t *testing.T) {
		fx := newHandlerFixture()

		resp, raw := fx.do(t, http.MethodPost, "/demo", `{"Name":"A","Price":"10"}`)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
		assert.Equal(t, demoBody{ID: 1, Name: "A", Price: 10}, decode[demoEnvelope](t, raw).Demo)

		resp, raw = fx.do(t, http.MethodPost, "/demo", `{"Name":123,"Price":10}`)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
		assert.Equal(t, demoBody{ID: 2, Name: "123", Price: 10}, decode[demoEnvelope](t, raw).Demo)

		resp, _ = fx.do(t, http.MethodPost, "/demo", `{"Name":"A","Price":"cheap"}`)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, 2, fx.demos.Len())
	})

	t.Run("malformed json", func(t *testing.T) {
		fx := newHandlerFixture()

		resp, raw := fx.do(t, http.MethodPost, "/demo", `{"Name":`)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.NotEmpty(t, decode[errorBody](t, raw).Error)
		assert.Zero(t, fx.demos.Len())
	})

	t.Run("allocation failure leaves the store untouched", func(t *testing.T) {
		fx := newHandlerFixture()
		fx.sequence.FailWith(repository.ErrStorageUnavailable)

		resp, raw := fx.do(t, http.MethodPost, "/demo", `{"Name":"A"}`)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		body := decode[errorBody](t, raw)
		assert.Equal(t, "Server error", body.Error)
		assert.Contains(t, body.Details, "storage unavailable")
		assert.Zero(t, fx.demos.Saves())
	})
}

func TestListDemos(t *testing.T) {
	fx := newHandlerFixture(seed()...)

	resp, raw := fx.do(t, http.MethodGet, "/demo", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]demoBody](t, raw), 3)

	resp, raw = fx.do(t, http.MethodGet, "/demo?search=a", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	items := decode[[]demoBody](t, raw)
	require.Len(t, items, 2)
	assert.Equal(t, "Apple", items[0].Name)
	assert.Equal(t, "banana", items[1].Name)

	resp, raw = fx.do(t, http.MethodGet, "/demo?search=%20a", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(raw), "the leading space is matched literally")

	resp, raw = fx.do(t, http.MethodGet, "/demo?search=%20", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(raw))

	resp, raw = fx.do(t, http.MethodGet, "/demo?search=nothing", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(raw))

	fx.demos.FailWith(repository.ErrStorageUnavailable)
	resp, _ = fx.do(t, http.MethodGet, "/demo", "")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestUpdateDemo(t *testing.T) {
	t.Run("PUT resets omitted fields", func(t *testing.T) {
		fx := newHandlerFixture(seed()...)

		resp, raw := fx.do(t, http.MethodPut, "/demo/1", `{"Name":"Green apple","Price":12}`)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
		got := decode[demoEnvelope](t, raw)
		assert.Equal(t, "Data updated successfully", got.Message)
		assert.Equal(t, demoBody{ID: 1, Name: "Green apple", Price: 12}, got.Demo)
	})

	t.Run("PATCH keeps omitted fields", func(t *testing.T) {
		fx := newHandlerFixture(seed()...)

		resp, raw := fx.do(t, http.MethodPatch, "/demo/2", `{"Price":4}`)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
		assert.Equal(t, demoBody{ID: 2, Name: "banana", Description: "long", Price: 4, Category: "fruit"},
			decode[demoEnvelope](t, raw).Demo)
	})

	t.Run("missing id", func(t *testing.T) {
		fx := newHandlerFixture(seed()...)

		resp, raw := fx.do(t, http.MethodPut, "/demo/99", `{"Name":"x"}`)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Data not found", decode[errorBody](t, raw).Error)

		resp, _ = fx.do(t, http.MethodPatch, "/demo/99", `{"Name":"x"}`)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("non-integer id", func(t *testing.T) {
		fx := newHandlerFixture(seed()...)

		resp, _ := fx.do(t, http.MethodPatch, "/demo/abc", `{"Name":"x"}`)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("PATCH coerces a numeric string", func(t *testing.T) {
		fx := newHandlerFixture(seed()...)

		resp, raw := fx.do(t, http.MethodPatch, "/demo/1", `{"Price":"15"}`)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
		assert.Equal(t, 15.0, decode[demoEnvelope](t, raw).Demo.Price)
	})

	t.Run("malformed json", func(t *testing.T) {
		fx := newHandlerFixture(seed()...)

		resp, _ := fx.do(t, http.MethodPatch, "/demo/1", `{"Price":"cheap"}`)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		stored, err := fx.demos.ByID(t.Context(), 1)
		require.NoError(t, err)
		assert.Equal(t, 10.0, stored.Price)
	})
}

func TestDeleteDemo(t *testing.T) {
	fx := newHandlerFixture(seed()...)

	resp, raw := fx.do(t, http.MethodDelete, "/demo/3", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	got := decode[demoEnvelope](t, raw)
	assert.Equal(t, "Data deleted successfully", got.Message)
	assert.Equal(t, "Cherry", got.Demo.Name)

	resp, _ = fx.do(t, http.MethodDelete, "/demo/3", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = fx.do(t, http.MethodDelete, "/demo/x1", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeleteManyDemos(t *testing.T) {
	type batchBody struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantLeft   int
	}{
		{name: "partial match succeeds", body: `{"ids":[1,99]}`, wantStatus: fiber.StatusOK, wantLeft: 2},
		{name: "string ids are coerced", body: `{"ids":["1","2"]}`, wantStatus: fiber.StatusOK, wantLeft: 1},
		{name: "only unknown ids", body: `{"ids":[98,99]}`, wantStatus: fiber.StatusNotFound, wantLeft: 3},
		{name: "empty ids", body: `{"ids":[]}`, wantStatus: fiber.StatusBadRequest, wantLeft: 3},
		{name: "missing ids", body: `{}`, wantStatus: fiber.StatusBadRequest, wantLeft: 3},
		{name: "non-integer id", body: `{"ids":["abc"]}`, wantStatus: fiber.StatusBadRequest, wantLeft: 3},
		{name: "ids not a list", body: `{"ids":1}`, wantStatus: fiber.StatusBadRequest, wantLeft: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newHandlerFixture(seed()...)

			resp, raw := fx.do(t, http.MethodPost, "/demo/delete", tt.body)
			require.Equal(t, tt.wantStatus, resp.StatusCode, string(raw))
			assert.Equal(t, tt.wantLeft, fx.demos.Len())

			if tt.wantStatus == fiber.StatusOK {
				got := decode[batchBody](t, raw)
				assert.True(t, got.Success)
				assert.Equal(t, "Data deleted successfully", got.Message)
				return
			}
			assert.NotEmpty(t, decode[errorBody](t, raw).Error)
		})
	}
}

func TestExportDemos(t *testing.T) {
	fx := newHandlerFixture(seed()...)

	resp, raw := fx.do(t, http.MethodGet, "/demo/export?search=e", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment; filename=demos.xlsx", resp.Header.Get("Content-Disposition"))

	xl, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer xl.Close()
	rows, err := xl.GetRows("Demos")
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header plus Apple and Cherry")
}

func TestServerErrorLogsRequestMetadata(t *testing.T) {
	var buf bytes.Buffer
	prevOutput, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	t.Cleanup(func() {
		log.SetOutput(prevOutput)
		log.SetFlags(prevFlags)
	})

	fx := newHandlerFixture()
	fx.demos.FailWith(repository.ErrStorageUnavailable)

	req := httptest.NewRequest(http.MethodGet, "/demo", nil)
	req.Header.Set("User-Agent", "catalog-test/1.0")
	resp, err := fx.app.Test(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	line := buf.String()
	assert.Contains(t, line, "endpoint=/demo")
	assert.Contains(t, line, `user_agent="catalog-test/1.0"`)
	assert.Contains(t, line, "timeout=30s")
	assert.Contains(t, line, "ip=")
	assert.Contains(t, line, "code=LIST_DEMOS_FAILED")
}
