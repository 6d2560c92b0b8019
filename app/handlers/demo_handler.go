package handlers

import (
	"context"
	"log"

	"github.com/amirphl/crud-project/app/dto"
	businessflow "github.com/amirphl/crud-project/business_flow"
	"github.com/amirphl/crud-project/models"
	"github.com/amirphl/crud-project/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DemoHandlerInterface defines the contract for demo handlers
type DemoHandlerInterface interface {
	List(c fiber.Ctx) error
	Create(c fiber.Ctx) error
	Replace(c fiber.Ctx) error
	Patch(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	DeleteMany(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// DemoHandler handles demo catalog HTTP requests
type DemoHandler struct {
	flow      businessflow.DemoFlow
	validator *validator.Validate
}

func NewDemoHandler(flow businessflow.DemoFlow) DemoHandlerInterface {
	return &DemoHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *DemoHandler) ErrorResponse(c fiber.Ctx, statusCode int, message string, details any) error {
	return c.Status(statusCode).JSON(dto.ErrorResponse{
		Error:   message,
		Details: details,
	})
}

func (h *DemoHandler) SuccessResponse(c fiber.Ctx, statusCode int, data any) error {
	return c.Status(statusCode).JSON(data)
}

// List returns all demos, optionally filtered by name
// @Summary List demos
// @Description Case-insensitive substring search on Name when search is given
// @Tags Demo
// @Produce json
// @Param search query string false "Name substring"
// @Success 200 {array} dto.DemoDTO
// @Failure 500 {object} dto.ErrorResponse
// @Router /demo [get]
func (h *DemoHandler) List(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/demo")
	defer cancel()

	items, err := h.flow.List(ctx, c.Query("search"))
	if err != nil {
		return h.handleFlowError(c, ctx, "List demos failed", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, items)
}

// Create allocates the next id and stores a new demo
// @Summary Create demo
// @Tags Demo
// @Accept json
// @Produce json
// @Param request body dto.CreateDemoRequest true "Demo fields"
// @Success 201 {object} dto.DemoResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /demo [post]
func (h *DemoHandler) Create(c fiber.Ctx) error {
	var req dto.CreateDemoRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
	}

	ctx, cancel := createRequestContext(c, "/demo")
	defer cancel()

	res, err := h.flow.Create(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, ctx, "Create demo failed", err)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, res)
}

// Replace overwrites every field of a demo; omitted fields are reset
// @Summary Replace demo
// @Tags Demo
// @Accept json
// @Produce json
// @Param id path int true "Demo ID"
// @Param request body dto.UpdateDemoRequest true "Demo fields"
// @Success 200 {object} dto.DemoResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /demo/{id} [put]
func (h *DemoHandler) Replace(c fiber.Ctx) error {
	return h.update(c, models.UpdateModeFull)
}

// Patch updates only the supplied fields of a demo
// @Summary Patch demo
// @Tags Demo
// @Accept json
// @Produce json
// @Param id path int true "Demo ID"
// @Param request body dto.UpdateDemoRequest true "Fields to change"
// @Success 200 {object} dto.DemoResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /demo/{id} [patch]
func (h *DemoHandler) Patch(c fiber.Ctx) error {
	return h.update(c, models.UpdateModePartial)
}

func (h *DemoHandler) update(c fiber.Ctx, mode models.UpdateMode) error {
	id, ok := h.pathID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Data not found", nil)
	}

	var req dto.UpdateDemoRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
	}

	ctx, cancel := createRequestContext(c, "/demo/:id")
	defer cancel()

	res, err := h.flow.Update(ctx, id, &req, mode)
	if err != nil {
		return h.handleFlowError(c, ctx, "Update demo ("+mode.String()+") failed", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, res)
}

// Delete removes one demo
// @Summary Delete demo
// @Tags Demo
// @Produce json
// @Param id path int true "Demo ID"
// @Success 200 {object} dto.DemoResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /demo/{id} [delete]
func (h *DemoHandler) Delete(c fiber.Ctx) error {
	id, ok := h.pathID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Data not found", nil)
	}

	ctx, cancel := createRequestContext(c, "/demo/:id")
	defer cancel()

	res, err := h.flow.Delete(ctx, id)
	if err != nil {
		return h.handleFlowError(c, ctx, "Delete demo failed", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, res)
}

// DeleteMany removes every demo whose id is listed
// @Summary Delete many demos
// @Tags Demo
// @Accept json
// @Produce json
// @Param request body dto.DeleteDemosRequest true "IDs to delete"
// @Success 200 {object} dto.DeleteDemosResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /demo/delete [post]
func (h *DemoHandler) DeleteMany(c fiber.Ctx) error {
	var req dto.DeleteDemosRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Demo IDs are required", validationDetails(err))
	}

	ctx, cancel := createRequestContext(c, "/demo/delete")
	defer cancel()

	res, err := h.flow.DeleteMany(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, ctx, "Delete demos failed", err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, res)
}

// Export returns the matching demos as a spreadsheet
// @Summary Export demos
// @Tags Demo
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param search query string false "Name substring"
// @Success 200 {file} file "xlsx workbook"
// @Failure 500 {object} dto.ErrorResponse
// @Router /demo/export [get]
func (h *DemoHandler) Export(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/demo/export")
	defer cancel()

	filename, data, err := h.flow.Export(ctx, c.Query("search"))
	if err != nil {
		return h.handleFlowError(c, ctx, "Export demos failed", err)
	}
	c.Set("Content-Type", xlsxContentType)
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Status(fiber.StatusOK).Send(data)
}

// pathID parses :id. A non-integer id cannot name any demo
func (h *DemoHandler) pathID(c fiber.Ctx) (int64, bool) {
	id, err := dto.ParseDemoID(c.Params("id"))
	if err != nil {
		return 0, false
	}
	return int64(id), true
}

// handleFlowError maps business errors to HTTP status codes
func (h *DemoHandler) handleFlowError(c fiber.Ctx, ctx context.Context, op string, err error) error {
	switch {
	case businessflow.IsDemoNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Data not found", nil)
	case businessflow.IsNoDemosMatched(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "No matching data found", nil)
	case businessflow.IsDemoIDsRequired(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Demo IDs are required", nil)
	}

	log.Printf("%s request_id=%s endpoint=%v ip=%v user_agent=%q timeout=%v code=%s: %v",
		op,
		utils.RequestIDFrom(ctx),
		ctx.Value(utils.EndpointKey),
		ctx.Value(utils.IPAddressKey),
		ctx.Value(utils.UserAgentKey),
		ctx.Value(utils.TimeoutKey),
		businessflow.ErrorCode(err),
		err,
	)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Server error", err.Error())
}
