// Package businessflow contains use cases for the demo catalog
package businessflow

import (
	"context"
	"errors"

	"github.com/amirphl/crud-project/app/dto"
	"github.com/amirphl/crud-project/models"
	"github.com/amirphl/crud-project/repository"
)

// Response messages returned to clients
const (
	MessageDemoCreated  = "Data added successfully"
	MessageDemoUpdated  = "Data updated successfully"
	MessageDemoDeleted  = "Data deleted successfully"
	MessageDemosDeleted = "Data deleted successfully"
)

// DemoFlow defines the catalog operations exposed over HTTP
type DemoFlow interface {
	List(ctx context.Context, search string) ([]dto.DemoDTO, error)
	Create(ctx context.Context, req *dto.CreateDemoRequest) (*dto.DemoResponse, error)
	Update(ctx context.Context, id int64, req *dto.UpdateDemoRequest, mode models.UpdateMode) (*dto.DemoResponse, error)
	Delete(ctx context.Context, id int64) (*dto.DemoResponse, error)
	DeleteMany(ctx context.Context, req *dto.DeleteDemosRequest) (*dto.DeleteDemosResponse, error)
	Export(ctx context.Context, search string) (string, []byte, error)
}

type DemoFlowImpl struct {
	demoRepo     repository.DemoRepository
	sequenceRepo repository.SequenceCounterRepository
	sequenceName string
}

func NewDemoFlow(demoRepo repository.DemoRepository, sequenceRepo repository.SequenceCounterRepository, sequenceName string) DemoFlow {
	if sequenceName == "" {
		sequenceName = models.DemoSequenceName
	}
	return &DemoFlowImpl{
		demoRepo:     demoRepo,
		sequenceRepo: sequenceRepo,
		sequenceName: sequenceName,
	}
}

// List returns demos whose name contains search, case-insensitively. Empty search returns all
func (f *DemoFlowImpl) List(ctx context.Context, search string) ([]dto.DemoDTO, error) {
	demos, err := f.list(ctx, search)
	if err != nil {
		return nil, NewBusinessError("LIST_DEMOS_FAILED", "Failed to list demos", err)
	}

	items := make([]dto.DemoDTO, 0, len(demos))
	for _, d := range demos {
		items = append(items, ToDemoDTO(*d))
	}
	return items, nil
}

func (f *DemoFlowImpl) list(ctx context.Context, search string) ([]*models.Demo, error) {
	filter := models.DemoFilter{}
	if search != "" {
		filter.NameContains = &search
	}
	return f.demoRepo.ByFilter(ctx, filter)
}

// Create allocates the next id, then inserts the demo. No insert happens if allocation fails
func (f *DemoFlowImpl) Create(ctx context.Context, req *dto.CreateDemoRequest) (*dto.DemoResponse, error) {
	if req == nil {
		return nil, NewBusinessError("DEMO_VALIDATION_FAILED", "Create demo validation failed", ErrDemoRequestEmpty)
	}

	id, err := f.sequenceRepo.Next(ctx, f.sequenceName)
	if err != nil {
		sequenceAllocations.WithLabelValues(f.sequenceName, "error").Inc()
		return nil, NewBusinessError("DEMO_ID_ALLOCATION_FAILED", "Failed to allocate demo ID", err)
	}
	sequenceAllocations.WithLabelValues(f.sequenceName, "ok").Inc()

	demo := models.Demo{
		ID:          id,
		Name:        string(req.Name),
		Description: string(req.Description),
		Price:       float64(req.Price),
		Category:    string(req.Category),
	}

	if err := f.demoRepo.Save(ctx, &demo); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, NewBusinessErrorf("DEMO_ID_CONFLICT", "Demo ID %d already exists", errors.Join(ErrDuplicateDemoID, err), id)
		}
		return nil, NewBusinessError("DEMO_CREATE_FAILED", "Failed to create demo", err)
	}

	return &dto.DemoResponse{Message: MessageDemoCreated, Demo: ToDemoDTO(demo)}, nil
}

// Update applies req to the demo with id. Full mode resets unsupplied fields, partial mode keeps them
func (f *DemoFlowImpl) Update(ctx context.Context, id int64, req *dto.UpdateDemoRequest, mode models.UpdateMode) (*dto.DemoResponse, error) {
	if req == nil {
		req = &dto.UpdateDemoRequest{}
	}

	fields := models.DemoFields{
		Name:        req.Name.Ptr(),
		Description: req.Description.Ptr(),
		Price:       req.Price.Ptr(),
		Category:    req.Category.Ptr(),
	}

	demo, err := f.demoRepo.Update(ctx, id, fields, mode)
	if err != nil {
		return nil, NewBusinessErrorf("DEMO_UPDATE_FAILED", "Failed to update demo %d", err, id)
	}
	if demo == nil {
		return nil, NewBusinessErrorf("DEMO_NOT_FOUND", "Demo %d not found", ErrDemoNotFound, id)
	}

	return &dto.DemoResponse{Message: MessageDemoUpdated, Demo: ToDemoDTO(*demo)}, nil
}

// Delete removes the demo with id and returns it
func (f *DemoFlowImpl) Delete(ctx context.Context, id int64) (*dto.DemoResponse, error) {
	demo, err := f.demoRepo.Delete(ctx, id)
	if err != nil {
		return nil, NewBusinessErrorf("DEMO_DELETE_FAILED", "Failed to delete demo %d", err, id)
	}
	if demo == nil {
		return nil, NewBusinessErrorf("DEMO_NOT_FOUND", "Demo %d not found", ErrDemoNotFound, id)
	}

	return &dto.DemoResponse{Message: MessageDemoDeleted, Demo: ToDemoDTO(*demo)}, nil
}

// DeleteMany removes every listed demo; ids that do not exist are ignored
func (f *DemoFlowImpl) DeleteMany(ctx context.Context, req *dto.DeleteDemosRequest) (*dto.DeleteDemosResponse, error) {
	if req == nil || len(req.IDs) == 0 {
		return nil, NewBusinessError("DEMO_IDS_REQUIRED", "Demo IDs are required", ErrDemoIDsRequired)
	}

	deleted, err := f.demoRepo.DeleteByIDs(ctx, req.Int64s())
	if err != nil {
		return nil, NewBusinessError("DEMO_BATCH_DELETE_FAILED", "Failed to delete demos", err)
	}
	if deleted == 0 {
		return nil, NewBusinessError("NO_DEMOS_MATCHED", "No demos matched the given IDs", ErrNoDemosMatched)
	}

	return &dto.DeleteDemosResponse{Success: true, Message: MessageDemosDeleted, Deleted: deleted}, nil
}

// ToDemoDTO converts a demo model to its wire representation
func ToDemoDTO(d models.Demo) dto.DemoDTO {
	return dto.DemoDTO{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
	}
}
