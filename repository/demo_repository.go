package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/crud-project/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoRepositoryImpl implements DemoRepository interface
type DemoRepositoryImpl struct {
	*BaseRepository[models.Demo, models.DemoFilter]
}

// NewDemoRepository creates a new demo repository
func NewDemoRepository(db *gorm.DB) DemoRepository {
	return &DemoRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Demo, models.DemoFilter](db),
	}
}

// applyFilter applies filter criteria to a GORM query
func (r *DemoRepositoryImpl) applyFilter(query *gorm.DB, filter models.DemoFilter) *gorm.DB {
	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}
	if filter.NameContains != nil && *filter.NameContains != "" {
		query = query.Where("name ILIKE ?", "%"+escapeLike(*filter.NameContains)+"%")
	}
	return query
}

// ByFilter retrieves demos in id order
func (r *DemoRepositoryImpl) ByFilter(ctx context.Context, filter models.DemoFilter) ([]*models.Demo, error) {
	db, err := r.getDB(ctx)
	if err != nil {
		return nil, err
	}

	query := r.applyFilter(db.Model(&models.Demo{}), filter).Order("id ASC")

	demos := make([]*models.Demo, 0)
	if err := query.Find(&demos).Error; err != nil {
		return nil, classify("list demos", err)
	}
	return demos, nil
}

// Count returns the number of demos matching the filter
func (r *DemoRepositoryImpl) Count(ctx context.Context, filter models.DemoFilter) (int64, error) {
	db, err := r.getDB(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.applyFilter(db.Model(&models.Demo{}), filter).Count(&count).Error; err != nil {
		return 0, classify("count demos", err)
	}
	return count, nil
}

// Update writes the fields selected by mode and returns the stored row
func (r *DemoRepositoryImpl) Update(ctx context.Context, id int64, fields models.DemoFields, mode models.UpdateMode) (updated *models.Demo, err error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return nil, err
	}
	if shouldCommit {
		defer func() {
			if err != nil || updated == nil {
				db.Rollback()
				return
			}
			if cerr := db.Commit().Error; cerr != nil {
				updated, err = nil, classify("commit transaction", cerr)
			}
		}()
	}

	if updates := fields.Columns(mode); len(updates) > 0 {
		result := db.Model(&models.Demo{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, classify(fmt.Sprintf("update demo %d", id), result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, nil
		}
	}

	var demo models.Demo
	if err = db.Where("id = ?", id).Take(&demo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(fmt.Sprintf("reload demo %d", id), err)
	}
	return &demo, nil
}

// Delete removes a demo and returns the deleted row
func (r *DemoRepositoryImpl) Delete(ctx context.Context, id int64) (*models.Demo, error) {
	db, err := r.getDB(ctx)
	if err != nil {
		return nil, err
	}

	var deleted []models.Demo
	result := db.Clauses(clause.Returning{}).Where("id = ?", id).Delete(&deleted)
	if result.Error != nil {
		return nil, classify(fmt.Sprintf("delete demo %d", id), result.Error)
	}
	if result.RowsAffected == 0 || len(deleted) == 0 {
		return nil, nil
	}
	return &deleted[0], nil
}

// deleteChunkSize keeps each IN list well under PostgreSQL's 65535 bind parameters
const deleteChunkSize = 10000

// DeleteByIDs removes all demos with the given ids; unknown ids are ignored.
// Large id sets are deleted in chunks inside a single transaction.
func (r *DemoRepositoryImpl) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if len(ids) <= deleteChunkSize {
		return r.deleteChunk(ctx, ids)
	}
	if _, ok := ctx.Value(TxContextKey).(*gorm.DB); ok {
		return r.deleteChunks(ctx, ids)
	}

	var total int64
	err := WithTransaction(ctx, r.DB, func(txCtx context.Context) error {
		n, err := r.deleteChunks(txCtx, ids)
		total = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *DemoRepositoryImpl) deleteChunks(ctx context.Context, ids []int64) (int64, error) {
	var total int64
	for _, chunk := range chunkIDs(ids, deleteChunkSize) {
		n, err := r.deleteChunk(ctx, chunk)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (r *DemoRepositoryImpl) deleteChunk(ctx context.Context, ids []int64) (int64, error) {
	db, err := r.getDB(ctx)
	if err != nil {
		return 0, err
	}

	result := db.Where("id IN ?", ids).Delete(&models.Demo{})
	if result.Error != nil {
		return 0, classify("delete demos", result.Error)
	}
	return result.RowsAffected, nil
}

// chunkIDs splits ids into consecutive slices of at most size elements
func chunkIDs(ids []int64, size int) [][]int64 {
	if size <= 0 || len(ids) <= size {
		return [][]int64{ids}
	}
	chunks := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// Save inserts a demo whose id was already allocated
func (r *DemoRepositoryImpl) Save(ctx context.Context, demo *models.Demo) error {
	if demo == nil {
		return errors.New("demo payload is nil")
	}
	if demo.ID <= 0 {
		return errors.New("demo ID must be allocated before save")
	}
	return r.BaseRepository.Save(ctx, demo)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern (backslash is the default escape)
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
