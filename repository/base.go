// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// BaseRepository provides common repository functionality with transaction support
type BaseRepository[T any, F any] struct {
	DB *gorm.DB
}

// NewBaseRepository creates a new base repository instance
func NewBaseRepository[T any, F any](db *gorm.DB) *BaseRepository[T, F] {
	return &BaseRepository[T, F]{
		DB: db,
	}
}

// getDB returns the appropriate database connection (with or without transaction)
func (r *BaseRepository[T, F]) getDB(ctx context.Context) (*gorm.DB, error) {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx, nil
	}
	if r.DB == nil {
		return nil, ErrStorageUnavailable
	}
	return r.DB.WithContext(ctx), nil
}

// getDBForWrite returns database connection with transaction for write operations
func (r *BaseRepository[T, F]) getDBForWrite(ctx context.Context) (*gorm.DB, bool, error) {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx, false, nil // Transaction already exists, don't commit
	}
	if r.DB == nil {
		return nil, false, ErrStorageUnavailable
	}

	tx := r.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, false, classify("begin transaction", tx.Error)
	}

	return tx, true, nil // New transaction, should commit
}

// ByID retrieves an entity by its primary key, nil when absent
func (r *BaseRepository[T, F]) ByID(ctx context.Context, id int64) (*T, error) {
	db, err := r.getDB(ctx)
	if err != nil {
		return nil, err
	}

	var entity T
	err = db.Where("id = ?", id).Take(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(fmt.Sprintf("find entity by ID %d", id), err)
	}

	return &entity, nil
}

// Save inserts a new entity
func (r *BaseRepository[T, F]) Save(ctx context.Context, entity *T) (err error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
				return
			}
			if cerr := db.Commit().Error; cerr != nil {
				err = classify("commit transaction", cerr)
			}
		}()
	}

	if err = db.Create(entity).Error; err != nil {
		return classify("save entity", err)
	}

	return nil
}

// Ping verifies the database connection is alive
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return ErrStorageUnavailable
	}
	sqlDB, err := db.DB()
	if err != nil {
		return classify("get underlying sql.DB", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// WithTransaction executes a function within a database transaction
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(context.Context) error) (err error) {
	if db == nil {
		return ErrStorageUnavailable
	}

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return classify("begin transaction", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", r)
		}
	}()

	ctx = context.WithValue(ctx, TxContextKey, tx)

	if err := fn(ctx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return classify("commit transaction", err)
	}

	return nil
}
