package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repositories groups the repositories bound to one database handle.
type Repositories struct {
	Users    UserRepository
	Teams    TeamRepository
	Projects ProjectRepository
	Members  MembershipRepository
	Tasks    TaskRepository
}

// Transactor runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	Transaction(ctx context.Context, fn func(repos Repositories) error) error
}

// Store is the gorm backed Transactor.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Repositories returns repositories outside of any transaction.
func (s *Store) Repositories() Repositories {
	return newRepositories(s.db)
}

// Transaction implements Transactor.
func (s *Store) Transaction(ctx context.Context, fn func(repos Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepositories(tx))
	})
}

func newRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:    NewUserRepository(db),
		Teams:    NewTeamRepository(db),
		Projects: NewProjectRepository(db),
		Members:  NewMembershipRepository(db),
		Tasks:    NewTaskRepository(db),
	}
}

// updateRow writes every column of value to its existing row, matched by
// primary key. It never inserts: a row deleted since it was read yields
// gorm.ErrRecordNotFound.
func updateRow(db *gorm.DB, value interface{}) error {
	result := db.Model(value).Select("*").Omit(clause.Associations).Updates(value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
