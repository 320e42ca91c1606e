package repository

import (
	"context"
	"strings"

	"todoapp/internal/database"

	"gorm.io/gorm"
)

// Store is the explicit handle services use to reach persistence.
// A Store produced by WithTx is bound to that transaction.
type Store struct {
	db *gorm.DB
}

// New wraps a gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Users returns the credential store.
func (s *Store) Users() *Users {
	return &Users{db: s.db}
}

// Todos returns the todo store scoped to one owner.
func (s *Store) Todos(userID uint) *Todos {
	return &Todos{db: s.db, userID: userID}
}

// WithTx runs fn in one transaction: committed when fn returns nil, rolled
// back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Ping checks connectivity of the underlying database.
func (s *Store) Ping(ctx context.Context) error {
	return database.Ping(ctx, s.db)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lowercase LIKE pattern matching s anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
