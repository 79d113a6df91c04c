// Package inmemdb provides map-backed repository implementations used by
// tests and local development. The submission table enforces the same
// (assignment, student) uniqueness constraint as the real schema.
package inmemdb

import (
	"sync"

	"github.com/napthedev/edura/core/assignment"
	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/core/user"
)

type (
	DB struct {
		user       *userTable
		class      *classTable
		assignment *assignmentTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	classTable struct {
		sync.RWMutex
		table map[string]*class.Class
	}

	assignmentTable struct {
		sync.RWMutex
		table       map[string]*assignment.Assignment
		submissions map[string]*assignment.Submission
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:  &userTable{table: make(map[string]*user.User)},
		class: &classTable{table: make(map[string]*class.Class)},
		assignment: &assignmentTable{
			table:       make(map[string]*assignment.Assignment),
			submissions: make(map[string]*assignment.Submission),
		},
	}
	return db, nil
}
