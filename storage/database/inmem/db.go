package inmemdb

import (
	"sync"

	"github.com/trezcool/ecomasomo/core/user"
)

type (
	// DB is a process local store, used for tests & local development.
	DB struct {
		user *userTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
	}
}

// Reset drops all records.
func (db *DB) Reset() {
	db.user.mutex.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.mutex.Unlock()
}
