package main

import (
	"database/sql"

	"github.com/edithfert/fertpro/repository"
)

// Repositories holds every repository instance. Sessions and history are
// in memory; only the forum is persisted.
type Repositories struct {
	Forum repository.ForumRepository
}

func initRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Forum: repository.NewSQLiteForumRepo(db),
	}
}
