package dataset

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"onmydesk/config"
)

var ErrUnknownAlias = errors.New("dataset: unknown database alias")

// Connections resolves a database alias to a connection pool.
// The empty alias means config.DefaultDBAlias.
type Connections interface {
	DB(alias string) (*sql.DB, error)
}

// Pool opens the configured databases lazily, once per alias.
type Pool struct {
	mu   sync.Mutex
	cfgs map[string]config.Database
	dbs  map[string]*sql.DB
}

func NewPool(databases map[string]config.Database) *Pool {
	return &Pool{cfgs: databases, dbs: map[string]*sql.DB{}}
}

func (p *Pool) DB(alias string) (*sql.DB, error) {
	if alias == "" {
		alias = config.DefaultDBAlias
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if db, ok := p.dbs[alias]; ok {
		return db, nil
	}
	c, ok := p.cfgs[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlias, alias)
	}
	db, err := sql.Open(c.Driver, c.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", alias, err)
	}
	p.dbs[alias] = db
	return db, nil
}

func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for alias, db := range p.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", alias, err))
		}
		delete(p.dbs, alias)
	}
	return errors.Join(errs...)
}
