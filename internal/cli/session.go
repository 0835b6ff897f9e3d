package cli

import (
	"fmt"

	"github.com/recline-db/recline/internal/lifecycle"
	"github.com/recline-db/recline/internal/sqlstore"
)

// session bundles what every data command needs: an open database and the
// model for the requested entity. Close must be called when done.
type session struct {
	store *sqlstore.Store
	model lifecycle.Model
}

func (s *session) Close() error {
	return s.store.Close()
}

// openSession loads the entity configs, resolves the named entity, and opens
// the database. Errors carry exit codes: unknown entities and unreadable
// configs are command errors.
func openSession(configDir, dbPath, entityName string) (*session, error) {
	result, loadErrors := LoadEntities(configDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return nil, WrapExitError(ExitCommandError, "failed to load entity config", loadErrors[0])
	}

	cfg, found := FindEntity(result, entityName)
	if !found {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("entity %q not declared in %s", entityName, configDir))
	}

	st, err := sqlstore.Open(dbPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	return &session{
		store: st,
		model: lifecycle.Model{Store: st, Entity: cfg.Entity()},
	}, nil
}
