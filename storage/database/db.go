package database

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/napthedev/edura/core"
	appfs "github.com/napthedev/edura/fs"
)

func open(dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sqlx.Open(conf.Database.Engine, u.String())
}

func Open(conf *core.Config) (*sqlx.DB, error) {
	return open(conf.Database.Name, false, conf)
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// Migrate brings the schema up to date using the embedded migration files.
func Migrate(db *sqlx.DB, conf *core.Config) error {
	if err := ping(db); err != nil {
		return err
	}
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect(conf.Database.Engine); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return errors.Wrap(err, "running migrations")
	}
	return nil
}

// MigrateTo migrates up or down to a specific version.
func MigrateTo(db *sqlx.DB, conf *core.Config, version int64) error {
	if err := ping(db); err != nil {
		return err
	}
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect(conf.Database.Engine); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	if err := goose.UpTo(db.DB, "migrations", version); err != nil {
		return errors.Wrap(err, "running migrations")
	}
	return nil
}

func dropAll(db *sqlx.DB) error {
	_, err := db.Exec(`DROP TABLE IF EXISTS submission, assignment, class, "user", goose_db_version CASCADE`)
	return err
}

// Reset drops and recreates the whole schema. TEST/DEV only.
func Reset(db *sqlx.DB, conf *core.Config) error {
	if !(conf.Debug || conf.TestMode) {
		return fmt.Errorf("refusing to reset the %s database", conf.Env)
	}
	if err := dropAll(db); err != nil {
		return errors.Wrap(err, "dropping schema")
	}
	return Migrate(db, conf)
}
