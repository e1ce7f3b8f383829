package postgres

import (
	"database/sql"
	"os"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"

	"github.com/spur-grants/grant-server/pkg/spur/data/grant"
	"github.com/spur-grants/grant-server/pkg/spur/data/grant/tests"

	postgrestest "github.com/spur-grants/grant-server/pkg/database/postgres/test"

	_ "github.com/jackc/pgx/v4/stdlib"
)

const (
	// Used for testing ONLY, the table and migrations are external to this repository
	tableCreate = `
		CREATE TABLE grantserver__core_grant(
			id SERIAL NOT NULL PRIMARY KEY,

			address TEXT NOT NULL,

			authority TEXT NOT NULL,
			authority_bump INTEGER NOT NULL,

			mint TEXT NOT NULL,
			option_market TEXT,

			sender TEXT NOT NULL,
			recipient TEXT NOT NULL,

			escrow_token_account TEXT NOT NULL,

			amount_total BIGINT NOT NULL,
			issued_at BIGINT NOT NULL,
			duration_sec BIGINT NOT NULL,
			cliff_sec BIGINT NOT NULL,
			vest_interval_sec BIGINT NOT NULL,

			last_unlock_at BIGINT NOT NULL,
			amount_unlocked BIGINT NOT NULL,
			revoked BOOL NOT NULL,

			slot BIGINT NOT NULL,

			last_updated_at TIMESTAMP WITH TIME ZONE,

			CONSTRAINT grantserver__core_grant__uniq__address UNIQUE (address),
			CONSTRAINT grantserver__core_grant__uniq__escrow_token_account UNIQUE (escrow_token_account)
		);
	`

	// Used for testing ONLY, the table and migrations are external to this repository
	tableDestroy = `
		DROP TABLE grantserver__core_grant;
	`
)

var (
	testStore grant.Store
	teardown  func()
)

func TestMain(m *testing.M) {
	log := logrus.StandardLogger()

	testPool, err := dockertest.NewPool("")
	if err != nil {
		log.WithError(err).Error("Error creating docker pool")
		os.Exit(1)
	}

	var cleanUpFunc func()
	db, cleanUpFunc, err := postgrestest.StartPostgresDB(testPool)
	if err != nil {
		log.WithError(err).Error("Error starting postgres image")
		os.Exit(1)
	}
	defer db.Close()

	if err := createTestTables(db); err != nil {
		logrus.StandardLogger().WithError(err).Error("Error creating test tables")
		cleanUpFunc()
		os.Exit(1)
	}

	testStore = New(db)
	teardown = func() {
		if pc := recover(); pc != nil {
			cleanUpFunc()
			panic(pc)
		}

		if err := resetTestTables(db); err != nil {
			logrus.StandardLogger().WithError(err).Error("Error resetting test tables")
			cleanUpFunc()
			os.Exit(1)
		}
	}

	code := m.Run()
	cleanUpFunc()
	os.Exit(code)
}

func TestGrantPostgresStore(t *testing.T) {
	tests.RunTests(t, testStore, teardown)
}

func createTestTables(db *sql.DB) error {
	_, err := db.Exec(tableCreate)
	if err != nil {
		logrus.StandardLogger().WithError(err).Error("could not create test tables")
		return err
	}
	return nil
}

func resetTestTables(db *sql.DB) error {
	_, err := db.Exec(tableDestroy)
	if err != nil {
		logrus.StandardLogger().WithError(err).Error("could not drop test tables")
		return err
	}

	return createTestTables(db)
}
