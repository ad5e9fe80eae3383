package tests

import (
	"os"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/agromarket/search-alerts/internal/repositories"
)

var dbCtx *repositories.DbContext

func upEnvironment() {

	var err error
	dbCtx, err = repositories.NewDbContext("testdatabase.db")
	if err != nil {
		log.Fatalf("could not create db context: %s", err)
	}

	err = dbCtx.Migrate()
	if err != nil {
		log.Fatalf("could not migrate db: %s", err)
	}
}

func downEnvironment() {
	_ = dbCtx.Close()
	_ = os.Remove("testdatabase.db")
}

func clearDb() {
	dbCtx.DB.Exec("DELETE from alert_records WHERE TRUE")
	dbCtx.DB.Exec("DELETE from emit_failures WHERE TRUE")
	dbCtx.DB.Exec("DELETE from notifications WHERE TRUE")
	dbCtx.DB.Exec("DELETE from listings WHERE TRUE")
	dbCtx.DB.Exec("DELETE from saved_searches WHERE TRUE")
}

func TestMain(m *testing.M) {

	upEnvironment()

	code := m.Run()

	downEnvironment()

	os.Exit(code)
}
