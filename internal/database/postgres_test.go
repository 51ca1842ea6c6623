package database

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestGetConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("database.host", "db.internal")
	viper.Set("database.name", "club")

	cfg := GetConfig()
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, "host=db.internal port=5432 user=postgres password=password dbname=club sslmode=disable", cfg.DSN())
}

func TestMigrationFilesEmbedded(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}
