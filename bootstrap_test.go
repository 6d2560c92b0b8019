package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amirphl/crud-project/config"
	"github.com/amirphl/crud-project/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestInitializeLoggingToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	prevOutput, prevFlags := log.Writer(), log.Flags()
	t.Cleanup(func() {
		log.SetOutput(prevOutput)
		log.SetFlags(prevFlags)
	})

	_, closeLogs := initializeLogging(config.LoggingConfig{Output: "file", FilePath: path, MaxSize: 1})
	log.Println("written to rotating file")
	closeLogs()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "written to rotating file"))
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, gormLogLevel("debug"))
	assert.Equal(t, logger.Warn, gormLogLevel("info"))
	assert.Equal(t, logger.Warn, gormLogLevel("warn"))
	assert.Equal(t, logger.Error, gormLogLevel("error"))
}

func TestInitializeDatabaseRequiresURL(t *testing.T) {
	db, err := initializeDatabase(config.DatabaseConfig{}, config.LoggingConfig{}, os.Stdout)
	assert.Error(t, err)
	assert.Nil(t, db)
}

func TestInitializeSequenceBackends(t *testing.T) {
	pg, closePG := initializeSequence(config.SequenceConfig{Backend: config.SequenceBackendPostgres}, nil)
	defer closePG()
	assert.IsType(t, &repository.SequenceCounterRepositoryImpl{}, pg)

	rd, closeRedis := initializeSequence(config.SequenceConfig{Backend: config.SequenceBackendRedis, RedisURL: "not a url"}, nil)
	defer closeRedis()
	assert.IsType(t, &repository.RedisSequenceCounterRepository{}, rd)
}
