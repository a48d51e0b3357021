package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLogLevel(t *testing.T) {
	require.Equal(t, logger.Silent, LogLevel("silent"))
	require.Equal(t, logger.Error, LogLevel("ERROR"))
	require.Equal(t, logger.Info, LogLevel(" info "))
	require.Equal(t, logger.Warn, LogLevel("warn"))
	require.Equal(t, logger.Warn, LogLevel("verbose"))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "00001_rfq_reference_seq.sql", entries[0].Name())
}
