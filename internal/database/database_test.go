package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-manager/internal/config"
	"gorm.io/driver/mysql"
)

func TestDialectorFor_MySQLCountsFoundRows(t *testing.T) {
	cfg := &config.Config{
		StoreDriver: config.DriverMySQL,
		DBHost:      "db",
		DBPort:      "3306",
		DBUser:      "taskuser",
		DBPassword:  "secret",
		DBName:      "task_manager",
	}

	dialector, err := dialectorFor(cfg)
	require.NoError(t, err)

	mysqlDialector, ok := dialector.(*mysql.Dialector)
	require.True(t, ok)
	assert.Equal(t, "taskuser:secret@tcp(db:3306)/task_manager?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true", mysqlDialector.DSN)
}

func TestDialectorFor_UnknownDriver(t *testing.T) {
	_, err := dialectorFor(&config.Config{StoreDriver: "cassandra"})
	assert.Error(t, err)
}
