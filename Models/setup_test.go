package Models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&TierConfig{}))
	return db
}

func TestGetTierConfig(t *testing.T) {
	t.Run("returns the stored row", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, db.Create(&TierConfig{DefaultRepaymentDays: 45}).Error)

		config, err := GetTierConfig(db)
		require.NoError(t, err)
		assert.Equal(t, 45, config.DefaultRepaymentDays)
	})

	t.Run("surfaces a missing row instead of reseeding", func(t *testing.T) {
		db := openTestDB(t)

		_, err := GetTierConfig(db)
		assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	})
}
