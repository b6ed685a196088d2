package mysql

import (
	"context"
	"testing"

	"Kampung_Community/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, name string) *model.User {
	t.Helper()
	u := &model.User{Email: email, Password: "x"}
	require.NoError(t, (&UserRepository{DB: db}).Create(context.Background(), u, name))
	return u
}

func seedCommunity(t *testing.T, db *gorm.DB, slug string) *model.Community {
	t.Helper()
	c, err := (&CommunityRepository{DB: db}).Ensure(context.Background(), &model.Community{
		Slug: slug, Name: slug, Kind: model.KindBuilding, Sector: "08", District: 2, Region: "Central",
	})
	require.NoError(t, err)
	return c
}
