package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/quocanhngo/sportcast/internal/config"
	"github.com/quocanhngo/sportcast/internal/database"
	"github.com/quocanhngo/sportcast/internal/model"
	"github.com/quocanhngo/sportcast/internal/repository"
	"github.com/quocanhngo/sportcast/pkg/logger"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(cfg.App.LogLevel, !cfg.App.IsProduction()); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.WithModule("seeder")

	// Force DB logging off to avoid noise
	db, err := database.Open(database.Config{DSN: cfg.DB.DSN(), LogLevel: gormlogger.Silent})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	ctx := context.Background()
	category := seedCategory(db, log)
	channel := seedChannel(db, log)
	seedMatches(ctx, db, category, channel, log)
	seedDevices(ctx, db, log)

	log.Info("seeding completed")
}

func seedCategory(db *gorm.DB, log *zap.Logger) *model.Category {
	var category model.Category
	err := db.Where(model.Category{Name: "Football"}).
		Attrs(model.Category{IsActive: true}).
		FirstOrCreate(&category).Error
	if err != nil {
		log.Fatal("failed to seed category", zap.Error(err))
	}
	log.Info("category ready", zap.String("name", category.Name))
	return &category
}

func seedChannel(db *gorm.DB, log *zap.Logger) *model.Channel {
	var channel model.Channel
	err := db.Where(model.Channel{Name: "Sportcast 1"}).
		Attrs(model.Channel{Type: "hls", IsActive: true}).
		FirstOrCreate(&channel).Error
	if err != nil {
		log.Fatal("failed to seed channel", zap.Error(err))
	}
	log.Info("channel ready", zap.String("name", channel.Name))
	return &channel
}

// seedMatches creates one match per lifecycle stage relative to now so the
// scheduler has something to do on its first tick
func seedMatches(ctx context.Context, db *gorm.DB, category *model.Category, channel *model.Channel, log *zap.Logger) {
	repo := repository.NewMatchRepository(db)
	now := time.Now().UTC().Truncate(time.Minute)

	fixtures := []struct {
		title      string
		home, away string
		offset     time.Duration
	}{
		{"Premier League", "Arsenal", "Chelsea", 10 * time.Minute},
		{"La Liga", "Barcelona", "Real Madrid", -2 * time.Minute},
		{"Serie A", "Inter", "Milan", 3 * time.Hour},
		{"Bundesliga", "Bayern", "Dortmund", -3 * time.Hour},
	}

	for _, f := range fixtures {
		var count int64
		db.Model(&model.Match{}).Where("title = ?", f.title).Count(&count)
		if count > 0 {
			continue
		}

		m := &model.Match{
			Title:         f.title,
			CategoryID:    &category.ID,
			ChannelID:     &channel.ID,
			Opponent1Name: f.home,
			Opponent2Name: f.away,
			MatchTime:     now.Add(f.offset),
			VideoType:     "YouTube",
			IsActive:      true,
		}
		if err := repo.Create(ctx, m); err != nil {
			log.Error("failed to create match", zap.String("title", f.title), zap.Error(err))
			continue
		}
		log.Info("created match", zap.String("fixture", m.Fixture()), zap.Time("match_time", m.MatchTime))
	}
}

func seedDevices(ctx context.Context, db *gorm.DB, log *zap.Logger) {
	repo := repository.NewUserRepository(db)
	now := time.Now().UTC()

	for i := 1; i <= 5; i++ {
		platform := "android"
		if i%2 == 0 {
			platform = "ios"
		}
		token := fmt.Sprintf("seed-device-token-%02d", i)
		if err := repo.UpsertDevice(ctx, token, platform, now); err != nil {
			log.Error("failed to seed device", zap.String("token", token), zap.Error(err))
		}
	}
	log.Info("devices ready", zap.Int("count", 5))
}
