package chat

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"besaha/internal/domain/user"
)

// SeedData returns the welcome messages shown in an empty community.
func SeedData(now time.Time) []Message {
	return []Message{
		{
			ID: "seed-welcome", Channel: "general", UserID: 1, UserName: "Karim", Type: MessageText,
			Text:      "Welcome to the community! Ask us anything about Morocco.",
			Badges:    user.Badges{Local: true, CommunityTrusted: true},
			CreatedAt: now.Add(-100 * time.Second),
		},
		{
			ID: "seed-tanneries", Channel: "safety", UserID: 2, UserName: "Sarah", Type: MessageWarning,
			Text:      `Avoid the "tanneries guide" scams in Fes. Just walk in yourself!`,
			Badges:    user.Badges{Traveler: true},
			CreatedAt: now.Add(-50 * time.Second),
		},
		{
			ID: "seed-majorelle", Channel: "gems", UserID: 3, UserName: "Amine", Type: MessageTip,
			Text:      "Best time to visit Majorelle Garden is 8 AM sharp to avoid crowds.",
			Badges:    user.Badges{Local: true, CommunityTrusted: true},
			CreatedAt: now.Add(-20 * time.Second),
		},
	}
}

// Seed inserts SeedData once; reseeding leaves existing rows alone.
func Seed(ctx context.Context, repo *Repository) (int, error) {
	var inserted int64
	for _, msg := range SeedData(time.Now().UTC()) {
		res := repo.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(toModel(&msg))
		if res.Error != nil {
			return int(inserted), fmt.Errorf("seed chat message %s: %w", msg.ID, res.Error)
		}
		inserted += res.RowsAffected
	}
	return int(inserted), nil
}
