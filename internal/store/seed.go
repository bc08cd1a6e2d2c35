// ABOUTME: Starter conversation partners created for new development accounts
// ABOUTME: Each partner opens with one message so histories and previews are populated

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type seedPartner struct {
	name        string
	role        string
	avatar      string
	opening     string
	translation string
	age         time.Duration
	unread      int
}

var seedPartners = []seedPartner{
	{"Sarah", "Medical Sales Rep", "👩‍⚕️", "How was your meeting?", "¿Cómo estuvo tu reunión?", 10 * time.Minute, 3},
	{"Mike", "Gym Trainer", "💪", "Ready for leg day?", "¿Listo para el día de piernas?", 72 * time.Hour, 0},
	{"Emma", "Travel Companion", "✈️", "Where should we go next?", "¿A dónde deberíamos ir ahora?", 240 * time.Hour, 1},
}

// SeedPartners gives userID the three starter partners. Activity times are
// spread relative to now so the roster shows minutes, weekdays and dates.
func SeedPartners(ctx context.Context, s Store, userID, level string, now time.Time) ([]*Partner, error) {
	partners := make([]*Partner, 0, len(seedPartners))
	for _, sp := range seedPartners {
		at := now.Add(-sp.age)
		p := &Partner{
			ID:           uuid.New().String(),
			UserID:       userID,
			Name:         sp.name,
			Role:         sp.role,
			Avatar:       sp.avatar,
			Level:        level,
			LastActivity: at,
			UnreadCount:  sp.unread,
			CreatedAt:    at,
		}
		if err := s.CreatePartner(ctx, p); err != nil {
			return nil, fmt.Errorf("seeding %s: %w", sp.name, err)
		}

		msg := &Message{
			ID:          uuid.New().String(),
			PartnerID:   p.ID,
			Text:        sp.opening,
			Translation: sp.translation,
			Sender:      SenderPartner,
			CreatedAt:   at,
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			return nil, fmt.Errorf("seeding %s opening message: %w", sp.name, err)
		}
		p.LastMessage = sp.opening
		partners = append(partners, p)
	}
	return partners, nil
}
