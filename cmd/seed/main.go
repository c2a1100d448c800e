// seed populates a local database with a dev user and a working day of
// meetings so break decisions have a calendar to reason about. Idempotent:
// meeting IDs are derived from their names and date, so reruns upsert in place.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"focusflow/backend/internal/config"
	"focusflow/backend/internal/db"
	meetingdomain "focusflow/backend/internal/meeting/domain"
	meetingrepo "focusflow/backend/internal/meeting/repository"
	userdomain "focusflow/backend/internal/user/domain"
	userrepo "focusflow/backend/internal/user/repository"
)

const (
	devTeamID         = "T-dev"
	devPlatformUserID = "U-dev"
)

type seedMeeting struct {
	name      string
	startHour int
	startMin  int
	minutes   int
}

var devMeetings = []seedMeeting{
	{name: "standup", startHour: 9, startMin: 30, minutes: 15},
	{name: "sprint planning", startHour: 11, startMin: 0, minutes: 60},
	{name: "1:1", startHour: 14, startMin: 30, minutes: 30},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("seed: DATABASE_URL is required")
	}

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := userrepo.NewPostgresRepository(sqlDB)
	meetings := meetingrepo.NewPostgresRepository(sqlDB)

	user, err := ensureDevUser(ctx, users)
	if err != nil {
		log.Fatalf("seed user: %v", err)
	}
	log.Printf("seed: dev user %s (%s/%s)", user.ID, user.TeamID, user.PlatformUserID)

	now := time.Now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	for _, m := range devMeetings {
		start := day.Add(time.Duration(m.startHour)*time.Hour + time.Duration(m.startMin)*time.Minute)
		meeting := &meetingdomain.Meeting{
			ID:        seedMeetingID(m.name, day),
			UserID:    user.ID,
			Title:     m.name,
			StartTime: start.UTC(),
			EndTime:   start.Add(time.Duration(m.minutes) * time.Minute).UTC(),
			CreatedAt: now.UTC(),
		}
		if err := meeting.Validate(); err != nil {
			log.Fatalf("seed meeting %s: %v", m.name, err)
		}
		if err := meetings.Upsert(ctx, meeting); err != nil {
			log.Fatalf("seed meeting %s: %v", m.name, err)
		}
		log.Printf("seed: meeting %q %s - %s", m.name,
			start.Format("15:04"), start.Add(time.Duration(m.minutes)*time.Minute).Format("15:04"))
	}
	log.Println("seed: done")
}

// ensureDevUser returns the dev user, creating it on first run. Create is a
// no-op on conflict, so the re-read converges either way.
func ensureDevUser(ctx context.Context, users *userrepo.PostgresRepository) (*userdomain.User, error) {
	u, err := users.GetByPlatformID(ctx, devTeamID, devPlatformUserID)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	now := time.Now().UTC()
	u = &userdomain.User{
		ID:             uuid.New().String(),
		TeamID:         devTeamID,
		PlatformUserID: devPlatformUserID,
		DisplayName:    "Dev User",
		Timezone:       time.Local.String(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, err
	}
	if created, err := users.GetByPlatformID(ctx, devTeamID, devPlatformUserID); err == nil && created != nil {
		return created, nil
	}
	return u, nil
}

// seedMeetingID derives a stable UUID from the meeting name and date.
func seedMeetingID(name string, day time.Time) string {
	key := fmt.Sprintf("focusflow-seed/%s/%s", day.Format("2006-01-02"), name)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
