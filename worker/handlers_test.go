package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jaider012/easy-reals/internal/testutil"
	"github.com/jaider012/easy-reals/models"
)

func newProcessor(t *testing.T) (*Processor, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	// redis is unused by the handlers under test
	return NewProcessor(db, nil, zerolog.Nop()), db
}

func payload(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func seedQueuedVideo(t *testing.T, db *gorm.DB) (models.Series, models.Video) {
	t.Helper()
	u := models.User{ID: 1, Email: "u@example.com", IsActive: true}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	s := models.Series{UserID: 1, Name: "Space Facts", VideoDuration: 45, PostsPerDay: 1, IsActive: true}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("seeding series: %v", err)
	}
	v := models.Video{
		SeriesID: s.ID, UserID: 1, Title: "Space Facts Episode 1",
		Status: models.VideoStatusQueued, Priority: models.PriorityNormal,
	}
	if err := db.Create(&v).Error; err != nil {
		t.Fatalf("seeding video: %v", err)
	}
	return s, v
}

func TestHandleVideoGenerationCompletes(t *testing.T) {
	p, db := newProcessor(t)
	s, v := seedQueuedVideo(t, db)

	err := p.HandleVideoGeneration(context.Background(), payload(t, map[string]uint{"video_id": v.ID}))
	if err != nil {
		t.Fatalf("HandleVideoGeneration: %v", err)
	}

	var got models.Video
	if err := db.First(&got, v.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != models.VideoStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.Progress != 100 {
		t.Errorf("progress = %d, want 100", got.Progress)
	}
	if got.VideoURL == "" || got.Resolution == "" {
		t.Errorf("media fields not populated: %+v", got)
	}
	if got.DurationSecs != s.VideoDuration {
		t.Errorf("duration = %d, want series duration %d", got.DurationSecs, s.VideoDuration)
	}
}

func TestHandleVideoGenerationSkipsNonQueued(t *testing.T) {
	p, db := newProcessor(t)
	_, v := seedQueuedVideo(t, db)
	db.Model(&models.Video{}).Where("id = ?", v.ID).Update("status", models.VideoStatusFailed)

	if err := p.HandleVideoGeneration(context.Background(), payload(t, map[string]uint{"video_id": v.ID})); err != nil {
		t.Fatalf("HandleVideoGeneration: %v", err)
	}

	var got models.Video
	db.First(&got, v.ID)
	if got.Status != models.VideoStatusFailed {
		t.Fatalf("status = %s, non-queued video must be left alone", got.Status)
	}
}

func TestHandleVideoGenerationMissingVideo(t *testing.T) {
	p, _ := newProcessor(t)
	if err := p.HandleVideoGeneration(context.Background(), payload(t, map[string]uint{"video_id": 999})); err == nil {
		t.Fatal("expected error for missing video")
	}
}

func TestHandleVideoGenerationBadPayload(t *testing.T) {
	p, _ := newProcessor(t)
	if err := p.HandleVideoGeneration(context.Background(), "{not json"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestHandleTokenRefreshSkipsWithoutRefreshToken(t *testing.T) {
	p, db := newProcessor(t)
	u := models.User{ID: 1, Email: "u@example.com", IsActive: true}
	db.Create(&u)
	exp := time.Now().Add(time.Hour)
	a := models.SocialAccount{
		UserID: 1, Platform: "youtube", AccountID: "x",
		AccessToken: "t", TokenExpiresAt: &exp, IsActive: true,
	}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seeding account: %v", err)
	}

	if err := p.HandleTokenRefresh(context.Background(), payload(t, map[string]uint{"account_id": a.ID})); err != nil {
		t.Fatalf("HandleTokenRefresh: %v", err)
	}
}

func TestHandleTokenRefreshDueWindow(t *testing.T) {
	db := testutil.NewDB(t)
	var buf bytes.Buffer
	p := NewProcessor(db, nil, zerolog.New(&buf))

	u := models.User{ID: 1, Email: "u@example.com", IsActive: true}
	db.Create(&u)

	soon := time.Now().Add(2 * time.Hour)
	far := time.Now().Add(72 * time.Hour)
	due := models.SocialAccount{
		UserID: 1, Platform: "youtube", AccountID: "a",
		AccessToken: "t", RefreshToken: "r", TokenExpiresAt: &soon, IsActive: true,
	}
	notDue := models.SocialAccount{
		UserID: 1, Platform: "tiktok", AccountID: "b",
		AccessToken: "t", RefreshToken: "r", TokenExpiresAt: &far, IsActive: true,
	}
	for _, a := range []*models.SocialAccount{&due, &notDue} {
		if err := db.Create(a).Error; err != nil {
			t.Fatalf("seeding account: %v", err)
		}
	}

	if err := p.HandleTokenRefresh(context.Background(), payload(t, map[string]uint{"account_id": notDue.ID})); err != nil {
		t.Fatalf("HandleTokenRefresh: %v", err)
	}
	if !strings.Contains(buf.String(), "not due for refresh") {
		t.Fatalf("far-expiry account should be skipped, log: %s", buf.String())
	}

	buf.Reset()
	if err := p.HandleTokenRefresh(context.Background(), payload(t, map[string]uint{"account_id": due.ID})); err != nil {
		t.Fatalf("HandleTokenRefresh: %v", err)
	}
	if !strings.Contains(buf.String(), "token refresh due") {
		t.Fatalf("near-expiry account should be refreshed, log: %s", buf.String())
	}
}
