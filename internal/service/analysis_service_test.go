package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"social-insights-service/internal/entity"
	"social-insights-service/internal/fallback"
	"social-insights-service/internal/insight"
	"social-insights-service/internal/progress"
	"social-insights-service/internal/service"
)

// ---- fakes ----

// fallbackCollector behaves like the real collector with no provider
// credentials: always synthetic data, never an error.
type fallbackCollector struct{}

func (fallbackCollector) Collect(_ context.Context, platform entity.Platform, handle string) ([]entity.SocialPost, entity.ProfileSnapshot) {
	return fallback.Posts(platform, handle), fallback.Profile(platform, handle)
}

// emptyCollector simulates a misconfigured pipeline that yields nothing.
type emptyCollector struct{}

func (emptyCollector) Collect(_ context.Context, _ entity.Platform, _ string) ([]entity.SocialPost, entity.ProfileSnapshot) {
	return nil, entity.ProfileSnapshot{}
}

type fallbackSynthesizer struct{}

func (fallbackSynthesizer) Synthesize(_ context.Context, in insight.Input) entity.AnalysisResult {
	return insight.FallbackResult(in.Posts)
}

type fakeRepo struct {
	mu        sync.Mutex
	upserts   int
	bySlug    map[string]*entity.AnalysisRecord
	upsertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{bySlug: map[string]*entity.AnalysisRecord{}}
}

func (r *fakeRepo) UpsertBySlug(_ context.Context, rec *entity.AnalysisRecord) (*entity.AnalysisRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}

	stored := *rec
	if existing, ok := r.bySlug[rec.ArtistSlug]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.UpdatedAt = time.Now().UTC()
	r.bySlug[rec.ArtistSlug] = &stored
	return &stored, nil
}

func (r *fakeRepo) GetBySlug(_ context.Context, slug string) (*entity.AnalysisRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.bySlug[slug]
	if !ok {
		return nil, errors.New("not found")
	}
	return rec, nil
}

// recordingStore wraps the memory store and records every progress
// value written, in order.
type recordingStore struct {
	*progress.MemoryStore
	mu       sync.Mutex
	percents []int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: progress.NewMemoryStore()}
}

func (s *recordingStore) Set(ctx context.Context, job *entity.AnalysisJob) error {
	s.mu.Lock()
	s.percents = append(s.percents, job.Progress)
	s.mu.Unlock()
	return s.MemoryStore.Set(ctx, job)
}

// ---- helpers ----

func newTestService(store progress.Store, repo *fakeRepo) *service.AnalysisService {
	return service.NewAnalysisService(store, fallbackCollector{}, fallbackSynthesizer{}, repo).
		WithTimings(time.Minute, 0)
}

func waitComplete(t *testing.T, svc *service.AnalysisService, jobID string) *entity.AnalysisJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.GetProgress(context.Background(), jobID)
		if err != nil {
			t.Fatalf("GetProgress: %v", err)
		}
		if job.Complete {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not complete in time", jobID)
	return nil
}

// ---- tests ----

func TestSubmit_ValidationRejectsEmptyHandles(t *testing.T) {
	svc := newTestService(progress.NewMemoryStore(), newFakeRepo())

	_, err := svc.Submit(context.Background(), service.SubmitRequest{ArtistName: "Test Artist"})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	_, err = svc.Submit(context.Background(), service.SubmitRequest{InstagramUsername: "testuser"})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty artist name, got %v", err)
	}
}

func TestSubmit_ReturnsImmediatelyWithQueuedJob(t *testing.T) {
	svc := newTestService(progress.NewMemoryStore(), newFakeRepo())

	job, err := svc.Submit(context.Background(), service.SubmitRequest{
		ArtistName:        "Test Artist",
		InstagramUsername: "testuser",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if job.ID == "" || job.Token == "" {
		t.Fatalf("expected job id and token, got %+v", job)
	}
	if job.Complete {
		t.Fatalf("job must not be complete at submission time")
	}
}

func TestRun_InstagramOnlyCompletesWithFallbackData(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(progress.NewMemoryStore(), repo)

	job, err := svc.Submit(context.Background(), service.SubmitRequest{
		ArtistName:        "Test Artist",
		InstagramUsername: "testuser",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	done := waitComplete(t, svc, job.ID)
	if !done.Success {
		t.Fatalf("expected success, got error=%q", done.Error)
	}
	if done.ResultSlug != "testartist" {
		t.Fatalf("expected slug testartist, got %q", done.ResultSlug)
	}

	rec, err := repo.GetBySlug(context.Background(), "testartist")
	if err != nil {
		t.Fatalf("stored record missing: %v", err)
	}
	if rec.PostsAnalyzed != 15 {
		t.Fatalf("expected 15 posts analyzed, got %d", rec.PostsAnalyzed)
	}
	if len(rec.TikTokPosts) != 0 {
		t.Fatalf("expected no tiktok posts, got %d", len(rec.TikTokPosts))
	}
	if rec.AnalysisToken != job.Token {
		t.Fatalf("expected analysis token to match job token")
	}
}

func TestRun_BothPlatforms(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(progress.NewMemoryStore(), repo)

	job, err := svc.Submit(context.Background(), service.SubmitRequest{
		ArtistName:        "Test Artist",
		InstagramUsername: "testuser",
		TikTokUsername:    "testuser",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	done := waitComplete(t, svc, job.ID)
	if !done.Success {
		t.Fatalf("expected success, got error=%q", done.Error)
	}

	rec, _ := repo.GetBySlug(context.Background(), "testartist")
	if rec.PostsAnalyzed != 15+12 {
		t.Fatalf("expected 27 posts analyzed, got %d", rec.PostsAnalyzed)
	}

	// ranked descending per platform
	for i := 0; i < len(rec.InstagramPosts)-1; i++ {
		if rec.InstagramPosts[i].EngagementScore < rec.InstagramPosts[i+1].EngagementScore {
			t.Fatalf("instagram posts not ranked at %d", i)
		}
	}
	for i := 0; i < len(rec.TikTokPosts)-1; i++ {
		if rec.TikTokPosts[i].EngagementScore < rec.TikTokPosts[i+1].EngagementScore {
			t.Fatalf("tiktok posts not ranked at %d", i)
		}
	}
}

func TestRun_ProgressIsMonotonic(t *testing.T) {
	store := newRecordingStore()
	svc := newTestService(store, newFakeRepo())

	job, err := svc.Submit(context.Background(), service.SubmitRequest{
		ArtistName:        "Test Artist",
		InstagramUsername: "testuser",
		TikTokUsername:    "testuser",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitComplete(t, svc, job.ID)

	store.mu.Lock()
	defer store.mu.Unlock()
	for i := 0; i < len(store.percents)-1; i++ {
		if store.percents[i+1] < store.percents[i] {
			t.Fatalf("progress decreased: %v", store.percents)
		}
	}
	if store.percents[len(store.percents)-1] != 100 {
		t.Fatalf("expected final progress 100, got %v", store.percents)
	}
}

func TestRun_RepeatSubmissionUpdatesExistingRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(progress.NewMemoryStore(), repo)

	first, err := svc.Submit(context.Background(), service.SubmitRequest{
		ArtistName:        "Test Artist",
		InstagramUsername: "testuser",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitComplete(t, svc, first.ID)
	firstRec, _ := repo.GetBySlug(context.Background(), "testartist")
	firstID := firstRec.ID

	second, err := svc.Submit(context.Background(), service.SubmitRequest{
		ArtistName:        "Test Artist",
		InstagramUsername: "otheruser",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitComplete(t, svc, second.ID)

	if len(repo.bySlug) != 1 {
		t.Fatalf("expected exactly one stored record, got %d", len(repo.bySlug))
	}
	secondRec, _ := repo.GetBySlug(context.Background(), "testartist")
	if secondRec.ID != firstID {
		t.Fatalf("expected stable identity across upserts")
	}
	if secondRec.InstagramUsername != "otheruser" {
		t.Fatalf("expected second submission to overwrite, got %q", secondRec.InstagramUsername)
	}
}

func TestRun_ZeroPostsFailsJob(t *testing.T) {
	svc := service.NewAnalysisService(progress.NewMemoryStore(), emptyCollector{}, fallbackSynthesizer{}, newFakeRepo()).
		WithTimings(time.Minute, 0)

	job, err := svc.Submit(context.Background(), service.SubmitRequest{
		ArtistName:        "Test Artist",
		InstagramUsername: "testuser",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	done := waitComplete(t, svc, job.ID)
	if done.Success {
		t.Fatalf("expected failure for zero posts")
	}
	if done.Error == "" {
		t.Fatalf("expected an error message on the terminal snapshot")
	}
	if done.Progress != 100 {
		t.Fatalf("terminal snapshot must sit at 100%%, got %d", done.Progress)
	}
}

func TestRun_PersistenceErrorStillCompletes(t *testing.T) {
	repo := newFakeRepo()
	repo.upsertErr = errors.New("connection refused")
	svc := newTestService(progress.NewMemoryStore(), repo)

	job, err := svc.Submit(context.Background(), service.SubmitRequest{
		ArtistName:        "Test Artist",
		InstagramUsername: "testuser",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	done := waitComplete(t, svc, job.ID)
	if !done.Success {
		t.Fatalf("persistence failure must not fail the job")
	}
	if done.Error == "" {
		t.Fatalf("expected the persistence error to be recorded on the job")
	}
}

func TestRun_RetentionDeletesSnapshot(t *testing.T) {
	svc := service.NewAnalysisService(progress.NewMemoryStore(), fallbackCollector{}, fallbackSynthesizer{}, newFakeRepo()).
		WithTimings(50*time.Millisecond, 0)

	job, err := svc.Submit(context.Background(), service.SubmitRequest{
		ArtistName:        "Test Artist",
		InstagramUsername: "testuser",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitComplete(t, svc, job.ID)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := svc.GetProgress(context.Background(), job.ID); errors.Is(err, service.ErrJobNotFound) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected snapshot to be deleted after retention")
}

func TestGetProgress_UnknownJob(t *testing.T) {
	svc := newTestService(progress.NewMemoryStore(), newFakeRepo())

	_, err := svc.GetProgress(context.Background(), "no-such-job")
	if !errors.Is(err, service.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}
