// Package service owns the end-to-end analysis job: validation, the
// background stage machine, insight synthesis, persistence, and
// progress reporting.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"social-insights-service/internal/entity"
	"social-insights-service/internal/insight"
	"social-insights-service/internal/normalize"
	"social-insights-service/internal/progress"
	"social-insights-service/internal/repository/postgresql"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrJobNotFound = errors.New("job not found")
)

const defaultRetention = 5 * time.Minute

// Collector produces the (posts, profile) pair for one platform and
// never fails (degrades to synthetic data internally).
type Collector interface {
	Collect(ctx context.Context, platform entity.Platform, handle string) ([]entity.SocialPost, entity.ProfileSnapshot)
}

// Synthesizer turns the ranked dataset into an AnalysisResult and never
// fails (degrades to a fixed fallback internally).
type Synthesizer interface {
	Synthesize(ctx context.Context, in insight.Input) entity.AnalysisResult
}

type AnalysisRepository interface {
	UpsertBySlug(ctx context.Context, rec *entity.AnalysisRecord) (*entity.AnalysisRecord, error)
	GetBySlug(ctx context.Context, slug string) (*entity.AnalysisRecord, error)
}

type AnalysisService struct {
	store     progress.Store
	collector Collector
	synth     Synthesizer
	repo      AnalysisRepository

	validate     *validator.Validate
	retention    time.Duration
	connectDelay time.Duration
}

func NewAnalysisService(store progress.Store, collector Collector, synth Synthesizer, repo AnalysisRepository) *AnalysisService {
	return &AnalysisService{
		store:        store,
		collector:    collector,
		synth:        synth,
		repo:         repo,
		validate:     validator.New(),
		retention:    defaultRetention,
		connectDelay: 750 * time.Millisecond,
	}
}

// WithTimings overrides retention and the simulated connect delay.
// Used by tests; zero values keep the current settings.
func (s *AnalysisService) WithTimings(retention, connectDelay time.Duration) *AnalysisService {
	if retention > 0 {
		s.retention = retention
	}
	if connectDelay >= 0 {
		s.connectDelay = connectDelay
	}
	return s
}

type SubmitRequest struct {
	ArtistName        string `json:"artistName" validate:"required"`
	InstagramUsername string `json:"instagramUsername" validate:"required_without=TikTokUsername"`
	TikTokUsername    string `json:"tiktokUsername"`
}

// stageInfo holds the fixed progress checkpoint, the user-facing
// message, and a rough remaining-time estimate per stage.
type stageInfo struct {
	percent     int
	message     string
	estimatedMs int64
}

var stages = map[entity.Stage]stageInfo{
	entity.StageQueued:              {0, "Analysis queued", 45000},
	entity.StageConnectingInstagram: {5, "Connecting to Instagram...", 42000},
	entity.StageCollectingInstagram: {25, "Collecting Instagram posts...", 34000},
	entity.StageConnectingTikTok:    {40, "Connecting to TikTok...", 27000},
	entity.StageCollectingTikTok:    {50, "Collecting TikTok posts...", 22000},
	entity.StageAnalyzing:           {65, "Analyzing engagement...", 16000},
	entity.StageGeneratingInsights:  {80, "Generating insights...", 9000},
	entity.StagePersisting:          {95, "Saving analysis...", 2000},
	entity.StageComplete:            {100, "Analysis complete", 0},
}

// Submit validates the request, seeds the progress store, and detaches
// the background run. It returns before any pipeline work starts.
func (s *AnalysisService) Submit(ctx context.Context, req SubmitRequest) (*entity.AnalysisJob, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	job := &entity.AnalysisJob{
		ID:    uuid.NewString(),
		Token: uuid.NewString(),
	}
	applyStage(job, entity.StageQueued)

	if err := s.store.Set(ctx, job); err != nil {
		return nil, err
	}

	go s.run(req, job.ID, job.Token)

	return job, nil
}

// GetProgress returns the current snapshot. A job whose retention
// window has elapsed is indistinguishable from one that never existed.
func (s *AnalysisService) GetProgress(ctx context.Context, jobID string) (*entity.AnalysisJob, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, progress.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// GetAnalysis reads a persisted record by slug.
func (s *AnalysisService) GetAnalysis(ctx context.Context, slug string) (*entity.AnalysisRecord, error) {
	rec, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, postgresql.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return rec, nil
}

// run is the background stage machine. It owns the job's snapshot
// exclusively and converts every failure, including panics, into a
// terminal state; nothing may escape this goroutine.
func (s *AnalysisService) run(req SubmitRequest, jobID, token string) {
	ctx := context.Background()
	start := time.Now()

	job := &entity.AnalysisJob{ID: jobID, Token: token}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[analysis] job_id=%s panic=%v", jobID, r)
			s.finish(ctx, job, false, fmt.Sprintf("internal error: %v", r), "")
		}
	}()

	advance := func(stage entity.Stage) {
		applyStage(job, stage)
		if err := s.store.Set(ctx, job); err != nil {
			log.Printf("[analysis] job_id=%s stage=%s progress_set_error=%v", jobID, stage, err)
		}
	}

	var (
		igPosts, ttPosts []entity.SocialPost
		profiles         []entity.ProfileSnapshot
	)

	// Platforms are processed sequentially; within a platform the
	// collector joins posts and profile concurrently.
	if req.InstagramUsername != "" {
		advance(entity.StageConnectingInstagram)
		time.Sleep(s.connectDelay)
		advance(entity.StageCollectingInstagram)
		posts, prof := s.collector.Collect(ctx, entity.PlatformInstagram, req.InstagramUsername)
		igPosts = posts
		profiles = append(profiles, prof)
	}
	if req.TikTokUsername != "" {
		advance(entity.StageConnectingTikTok)
		time.Sleep(s.connectDelay)
		advance(entity.StageCollectingTikTok)
		posts, prof := s.collector.Collect(ctx, entity.PlatformTikTok, req.TikTokUsername)
		ttPosts = posts
		profiles = append(profiles, prof)
	}

	advance(entity.StageAnalyzing)
	normalize.Rank(igPosts)
	normalize.Rank(ttPosts)

	total := len(igPosts) + len(ttPosts)
	if total == 0 {
		log.Printf("[analysis] job_id=%s status=failed reason=no_posts duration_ms=%d", jobID, time.Since(start).Milliseconds())
		s.finish(ctx, job, false, "no posts found for the given handles", "")
		return
	}

	advance(entity.StageGeneratingInsights)
	combined := make([]entity.SocialPost, 0, total)
	combined = append(combined, igPosts...)
	combined = append(combined, ttPosts...)
	normalize.Rank(combined)

	result := s.synth.Synthesize(ctx, insight.Input{
		ArtistName: req.ArtistName,
		Posts:      combined,
		Profiles:   profiles,
	})

	advance(entity.StagePersisting)
	slug := entity.Slugify(req.ArtistName)
	rec := &entity.AnalysisRecord{
		ArtistSlug:        slug,
		ArtistName:        req.ArtistName,
		InstagramUsername: req.InstagramUsername,
		TikTokUsername:    req.TikTokUsername,
		PostsAnalyzed:     total,
		Result:            result,
		InstagramPosts:    igPosts,
		TikTokPosts:       ttPosts,
		Profiles:          profiles,
		AnalysisToken:     token,
	}

	// A persistence failure does not fail the job: the analysis ran to
	// completion. The error is recorded so callers can tell the stored
	// record may be missing.
	if _, err := s.repo.UpsertBySlug(ctx, rec); err != nil {
		log.Printf("[analysis] job_id=%s persist_error=%v", jobID, err)
		job.Error = fmt.Sprintf("result persistence failed: %v", err)
	}

	log.Printf("[analysis] job_id=%s status=done slug=%s posts=%d duration_ms=%d",
		jobID, slug, total, time.Since(start).Milliseconds())
	s.finish(ctx, job, true, job.Error, slug)
}

// finish writes the terminal snapshot and schedules the retention
// delete. Only the owning background task calls it.
func (s *AnalysisService) finish(ctx context.Context, job *entity.AnalysisJob, success bool, errMsg, slug string) {
	applyStage(job, entity.StageComplete)
	job.Complete = true
	job.Success = success
	job.Error = errMsg
	job.ResultSlug = slug
	if !success {
		job.Message = "Analysis failed"
	}
	if err := s.store.Set(ctx, job); err != nil {
		log.Printf("[analysis] job_id=%s terminal_set_error=%v", job.ID, err)
	}

	jobID := job.ID
	time.AfterFunc(s.retention, func() {
		if err := s.store.Delete(context.Background(), jobID); err != nil {
			log.Printf("[analysis] job_id=%s retention_delete_error=%v", jobID, err)
		}
	})
}

func applyStage(job *entity.AnalysisJob, stage entity.Stage) {
	info := stages[stage]
	job.Stage = stage
	job.Progress = info.percent
	job.Message = info.message
	job.EstimatedDurationMs = info.estimatedMs
}
