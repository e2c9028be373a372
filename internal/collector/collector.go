// Package collector produces the (posts, profile) pair for one
// platform. It never fails: any provider problem degrades to synthetic
// fallback data, visible only in the logs.
package collector

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"social-insights-service/internal/entity"
	"social-insights-service/internal/fallback"
	"social-insights-service/internal/normalize"
	"social-insights-service/internal/provider"
)

const postsLimit = 30

// ScrapeProvider is the slice of the provider client the collector
// needs; tests substitute a stub.
type ScrapeProvider interface {
	Configured() bool
	SubmitJob(ctx context.Context, req provider.JobRequest) (string, error)
	PollUntilTerminal(ctx context.Context, runID string, maxAttempts int) (string, error)
	FetchResults(ctx context.Context, datasetID string) ([]map[string]any, error)
}

type Collector struct {
	scraper ScrapeProvider
}

func New(scraper ScrapeProvider) *Collector {
	return &Collector{scraper: scraper}
}

// Collect fetches posts and profile concurrently and joins them. The
// two legs degrade independently: a dead profile lookup does not throw
// away successfully scraped posts.
func (c *Collector) Collect(ctx context.Context, platform entity.Platform, handle string) ([]entity.SocialPost, entity.ProfileSnapshot) {
	if c.scraper == nil || !c.scraper.Configured() {
		log.Printf("[collector] platform=%s handle=%s degraded=true reason=no_credentials", platform, handle)
		return fallback.Posts(platform, handle), fallback.Profile(platform, handle)
	}

	var (
		posts   []entity.SocialPost
		profile entity.ProfileSnapshot
	)

	g, gctx := errgroup.WithContext(ctx)

	var postsErr, profileErr error
	g.Go(func() error {
		posts, postsErr = c.collectPosts(gctx, platform, handle)
		return nil
	})
	g.Go(func() error {
		profile, profileErr = c.collectProfile(gctx, platform, handle)
		return nil
	})
	_ = g.Wait()

	if postsErr != nil || len(posts) == 0 {
		log.Printf("[collector] platform=%s handle=%s degraded=true leg=posts error=%v", platform, handle, postsErr)
		posts = fallback.Posts(platform, handle)
	}
	if profileErr != nil {
		log.Printf("[collector] platform=%s handle=%s degraded=true leg=profile error=%v", platform, handle, profileErr)
		profile = fallback.Profile(platform, handle)
	}

	return posts, profile
}

func (c *Collector) collectPosts(ctx context.Context, platform entity.Platform, handle string) ([]entity.SocialPost, error) {
	runID, err := c.scraper.SubmitJob(ctx, provider.JobRequest{
		Platform: platform,
		Handle:   handle,
		Limit:    postsLimit,
	})
	if err != nil {
		return nil, err
	}

	datasetID, err := c.scraper.PollUntilTerminal(ctx, runID, provider.PostsPollAttempts)
	if err != nil {
		return nil, err
	}

	items, err := c.scraper.FetchResults(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	return normalize.Posts(platform, items), nil
}

func (c *Collector) collectProfile(ctx context.Context, platform entity.Platform, handle string) (entity.ProfileSnapshot, error) {
	runID, err := c.scraper.SubmitJob(ctx, provider.JobRequest{
		Platform:    platform,
		Handle:      handle,
		ProfileOnly: true,
		Limit:       1,
	})
	if err != nil {
		return entity.ProfileSnapshot{}, err
	}

	datasetID, err := c.scraper.PollUntilTerminal(ctx, runID, provider.ProfilePollAttempts)
	if err != nil {
		return entity.ProfileSnapshot{}, err
	}

	items, err := c.scraper.FetchResults(ctx, datasetID)
	if err != nil {
		return entity.ProfileSnapshot{}, err
	}

	return normalize.Profile(platform, items[0]), nil
}
