package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-insights-service/internal/entity"
	"social-insights-service/internal/fallback"
	"social-insights-service/internal/provider"
)

type stubProvider struct {
	configured bool
	submitErr  error
	pollErr    error
	fetchErr   error
	postsItems []map[string]any
	profItems  []map[string]any
}

func (s *stubProvider) Configured() bool { return s.configured }

func (s *stubProvider) SubmitJob(_ context.Context, req provider.JobRequest) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	if req.ProfileOnly {
		return "run-profile", nil
	}
	return "run-posts", nil
}

func (s *stubProvider) PollUntilTerminal(_ context.Context, runID string, _ int) (string, error) {
	if s.pollErr != nil {
		return "", s.pollErr
	}
	return "ds-" + runID, nil
}

func (s *stubProvider) FetchResults(_ context.Context, datasetID string) ([]map[string]any, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if datasetID == "ds-run-profile" {
		return s.profItems, nil
	}
	return s.postsItems, nil
}

func TestCollect_NoCredentialsFallsBack(t *testing.T) {
	c := New(&stubProvider{configured: false})

	posts, profile := c.Collect(context.Background(), entity.PlatformInstagram, "testuser")

	assert.Len(t, posts, fallback.InstagramPostCount)
	assert.Equal(t, entity.PlatformInstagram, profile.Platform)
	assert.Positive(t, profile.FollowerCount)
}

func TestCollect_ProviderSuccess(t *testing.T) {
	c := New(&stubProvider{
		configured: true,
		postsItems: []map[string]any{
			{"caption": "real post #tag", "likesCount": float64(100), "commentsCount": float64(10)},
			{"caption": "hidden", "likesCount": float64(-1)},
		},
		profItems: []map[string]any{{"followersCount": float64(4321)}},
	})

	posts, profile := c.Collect(context.Background(), entity.PlatformInstagram, "testuser")

	require.Len(t, posts, 1) // hidden-likes post dropped
	assert.Equal(t, "real post #tag", posts[0].Caption)
	assert.Equal(t, 4321, profile.FollowerCount)
}

func TestCollect_ProviderFailureFallsBack(t *testing.T) {
	c := New(&stubProvider{configured: true, pollErr: provider.ErrPollTimeout})

	posts, profile := c.Collect(context.Background(), entity.PlatformTikTok, "testuser")

	assert.Len(t, posts, fallback.TikTokPostCount)
	assert.Equal(t, entity.PlatformTikTok, profile.Platform)
}

func TestCollect_EmptyAfterFilteringFallsBack(t *testing.T) {
	// All posts carry the hidden-likes sentinel, so normalization
	// leaves nothing and the collector degrades.
	c := New(&stubProvider{
		configured: true,
		postsItems: []map[string]any{{"caption": "hidden", "likesCount": float64(-1)}},
		profItems:  []map[string]any{{"followersCount": float64(10)}},
	})

	posts, _ := c.Collect(context.Background(), entity.PlatformInstagram, "testuser")

	assert.Len(t, posts, fallback.InstagramPostCount)
}

func TestCollect_LegsDegradeIndependently(t *testing.T) {
	// Posts succeed, profile fetch errors: real posts must survive and
	// only the profile falls back.
	c := New(&erroringProfileProvider{stubProvider{
		configured: true,
		postsItems: []map[string]any{{"caption": "kept", "likesCount": float64(5)}},
	}})

	posts, profile := c.Collect(context.Background(), entity.PlatformInstagram, "testuser")

	require.Len(t, posts, 1)
	assert.Equal(t, "kept", posts[0].Caption)
	assert.Positive(t, profile.FollowerCount) // fallback profile
}

type erroringProfileProvider struct {
	stubProvider
}

func (p *erroringProfileProvider) FetchResults(ctx context.Context, datasetID string) ([]map[string]any, error) {
	if datasetID == "ds-run-profile" {
		return nil, errors.New("profile dataset unavailable")
	}
	return p.stubProvider.FetchResults(ctx, datasetID)
}
