package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-insights-service/internal/entity"
)

func TestPost_InstagramFieldCandidates(t *testing.T) {
	item := map[string]any{
		"caption":        "Studio day #newmusic #wip",
		"likesCount":     float64(120),
		"commentsCount":  float64(14),
		"sharesCount":    float64(3),
		"videoViewCount": float64(1000),
		"timestamp":      "2026-08-20T18:30:00Z",
		"displayUrl":     "https://cdn.example.com/a.jpg",
		"url":            "https://www.instagram.com/p/abc/",
		"type":           "Video",
	}

	p := Post(entity.PlatformInstagram, item)

	assert.Equal(t, entity.PlatformInstagram, p.Platform)
	assert.Equal(t, "video", p.Type)
	assert.Equal(t, 120, p.Likes)
	assert.Equal(t, 14, p.Comments)
	assert.Equal(t, 3, p.Shares)
	assert.Equal(t, 1000, p.Views)
	assert.Equal(t, []string{"#newmusic", "#wip"}, p.Hashtags)
	// likes + comments + 0.1*views + 2*shares
	assert.InDelta(t, 120+14+0.1*1000+2*3, p.EngagementScore, 1e-9)
}

func TestPost_RenamedFieldsFallBack(t *testing.T) {
	item := map[string]any{
		"text":         "tour announcement",
		"diggCount":    float64(5000),
		"commentCount": float64(300),
		"shareCount":   float64(150),
		"playCount":    float64(200000),
		"createTime":   float64(1755700000),
	}

	p := Post(entity.PlatformTikTok, item)

	assert.Equal(t, 5000, p.Likes)
	assert.Equal(t, 300, p.Comments)
	assert.Equal(t, 150, p.Shares)
	assert.Equal(t, 200000, p.Views)
	assert.Equal(t, "video", p.Type)
	assert.False(t, p.Timestamp.IsZero())
	// likes + comments + 0.01*views + 3*shares
	assert.InDelta(t, 5000+300+0.01*200000+3*150, p.EngagementScore, 1e-9)
}

func TestPost_MissingFieldsDefaultToZero(t *testing.T) {
	p := Post(entity.PlatformInstagram, map[string]any{})

	assert.Zero(t, p.Likes)
	assert.Zero(t, p.Comments)
	assert.Zero(t, p.Views)
	assert.Zero(t, p.EngagementScore)
	assert.Empty(t, p.Hashtags)
}

func TestPost_IsPure(t *testing.T) {
	item := map[string]any{"caption": "same #tag", "likesCount": float64(7)}

	first := Post(entity.PlatformInstagram, item)
	second := Post(entity.PlatformInstagram, item)

	assert.Equal(t, first, second)
}

func TestPosts_DropsHiddenLikesSentinel(t *testing.T) {
	items := []map[string]any{
		{"caption": "visible", "likesCount": float64(10)},
		{"caption": "hidden", "likesCount": float64(-1)},
		{"caption": "also visible", "likesCount": float64(5)},
	}

	posts := Posts(entity.PlatformInstagram, items)

	require.Len(t, posts, 2)
	assert.Equal(t, "visible", posts[0].Caption)
	assert.Equal(t, "also visible", posts[1].Caption)
}

func TestPosts_TikTokKeepsNegativeSentinelOutOfScope(t *testing.T) {
	// The sentinel is Instagram-specific; TikTok items pass through.
	items := []map[string]any{{"text": "clip", "diggCount": float64(-1)}}

	posts := Posts(entity.PlatformTikTok, items)

	require.Len(t, posts, 1)
}

func TestRank_DescendingAndStable(t *testing.T) {
	posts := []entity.SocialPost{
		{Caption: "a", EngagementScore: 10},
		{Caption: "b", EngagementScore: 30},
		{Caption: "c", EngagementScore: 30},
		{Caption: "d", EngagementScore: 20},
	}

	Rank(posts)

	for i := 0; i < len(posts)-1; i++ {
		assert.GreaterOrEqual(t, posts[i].EngagementScore, posts[i+1].EngagementScore)
	}
	// ties keep input order
	assert.Equal(t, "b", posts[0].Caption)
	assert.Equal(t, "c", posts[1].Caption)
}

func TestHashtags_CappedAtTenOrderPreserved(t *testing.T) {
	caption := "#t1 x #t2 #t3 #t4 #t5 #t6 #t7 #t8 #t9 #t10 #t11 #t12"

	tags := Hashtags(caption)

	require.Len(t, tags, 10)
	assert.Equal(t, "#t1", tags[0])
	assert.Equal(t, "#t10", tags[9])
}

func TestHashtags_NoTags(t *testing.T) {
	assert.Empty(t, Hashtags("no tags here"))
}

func TestProfile_NegativeFollowersClamped(t *testing.T) {
	snap := Profile(entity.PlatformInstagram, map[string]any{"followersCount": float64(-5)})
	assert.Equal(t, 0, snap.FollowerCount)
}
