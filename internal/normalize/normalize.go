// Package normalize converts provider-specific post records into the
// canonical SocialPost shape and computes engagement scores.
package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"social-insights-service/internal/entity"
)

// Apify's Instagram scraper reports this for posts with hidden like
// counts. Such posts are real but must not enter engagement ranking.
const hiddenLikesSentinel = -1

const maxHashtags = 10

var hashtagPattern = regexp.MustCompile(`#\w+`)

// Posts maps raw provider items to SocialPosts, dropping Instagram
// posts whose like count is the hidden-likes sentinel. Output order
// follows input order; call Rank to sort by engagement.
func Posts(platform entity.Platform, items []map[string]any) []entity.SocialPost {
	posts := make([]entity.SocialPost, 0, len(items))
	for _, item := range items {
		if platform == entity.PlatformInstagram && pickInt(item, "likesCount", "likes") == hiddenLikesSentinel {
			continue
		}
		posts = append(posts, Post(platform, item))
	}
	return posts
}

// Post maps a single raw provider item. Pure: the same item always
// yields the same SocialPost.
func Post(platform entity.Platform, item map[string]any) entity.SocialPost {
	caption := pickString(item, "caption", "text", "desc", "description")

	p := entity.SocialPost{
		Platform:  platform,
		Type:      postType(platform, item),
		Caption:   caption,
		Likes:     pickInt(item, "likesCount", "likes", "diggCount"),
		Comments:  pickInt(item, "commentsCount", "comments", "commentCount"),
		Shares:    pickInt(item, "sharesCount", "shares", "shareCount"),
		Views:     pickInt(item, "videoViewCount", "viewsCount", "views", "playCount"),
		Timestamp: pickTime(item, "timestamp", "createTimeISO", "createTime"),
		Hashtags:  Hashtags(caption),
		MediaURL:  pickString(item, "displayUrl", "videoUrl", "coverUrl", "mediaUrl"),
		PostURL:   pickString(item, "url", "postUrl", "webVideoUrl", "shareUrl"),
	}
	p.EngagementScore = EngagementScore(platform, p.Likes, p.Comments, p.Shares, p.Views)
	return p
}

// Profile maps the first item of a profile-details dataset.
func Profile(platform entity.Platform, item map[string]any) entity.ProfileSnapshot {
	followers := pickInt(item, "followersCount", "followers", "fans", "followerCount")
	if followers < 0 {
		followers = 0
	}
	return entity.ProfileSnapshot{
		Platform:      platform,
		FollowerCount: followers,
		AvatarURL:     pickString(item, "profilePicUrl", "avatar", "avatarLarger", "profilePicture"),
	}
}

// EngagementScore is the platform-specific ranking weight. Views count
// for little on Instagram (0.1) and almost nothing on TikTok (0.01)
// where raw view numbers run orders of magnitude higher; shares weigh
// 2x and 3x respectively.
func EngagementScore(platform entity.Platform, likes, comments, shares, views int) float64 {
	switch platform {
	case entity.PlatformTikTok:
		return float64(likes) + float64(comments) + 0.01*float64(views) + 3*float64(shares)
	default:
		return float64(likes) + float64(comments) + 0.1*float64(views) + 2*float64(shares)
	}
}

// Rank sorts posts descending by engagement score. Stable: ties keep
// input order.
func Rank(posts []entity.SocialPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].EngagementScore > posts[j].EngagementScore
	})
}

// Hashtags extracts #word tags from a caption, order preserved, capped
// at ten.
func Hashtags(caption string) []string {
	tags := hashtagPattern.FindAllString(caption, maxHashtags)
	if tags == nil {
		return []string{}
	}
	return tags
}

func postType(platform entity.Platform, item map[string]any) string {
	if platform == entity.PlatformTikTok {
		return "video"
	}
	switch strings.ToLower(pickString(item, "productType", "type")) {
	case "clips", "reel", "reels":
		return "reel"
	case "video":
		return "video"
	case "story":
		return "story"
	default:
		return "photo"
	}
}

// pickInt returns the first present numeric value among the candidate
// keys, default 0. JSON decoding yields float64; string counts show up
// in some scraper payloads.
func pickInt(item map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := item[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case string:
			if n, err := strconv.Atoi(strings.ReplaceAll(v, ",", "")); err == nil {
				return n
			}
		}
	}
	return 0
}

func pickString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := item[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// pickTime tries RFC3339 strings first, then unix seconds (TikTok's
// createTime). Falls back to the zero time rather than inventing one.
func pickTime(item map[string]any, keys ...string) time.Time {
	for _, key := range keys {
		switch v := item[key].(type) {
		case string:
			if ts, err := time.Parse(time.RFC3339, v); err == nil {
				return ts
			}
			if secs, err := strconv.ParseInt(v, 10, 64); err == nil && secs > 0 {
				return time.Unix(secs, 0).UTC()
			}
		case float64:
			if v > 0 {
				return time.Unix(int64(v), 0).UTC()
			}
		}
	}
	return time.Time{}
}
