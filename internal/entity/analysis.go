package entity

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
)

// SocialPost is the canonical post shape shared by both platforms.
// Immutable once normalized.
type SocialPost struct {
	Platform        Platform  `json:"platform"`
	Type            string    `json:"type"` // photo|video|reel|story
	Caption         string    `json:"caption"`
	Likes           int       `json:"likes"`
	Comments        int       `json:"comments"`
	Shares          int       `json:"shares"`
	Views           int       `json:"views"`
	Timestamp       time.Time `json:"timestamp"`
	Hashtags        []string  `json:"hashtags"`
	MediaURL        string    `json:"media_url,omitempty"`
	PostURL         string    `json:"post_url,omitempty"`
	EngagementScore float64   `json:"engagement_score"`
}

// ProfileSnapshot is one platform profile observation taken during a job.
type ProfileSnapshot struct {
	Platform      Platform `json:"platform"`
	FollowerCount int      `json:"follower_count"`
	AvatarURL     string   `json:"avatar_url,omitempty"`
}

type Insight struct {
	Type        string `json:"type"` // success|warning|improvement
	Title       string `json:"title"`
	Description string `json:"description"`
	Metric      string `json:"metric,omitempty"`
}

type ContentAnalysis struct {
	BestPerforming     string   `json:"bestPerforming"`
	WorstPerforming    string   `json:"worstPerforming"`
	OptimalPostingTime string   `json:"optimalPostingTime"`
	TopHashtags        []string `json:"topHashtags"`
}

type GrowthPrediction struct {
	ThirtyDays float64 `json:"thirtyDays"`
	SixtyDays  float64 `json:"sixtyDays"`
	NinetyDays float64 `json:"ninetyDays"`
}

type TopPerformer struct {
	Platform string  `json:"platform"`
	Caption  string  `json:"caption"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason,omitempty"`
}

// AnalysisResult is the synthesized output for one job. Built once,
// embedded into the persisted record, never mutated afterwards.
type AnalysisResult struct {
	OverallScore     float64          `json:"overallScore"`
	Insights         []Insight        `json:"insights"`
	Recommendations  []string         `json:"recommendations"`
	ContentAnalysis  ContentAnalysis  `json:"contentAnalysis"`
	GrowthPrediction GrowthPrediction `json:"growthPrediction"`
	BrandAnalysis    string           `json:"brandAnalysis,omitempty"`
	ContentGuide     string           `json:"contentGuide,omitempty"`
	TopPerformers    []TopPerformer   `json:"topPerformers,omitempty"`
}

// AnalysisRecord is the persisted analysis, keyed by artist slug.
// At most one record exists per slug; repeat submissions update in place.
type AnalysisRecord struct {
	ID                uuid.UUID         `json:"id"`
	ArtistSlug        string            `json:"artist_slug"`
	ArtistName        string            `json:"artist_name"`
	InstagramUsername string            `json:"instagram_username,omitempty"`
	TikTokUsername    string            `json:"tiktok_username,omitempty"`
	PostsAnalyzed     int               `json:"posts_analyzed"`
	Result            AnalysisResult    `json:"result"`
	InstagramPosts    []SocialPost      `json:"instagram_posts,omitempty"`
	TikTokPosts       []SocialPost      `json:"tiktok_posts,omitempty"`
	Profiles          []ProfileSnapshot `json:"profiles,omitempty"`
	AnalysisToken     string            `json:"analysis_token"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Slugify derives the natural record key from an artist display name:
// lower-cased with everything but letters and digits stripped.
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
