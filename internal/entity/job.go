package entity

// Stage identifies where a background analysis job currently is.
type Stage string

const (
	StageQueued              Stage = "queued"
	StageConnectingInstagram Stage = "connecting_instagram"
	StageCollectingInstagram Stage = "collecting_instagram_posts"
	StageConnectingTikTok    Stage = "connecting_tiktok"
	StageCollectingTikTok    Stage = "collecting_tiktok_posts"
	StageAnalyzing           Stage = "analyzing"
	StageGeneratingInsights  Stage = "generating_insights"
	StagePersisting          Stage = "persisting"
	StageComplete            Stage = "complete"
)

// AnalysisJob is the progress snapshot of one background analysis run.
// Exactly one goroutine (the one spawned at submission) writes it;
// polling clients only read.
type AnalysisJob struct {
	ID                  string `json:"id"`
	Token               string `json:"token"`
	Stage               Stage  `json:"stage"`
	Progress            int    `json:"progress"`
	Message             string `json:"message"`
	EstimatedDurationMs int64  `json:"estimated_duration_ms"`
	Complete            bool   `json:"complete"`
	Success             bool   `json:"success"`
	Error               string `json:"error,omitempty"`
	ResultSlug          string `json:"result_slug,omitempty"`
}
