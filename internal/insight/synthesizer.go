// Package insight turns a ranked post dataset into an AnalysisResult
// via a generative-text service. The stage is total: every failure path
// resolves to a fixed fallback result of the correct shape.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"social-insights-service/internal/entity"
)

// Input is the aggregated, ranked dataset for one job.
type Input struct {
	ArtistName string
	Posts      []entity.SocialPost
	Profiles   []entity.ProfileSnapshot
}

type Synthesizer struct {
	gen TextGenerator
}

// NewSynthesizer wires a text generator; gen may be nil, in which case
// every call resolves to the fallback result.
func NewSynthesizer(gen TextGenerator) *Synthesizer {
	return &Synthesizer{gen: gen}
}

// Synthesize never fails. Model errors, malformed JSON, and schema
// violations all degrade silently to the fallback result.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) entity.AnalysisResult {
	if s.gen == nil {
		log.Printf("[insight] artist=%q degraded=true reason=no_generator", in.ArtistName)
		return FallbackResult(in.Posts)
	}

	raw, err := s.gen.GenerateJSON(ctx, buildPrompt(in))
	if err != nil {
		log.Printf("[insight] artist=%q degraded=true reason=generate error=%v", in.ArtistName, err)
		return FallbackResult(in.Posts)
	}

	result, err := parseResult(raw)
	if err != nil {
		log.Printf("[insight] artist=%q degraded=true reason=contract error=%v", in.ArtistName, err)
		return FallbackResult(in.Posts)
	}
	return result
}

func parseResult(raw string) (entity.AnalysisResult, error) {
	validation, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(resultSchema),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return entity.AnalysisResult{}, fmt.Errorf("schema validation: %w", err)
	}
	if !validation.Valid() {
		descs := make([]string, 0, len(validation.Errors()))
		for _, e := range validation.Errors() {
			descs = append(descs, e.String())
		}
		return entity.AnalysisResult{}, fmt.Errorf("schema violations: %s", strings.Join(descs, "; "))
	}

	var result entity.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return entity.AnalysisResult{}, fmt.Errorf("unmarshal result: %w", err)
	}
	return result, nil
}

func buildPrompt(in Input) string {
	var b strings.Builder

	b.WriteString("You are a social media strategist for music artists. ")
	b.WriteString("Analyze the following engagement dataset and return ONLY a JSON object, no markdown, no explanation.\n\n")

	fmt.Fprintf(&b, "Artist: %s\n", in.ArtistName)
	for _, p := range in.Profiles {
		fmt.Fprintf(&b, "Profile: platform=%s followers=%d\n", p.Platform, p.FollowerCount)
	}

	byPlatform := map[entity.Platform]int{}
	var totalLikes, totalComments, totalShares, totalViews int
	for _, p := range in.Posts {
		byPlatform[p.Platform]++
		totalLikes += p.Likes
		totalComments += p.Comments
		totalShares += p.Shares
		totalViews += p.Views
	}
	fmt.Fprintf(&b, "Posts: total=%d instagram=%d tiktok=%d\n", len(in.Posts), byPlatform[entity.PlatformInstagram], byPlatform[entity.PlatformTikTok])
	fmt.Fprintf(&b, "Totals: likes=%d comments=%d shares=%d views=%d\n\n", totalLikes, totalComments, totalShares, totalViews)

	b.WriteString("Top posts by engagement score:\n")
	for i, p := range in.Posts {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&b, "- [%s/%s] score=%.1f likes=%d comments=%d shares=%d views=%d caption=%q\n",
			p.Platform, p.Type, p.EngagementScore, p.Likes, p.Comments, p.Shares, p.Views, truncate(p.Caption, 120))
	}

	b.WriteString("\nReturn JSON matching this exact schema:\n")
	b.WriteString(resultSchema)
	b.WriteString("\n\nRequirements:\n")
	b.WriteString("- overallScore: engagement quality from 0 to 10.\n")
	b.WriteString("- insights: 3 to 5 items, each typed success, warning, or improvement.\n")
	b.WriteString("- recommendations: 4 to 6 actionable strings.\n")
	b.WriteString("- contentAnalysis: best and worst performing content type, optimal posting time, top hashtags.\n")
	b.WriteString("- growthPrediction: expected follower growth percentages over 30, 60 and 90 days.\n")
	b.WriteString("- Optionally include brandAnalysis, contentGuide and topPerformers.\n")

	return b.String()
}

// FallbackResult is the documented fixed result used whenever the model
// cannot be reached or violates the contract. The content analysis is
// still computed locally from the ranked posts since it needs no model.
func FallbackResult(posts []entity.SocialPost) entity.AnalysisResult {
	return entity.AnalysisResult{
		OverallScore: 7.5,
		Insights: []entity.Insight{
			{
				Type:        "success",
				Title:       "Consistent posting cadence",
				Description: "Recent posts land at a steady rhythm, which platform algorithms reward with better reach.",
			},
			{
				Type:        "warning",
				Title:       "Engagement concentrated in few posts",
				Description: "A small share of posts drives most of the engagement; the rest underperform the account average.",
			},
			{
				Type:        "improvement",
				Title:       "Lean into short-form video",
				Description: "Video formats outperform static content across both platforms; shifting the mix should lift overall engagement.",
			},
		},
		Recommendations: []string{
			"Post short-form video at least three times per week.",
			"Reply to comments within the first hour to boost early engagement signals.",
			"Reuse the hashtags from your top-performing posts.",
			"Cross-post your best content between Instagram and TikTok.",
		},
		ContentAnalysis: contentAnalysisFromPosts(posts),
		GrowthPrediction: entity.GrowthPrediction{
			ThirtyDays: 15,
			SixtyDays:  35,
			NinetyDays: 75,
		},
	}
}

func contentAnalysisFromPosts(posts []entity.SocialPost) entity.ContentAnalysis {
	ca := entity.ContentAnalysis{
		BestPerforming:     "video",
		WorstPerforming:    "photo",
		OptimalPostingTime: "6:00 PM - 9:00 PM",
		TopHashtags:        []string{},
	}
	if len(posts) == 0 {
		return ca
	}

	scoreByType := map[string]float64{}
	countByType := map[string]int{}
	tagCounts := map[string]int{}
	tagOrder := []string{}
	for _, p := range posts {
		scoreByType[p.Type] += p.EngagementScore
		countByType[p.Type]++
		for _, tag := range p.Hashtags {
			if tagCounts[tag] == 0 {
				tagOrder = append(tagOrder, tag)
			}
			tagCounts[tag]++
		}
	}

	best, worst := "", ""
	var bestAvg, worstAvg float64
	for typ, total := range scoreByType {
		avg := total / float64(countByType[typ])
		if best == "" || avg > bestAvg {
			best, bestAvg = typ, avg
		}
		if worst == "" || avg < worstAvg {
			worst, worstAvg = typ, avg
		}
	}
	ca.BestPerforming = best
	ca.WorstPerforming = worst

	sort.SliceStable(tagOrder, func(i, j int) bool {
		return tagCounts[tagOrder[i]] > tagCounts[tagOrder[j]]
	})
	if len(tagOrder) > 5 {
		tagOrder = tagOrder[:5]
	}
	ca.TopHashtags = tagOrder

	return ca
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
