package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"social-insights-service/internal/entity"
)

var ErrNotFound = errors.New("not found")

type AnalysisRepository struct {
	pool *pgxpool.Pool
}

func NewAnalysisRepository(pool *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{pool: pool}
}

// UpsertBySlug inserts the record or, when a record already exists for
// the slug, updates it in place. Identity and created_at of an existing
// row are preserved; everything else takes the new submission's data.
func (r *AnalysisRepository) UpsertBySlug(ctx context.Context, rec *entity.AnalysisRecord) (*entity.AnalysisRecord, error) {
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	igJSON, err := json.Marshal(rec.InstagramPosts)
	if err != nil {
		return nil, fmt.Errorf("marshal instagram posts: %w", err)
	}
	ttJSON, err := json.Marshal(rec.TikTokPosts)
	if err != nil {
		return nil, fmt.Errorf("marshal tiktok posts: %w", err)
	}
	profilesJSON, err := json.Marshal(rec.Profiles)
	if err != nil {
		return nil, fmt.Errorf("marshal profiles: %w", err)
	}

	const q = `
INSERT INTO analyses (artist_slug, artist_name, instagram_username, tiktok_username,
                      posts_analyzed, result, instagram_posts, tiktok_posts, profiles, analysis_token)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (artist_slug) DO UPDATE SET
    artist_name        = EXCLUDED.artist_name,
    instagram_username = EXCLUDED.instagram_username,
    tiktok_username    = EXCLUDED.tiktok_username,
    posts_analyzed     = EXCLUDED.posts_analyzed,
    result             = EXCLUDED.result,
    instagram_posts    = EXCLUDED.instagram_posts,
    tiktok_posts       = EXCLUDED.tiktok_posts,
    profiles           = EXCLUDED.profiles,
    analysis_token     = EXCLUDED.analysis_token,
    updated_at         = NOW()
RETURNING id, created_at, updated_at;
`
	stored := *rec
	if err := r.pool.QueryRow(ctx, q,
		rec.ArtistSlug,
		rec.ArtistName,
		rec.InstagramUsername,
		rec.TikTokUsername,
		rec.PostsAnalyzed,
		resultJSON,
		igJSON,
		ttJSON,
		profilesJSON,
		rec.AnalysisToken,
	).Scan(&stored.ID, &stored.CreatedAt, &stored.UpdatedAt); err != nil {
		return nil, err
	}

	return &stored, nil
}

func (r *AnalysisRepository) GetBySlug(ctx context.Context, slug string) (*entity.AnalysisRecord, error) {
	const q = `
SELECT id, artist_slug, artist_name, instagram_username, tiktok_username,
       posts_analyzed, result, instagram_posts, tiktok_posts, profiles, analysis_token,
       created_at, updated_at
FROM analyses
WHERE artist_slug = $1;
`
	var (
		rec          entity.AnalysisRecord
		resultJSON   []byte
		igJSON       []byte
		ttJSON       []byte
		profilesJSON []byte
	)

	if err := r.pool.QueryRow(ctx, q, slug).Scan(
		&rec.ID,
		&rec.ArtistSlug,
		&rec.ArtistName,
		&rec.InstagramUsername,
		&rec.TikTokUsername,
		&rec.PostsAnalyzed,
		&resultJSON,
		&igJSON,
		&ttJSON,
		&profilesJSON,
		&rec.AnalysisToken,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(resultJSON, &rec.Result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	if len(igJSON) > 0 {
		if err := json.Unmarshal(igJSON, &rec.InstagramPosts); err != nil {
			return nil, fmt.Errorf("unmarshal instagram posts: %w", err)
		}
	}
	if len(ttJSON) > 0 {
		if err := json.Unmarshal(ttJSON, &rec.TikTokPosts); err != nil {
			return nil, fmt.Errorf("unmarshal tiktok posts: %w", err)
		}
	}
	if len(profilesJSON) > 0 {
		if err := json.Unmarshal(profilesJSON, &rec.Profiles); err != nil {
			return nil, fmt.Errorf("unmarshal profiles: %w", err)
		}
	}

	return &rec, nil
}
