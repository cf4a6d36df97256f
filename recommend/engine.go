// Package recommend ranks manga for a user from reading history, favorites
// and popularity signals. Rankings are memoized in the cache service as
// ID lists and re-hydrated through the catalog on every hit, so deleted or
// since-unpublished series drop out without invalidation.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yomuhub/yomu/cache"
	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/metrics"
	"github.com/yomuhub/yomu/model"
	"github.com/yomuhub/yomu/store"
)

const (
	userKeyFormat    = "rec:user:%d:limit:%d"
	userKeyPrefix    = "rec:user:%d:"
	popularKeyFormat = "rec:popular:%d"

	// peerLimit caps how many overlapping readers seed the peer strategies.
	peerLimit = 50

	trendingWindow = 7 * 24 * time.Hour

	// Thresholds for the cold-start list: well rated and read by enough
	// people to trust the average.
	newUserMinRating  = 4.0
	newUserMinReaders = 10
)

type Engine struct {
	store *store.Store
	cache cache.Cache
	ttl   time.Duration
}

func NewEngine(s *store.Store, c cache.Cache, ttl time.Duration) *Engine {
	return &Engine{store: s, cache: c, ttl: ttl}
}

// GetRecommendationsForUser returns the ranked list for one user.
// userID 0 is the anonymous reader and gets the global popularity ranking.
func (e *Engine) GetRecommendationsForUser(ctx context.Context, userID int32, limit int) ([]*model.Manga, error) {
	if limit <= 0 {
		return []*model.Manga{}, nil
	}
	if userID == 0 {
		return e.GetPopularMangas(ctx, limit)
	}

	key := fmt.Sprintf(userKeyFormat, userID, limit)
	if ids, ok := e.cachedIDs(ctx, key); ok {
		metrics.RecommendationCacheHits.Inc()
		return e.store.ListMangaByIDs(ids, true)
	}
	metrics.RecommendationCacheMisses.Inc()

	ids, err := e.generate(userID, limit)
	if err != nil {
		return nil, err
	}

	e.storeIDs(ctx, key, ids)
	return e.store.ListMangaByIDs(ids, true)
}

// generate blends the four sub-strategies and backfills from popularity.
// The integer splits deliberately mirror the historical allotment; for
// small limits they can all be zero and the backfill does the whole job.
func (e *Engine) generate(userID int32, limit int) ([]int64, error) {
	similar, err := e.similarReaders(userID, limit/3)
	if err != nil {
		return nil, err
	}
	// Genre signals need a richer catalog model; until then this slot is
	// filled from global popularity.
	genre, err := e.store.RankMangaByReaders(limit / 3)
	if err != nil {
		return nil, err
	}
	author, err := e.authorBased(userID, limit/4)
	if err != nil {
		return nil, err
	}
	peerPopular, err := e.popularAmongSimilar(userID, limit/4)
	if err != nil {
		return nil, err
	}

	merged := make([]int64, 0, limit)
	seen := make(map[int64]bool)
	for _, chunk := range [][]int64{similar, genre, author, peerPopular} {
		for _, id := range chunk {
			if !seen[id] {
				seen[id] = true
				merged = append(merged, id)
			}
		}
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}

	if len(merged) < limit {
		popular, err := e.store.RankMangaByReaders(limit)
		if err != nil {
			return nil, err
		}
		for _, id := range popular {
			if len(merged) >= limit {
				break
			}
			if !seen[id] {
				seen[id] = true
				merged = append(merged, id)
			}
		}
	}
	return merged, nil
}

// similarReaders finds manga completed by users who finished the same
// series as this user. No completions or no peers means an empty
// contribution, never an error.
func (e *Engine) similarReaders(userID int32, limit int) ([]int64, error) {
	if limit <= 0 {
		return []int64{}, nil
	}

	completed, err := e.store.ListCompletedMangaIDs(userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list completed manga")
	}
	if len(completed) == 0 {
		return []int64{}, nil
	}

	peers, err := e.store.PeersWhoCompleted(completed, userID, peerLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find peer readers")
	}
	if len(peers) == 0 {
		return []int64{}, nil
	}

	return e.store.RankMangaCompletedBy(peers, completed, limit)
}

// authorBased suggests other published work by the authors of the user's
// favorites, favorites themselves excluded.
func (e *Engine) authorBased(userID int32, limit int) ([]int64, error) {
	if limit <= 0 {
		return []int64{}, nil
	}

	favorites, err := e.store.ListFavoriteMangaIDs(userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list favorites")
	}
	if len(favorites) == 0 {
		return []int64{}, nil
	}

	authors, err := e.store.ListAuthorsOfManga(favorites)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list authors")
	}

	return e.store.ListMangaIDsByAuthors(authors, favorites, limit)
}

// popularAmongSimilar is peer discovery seeded from everything the user has
// touched, falling back to global popularity when there is no signal.
func (e *Engine) popularAmongSimilar(userID int32, limit int) ([]int64, error) {
	if limit <= 0 {
		return []int64{}, nil
	}

	touched, err := e.store.ListTouchedMangaIDs(userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list touched manga")
	}
	if len(touched) == 0 {
		return e.store.RankMangaByReaders(limit)
	}

	peers, err := e.store.PeersWhoCompleted(touched, userID, peerLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find peer readers")
	}
	if len(peers) == 0 {
		return e.store.RankMangaByReaders(limit)
	}

	return e.store.RankMangaReadBy(peers, touched, limit)
}

// GetPopularMangas is the process-wide popularity ranking, cached per limit.
func (e *Engine) GetPopularMangas(ctx context.Context, limit int) ([]*model.Manga, error) {
	if limit <= 0 {
		return []*model.Manga{}, nil
	}

	key := fmt.Sprintf(popularKeyFormat, limit)
	if ids, ok := e.cachedIDs(ctx, key); ok {
		metrics.RecommendationCacheHits.Inc()
		return e.store.ListMangaByIDs(ids, true)
	}
	metrics.RecommendationCacheMisses.Inc()

	ids, err := e.store.RankMangaByReaders(limit)
	if err != nil {
		return nil, err
	}

	e.storeIDs(ctx, key, ids)
	return e.store.ListMangaByIDs(ids, true)
}

// GetRecentlyAdded lists the newest published series.
func (e *Engine) GetRecentlyAdded(limit int) ([]*model.Manga, error) {
	orderBy := "created_ts DESC"
	return e.store.ListManga(&model.FindManga{
		PublishedOnly: true,
		OrderBy:       &orderBy,
		Limit:         &limit,
	})
}

// GetTrending ranks published series by reads over the last seven days.
func (e *Engine) GetTrending(limit int) ([]*model.Manga, error) {
	since := time.Now().Add(-trendingWindow).Unix()
	ids, err := e.store.TrendingMangaIDs(since, limit)
	if err != nil {
		return nil, err
	}
	return e.store.ListMangaByIDs(ids, true)
}

// GetNewUserRecommendations is the cold-start list: well rated series with
// a real readership.
func (e *Engine) GetNewUserRecommendations(limit int) ([]*model.Manga, error) {
	ids, err := e.store.RatedMangaIDs(newUserMinRating, newUserMinReaders, limit)
	if err != nil {
		return nil, err
	}
	return e.store.ListMangaByIDs(ids, true)
}

// GetSimilarManga ranks what the readers of one series went on to finish.
func (e *Engine) GetSimilarManga(mangaID int64, limit int) ([]*model.Manga, error) {
	peers, err := e.store.PeersWhoRead([]int64{mangaID}, 0, peerLimit)
	if err != nil {
		return nil, err
	}
	if len(peers) == 0 {
		return []*model.Manga{}, nil
	}

	ids, err := e.store.RankMangaCompletedBy(peers, []int64{mangaID}, limit)
	if err != nil {
		return nil, err
	}
	return e.store.ListMangaByIDs(ids, true)
}

// ClearUserCache drops every cached ranking for one user. Callers invoke
// this whenever progress or favorites change the user's profile.
func (e *Engine) ClearUserCache(ctx context.Context, userID int32) {
	if userID == 0 {
		return
	}
	if err := e.cache.DeletePrefix(ctx, fmt.Sprintf(userKeyPrefix, userID)); err != nil {
		log.Warn("Failed to clear recommendation cache",
			zap.Error(err),
			zap.Int32("user_id", userID))
	}
}

func (e *Engine) cachedIDs(ctx context.Context, key string) ([]int64, bool) {
	buf, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		log.Warn("Recommendation cache read failed", zap.Error(err), zap.String("key", key))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var ids []int64
	if err := json.Unmarshal(buf, &ids); err != nil {
		log.Warn("Dropping malformed recommendation cache entry", zap.Error(err), zap.String("key", key))
		e.cache.Delete(ctx, key)
		return nil, false
	}
	return ids, true
}

func (e *Engine) storeIDs(ctx context.Context, key string, ids []int64) {
	buf, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, buf, e.ttl); err != nil {
		log.Warn("Recommendation cache write failed", zap.Error(err), zap.String("key", key))
	}
}
