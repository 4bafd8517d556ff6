package redis

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/testutils"
)

func TestPostViewRepository(t *testing.T) {
	rdb, mr := testutils.SetupTestRedis(t)
	repo := NewPostViewRepository(rdb, testutils.NewTestLogger(), config.ViewSyncConfig{ScanBatchSize: 2})
	ctx := context.Background()

	t.Run("seeds from persisted count once", func(t *testing.T) {
		count, err := repo.IncrementViewCount(ctx, 7, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(101), count)

		count, err = repo.IncrementViewCount(ctx, 7, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(102), count, "计数器存在后忽略 seed")

		score, err := mr.ZScore(constant.PostsRankKey, "7")
		require.NoError(t, err)
		assert.Equal(t, float64(102), score)
	})

	t.Run("collects every counter across scan pages", func(t *testing.T) {
		for id := uint64(1); id <= 5; id++ {
			_, err := repo.IncrementViewCount(ctx, id, 0)
			require.NoError(t, err)
		}
		require.NoError(t, mr.Set(constant.PostViewCountPrefix+"oops", "1"))
		require.NoError(t, mr.Set(constant.PostViewCountPrefix+"8", "many"))

		counts, err := repo.GetAllViewCounts(ctx)
		require.NoError(t, err)
		assert.Len(t, counts, 6, "非法的 key 与值被跳过")
		assert.Equal(t, int64(102), counts[7])
		assert.Equal(t, int64(1), counts[3])
	})

	t.Run("remove post clears counter and rankings", func(t *testing.T) {
		member := strconv.Itoa(7)
		_, err := mr.ZAdd(constant.HotPostsRankKey, 102, member)
		require.NoError(t, err)
		mr.HSet(constant.PostsHashKey, member, `{"id":7}`)

		require.NoError(t, repo.RemovePost(ctx, 7))

		assert.False(t, mr.Exists(constant.PostViewCountPrefix+member))
		rankMembers, _ := mr.ZMembers(constant.PostsRankKey)
		assert.NotContains(t, rankMembers, member)
		assert.Empty(t, mr.HGet(constant.PostsHashKey, member))
		hotMembers, _ := mr.ZMembers(constant.HotPostsRankKey)
		assert.NotContains(t, hotMembers, member)
	})
}
