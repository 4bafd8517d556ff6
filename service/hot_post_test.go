package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/models/entities"
	"github.com/Xushengqwer/discussion_service/myErrors"
	"github.com/Xushengqwer/discussion_service/repo/mysql"
	"github.com/Xushengqwer/discussion_service/repo/redis"
	"github.com/Xushengqwer/discussion_service/testutils"
)

func TestHotPosts_SnapshotAndCursor(t *testing.T) {
	db := testutils.SetupTestDB(t)
	rdb, mr := testutils.SetupTestRedis(t)
	logger := testutils.NewTestLogger()
	ctx := context.Background()

	// 浏览量 10, 50, 30, 20, 40
	views := []float64{10, 50, 30, 20, 40}
	posts := make([]*entities.Post, 0, len(views))
	for i, v := range views {
		p := testutils.CreateTestPost(t, db, "author", func(p *entities.Post) { p.Title = "post " + strconv.Itoa(i) })
		posts = append(posts, p)
		_, err := mr.ZAdd(constant.PostsRankKey, v, strconv.FormatUint(p.ID, 10))
		require.NoError(t, err)
	}

	batch := mysql.NewPostBatchOperationsRepository(db, logger, config.ViewSyncConfig{})
	taskCache := redis.NewPostTaskCacheImpl(rdb, logger, batch)
	n, err := taskCache.CreateHotList(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, taskCache.CacheHotPostsToRedis(ctx))

	svc := NewHotPostService(redis.NewCache(rdb, logger), logger)

	page, err := svc.GetHotPostsByCursor(ctx, nil, 3)
	require.NoError(t, err)
	require.Len(t, page.Posts, 3)
	assert.Equal(t, []uint64{posts[1].ID, posts[4].ID, posts[2].ID},
		[]uint64{page.Posts[0].ID, page.Posts[1].ID, page.Posts[2].ID})
	assert.Equal(t, int64(50), page.Posts[0].ViewCount, "摘要中的浏览量取自快照分数")
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, posts[2].ID, *page.NextCursor)

	page, err = svc.GetHotPostsByCursor(ctx, page.NextCursor, 3)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1, "快照只保留前 4 名")
	assert.Equal(t, posts[3].ID, page.Posts[0].ID)
	assert.Nil(t, page.NextCursor)

	_, err = svc.GetHotPostsByCursor(ctx, &posts[0].ID, 3)
	assert.ErrorIs(t, err, myErrors.ErrValidation, "不在快照中的游标")

	_, err = svc.GetHotPostsByCursor(ctx, nil, 0)
	assert.ErrorIs(t, err, myErrors.ErrValidation)
}

func TestHotPosts_DeletedPostLeavesSnapshot(t *testing.T) {
	env := setupEnv(t)
	rdb, _ := testutils.SetupTestRedis(t)
	logger := testutils.NewTestLogger()
	ctx := context.Background()

	viewRepo := redis.NewPostViewRepository(rdb, logger, config.ViewSyncConfig{})
	env.posts = NewPostService(PostServiceDeps{
		DB: env.db, PostRepo: env.postRepo, ReplyRepo: env.replyRepo, VoteRepo: env.voteRepo,
		Tree: env.tree, Votes: env.votes, PostViewRepo: viewRepo, Logger: logger,
	})

	keep := testutils.CreateTestPost(t, env.db, alice.UserID)
	drop := testutils.CreateTestPost(t, env.db, alice.UserID)
	for _, id := range []uint64{keep.ID, drop.ID, drop.ID} {
		_, err := env.posts.GetPost(ctx, id)
		require.NoError(t, err)
	}

	taskCache := redis.NewPostTaskCacheImpl(rdb, logger, mysql.NewPostBatchOperationsRepository(env.db, logger, config.ViewSyncConfig{}))
	_, err := taskCache.CreateHotList(ctx, constant.HotPostsCacheSize)
	require.NoError(t, err)
	require.NoError(t, taskCache.CacheHotPostsToRedis(ctx))

	hot := NewHotPostService(redis.NewCache(rdb, logger), logger)
	page, err := hot.GetHotPostsByCursor(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, drop.ID, page.Posts[0].ID)

	require.NoError(t, env.posts.DeletePost(ctx, alice, drop.ID))

	page, err = hot.GetHotPostsByCursor(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, keep.ID, page.Posts[0].ID)
}

func TestHotPosts_WithoutRedis(t *testing.T) {
	svc := NewHotPostService(nil, testutils.NewTestLogger())
	page, err := svc.GetHotPostsByCursor(context.Background(), nil, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Nil(t, page.NextCursor)
}
