package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/models/entities"
	"github.com/Xushengqwer/discussion_service/myErrors"
	"github.com/Xushengqwer/discussion_service/testutils"
)

func TestPostRepository_UpdatePostFieldsCAS(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewPostRepository(db, testutils.NewTestLogger())
	ctx := context.Background()
	seeded := testutils.CreateTestPost(t, db, "alice")

	fresh, err := repo.GetPostByID(ctx, seeded.ID)
	require.NoError(t, err)
	stale, err := repo.GetPostByID(ctx, seeded.ID)
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePostFields(ctx, db, fresh, map[string]interface{}{"title": "first writer"}))
	assert.Equal(t, uint64(1), fresh.Version)

	err = repo.UpdatePostFields(ctx, db, stale, map[string]interface{}{"title": "second writer"})
	assert.ErrorIs(t, err, myErrors.ErrConflict)
	assert.Equal(t, uint64(0), stale.Version, "失败时不改动内存中的版本号")

	stored, err := repo.GetPostByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "first writer", stored.Title)
	assert.Equal(t, uint64(1), stored.Version)
}

func TestPostRepository_Counters(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewPostRepository(db, testutils.NewTestLogger())
	ctx := context.Background()
	post := testutils.CreateTestPost(t, db, "alice")

	require.NoError(t, repo.IncrementReplyCount(ctx, db, post.ID))
	require.NoError(t, repo.DecrementReplyCount(ctx, db, post.ID))
	require.NoError(t, repo.DecrementReplyCount(ctx, db, post.ID))

	later := post.LastActivity.Add(time.Minute)
	require.NoError(t, repo.TouchLastActivity(ctx, db, post.ID, later))
	require.NoError(t, repo.TouchLastActivity(ctx, db, post.ID, post.LastActivity.Add(-time.Hour)))

	stored, err := repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.ReplyCount, "回复数不会减成负数")
	assert.True(t, stored.LastActivity.Equal(later), "最后活跃时间不会回退")

	count, err := repo.IncrementViewCount(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repo.IncrementViewCount(ctx, 9999)
	assert.ErrorIs(t, err, commonerrors.ErrRepoNotFound)
}

func TestPostRepository_TagsRoundTrip(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewPostRepository(db, testutils.NewTestLogger())
	ctx := context.Background()

	withTags := testutils.CreateTestPost(t, db, "alice", func(p *entities.Post) { p.Tags = entities.Tags{"go", "grpc"} })
	noTags := testutils.CreateTestPost(t, db, "alice", func(p *entities.Post) { p.Tags = nil })

	stored, err := repo.GetPostByID(ctx, withTags.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.Tags{"go", "grpc"}, stored.Tags)

	stored, err = repo.GetPostByID(ctx, noTags.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Tags)
}

func TestPostRepository_DeletePost(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewPostRepository(db, testutils.NewTestLogger())
	ctx := context.Background()
	post := testutils.CreateTestPost(t, db, "alice")

	require.NoError(t, repo.DeletePost(ctx, db, post.ID))
	_, err := repo.GetPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, commonerrors.ErrRepoNotFound)
	assert.ErrorIs(t, repo.DeletePost(ctx, db, post.ID), commonerrors.ErrRepoNotFound)
}

func TestReplyRepository_ClearAcceptedExcept(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewReplyRepository(db, testutils.NewTestLogger())
	ctx := context.Background()
	post := testutils.CreateTestPost(t, db, "alice")
	now := time.Now()

	accepted := testutils.CreateTestReply(t, db, post.ID, nil, "bob", func(r *entities.Reply) {
		r.IsAcceptedAnswer = true
		r.AcceptedAt = &now
	})
	keep := testutils.CreateTestReply(t, db, post.ID, nil, "carol", func(r *entities.Reply) { r.IsAcceptedAnswer = true })

	cleared, err := repo.ClearAcceptedExcept(ctx, db, post.ID, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{accepted.ID}, cleared)

	stored, err := repo.GetReplyByID(ctx, accepted.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsAcceptedAnswer)
	assert.Nil(t, stored.AcceptedAt)
	assert.Equal(t, accepted.Version+1, stored.Version, "清除采纳同样推进版本号")

	count, err := repo.CountAccepted(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestReplyRepository_ListByAuthor(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := NewReplyRepository(db, testutils.NewTestLogger())
	ctx := context.Background()
	post := testutils.CreateTestPost(t, db, "alice")
	base := time.Now().Add(-time.Hour)

	var ids []uint64
	for i := 0; i < 3; i++ {
		r := testutils.CreateTestReply(t, db, post.ID, nil, "bob", func(r *entities.Reply) {
			r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		})
		ids = append(ids, r.ID)
	}
	testutils.CreateTestReply(t, db, post.ID, nil, "bob", func(r *entities.Reply) { r.IsDeleted = true })
	testutils.CreateTestReply(t, db, post.ID, nil, "carol")

	replies, total, err := repo.ListByAuthor(ctx, "bob", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, replies, 2)
	assert.Equal(t, ids[2], replies[0].ID, "最新的在前")
	assert.Equal(t, ids[1], replies[1].ID)
}

func TestPostBatchOperations(t *testing.T) {
	db := testutils.SetupTestDB(t)
	logger := testutils.NewTestLogger()
	batch := NewPostBatchOperationsRepository(db, logger, config.ViewSyncConfig{BatchSize: 2, ConcurrencyLevel: 3})
	posts := NewPostRepository(db, logger)
	ctx := context.Background()

	viewCounts := make(map[uint64]int64)
	ids := make([]uint64, 0, 5)
	for i := 0; i < 5; i++ {
		p := testutils.CreateTestPost(t, db, "alice")
		viewCounts[p.ID] = int64(100 * (i + 1))
		ids = append(ids, p.ID)
	}

	require.NoError(t, batch.BatchUpdatePostViewCounts(ctx, viewCounts))
	for id, want := range viewCounts {
		stored, err := posts.GetPostByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, stored.ViewCount)
	}

	found, err := batch.GetPostsByIDs(ctx, append(ids[:2:2], 9999))
	require.NoError(t, err)
	assert.Len(t, found, 2)

	assert.NoError(t, batch.BatchUpdatePostViewCounts(ctx, nil))
}
