package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/models/entities"
	"github.com/Xushengqwer/discussion_service/testutils"
)

func setLastActivity(t *testing.T, env *testEnv, postID uint64, at time.Time) {
	t.Helper()
	require.NoError(t, env.db.Model(&entities.Post{}).Where("id = ?", postID).UpdateColumn("last_activity", at).Error)
}

func storedLastActivity(t *testing.T, env *testEnv, postID uint64) time.Time {
	t.Helper()
	stored, err := env.postRepo.GetPostByID(context.Background(), postID)
	require.NoError(t, err)
	return stored.LastActivity
}

func TestLastActivity_AdvancesOnEveryWrite(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	post := testutils.CreateTestPost(t, env.db, alice.UserID)
	reply := testutils.CreateTestReply(t, env.db, post.ID, nil, bob.UserID)
	newTitle := "renamed"

	steps := []struct {
		name string
		run  func() error
	}{
		{name: "vote on reply", run: func() error {
			_, err := env.votes.ApplyVote(ctx, entities.VoteTarget{Type: entities.VoteTargetReply, ID: reply.ID}, carol.UserID, entities.VoteUp)
			return err
		}},
		{name: "vote on post", run: func() error {
			_, err := env.posts.VotePost(ctx, carol, post.ID, entities.VoteDown)
			return err
		}},
		{name: "edit reply", run: func() error {
			_, err := env.replies.EditReply(ctx, bob, reply.ID, &dto.EditReplyRequest{Content: "edited answer"})
			return err
		}},
		{name: "update post", run: func() error {
			_, err := env.posts.UpdatePost(ctx, alice, post.ID, &dto.UpdatePostRequest{Title: &newTitle})
			return err
		}},
		{name: "create reply", run: func() error {
			_, err := env.replies.CreateReply(ctx, carol, post.ID, &dto.CreateReplyRequest{Content: "another answer"})
			return err
		}},
		{name: "soft delete reply", run: func() error {
			return env.replies.SoftDeleteReply(ctx, bob, reply.ID)
		}},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			old := time.Now().Add(-time.Hour)
			setLastActivity(t, env, post.ID, old)
			started := time.Now()

			require.NoError(t, step.run())

			got := storedLastActivity(t, env, post.ID)
			assert.True(t, got.After(old), "最后活跃时间应前移")
			assert.False(t, got.Before(started), "最后活跃时间应为本次写入的时间")
		})
	}
}

func TestLastActivity_NeverMovesBackward(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	post := testutils.CreateTestPost(t, env.db, alice.UserID)
	reply := testutils.CreateTestReply(t, env.db, post.ID, nil, bob.UserID)

	// 另一个写入方已经记录了更晚的活动
	future := time.Now().Add(time.Hour)
	setLastActivity(t, env, post.ID, future)

	_, err := env.votes.ApplyVote(ctx, entities.VoteTarget{Type: entities.VoteTargetReply, ID: reply.ID}, carol.UserID, entities.VoteUp)
	require.NoError(t, err)
	assert.WithinDuration(t, future, storedLastActivity(t, env, post.ID), time.Millisecond)

	_, err = env.replies.EditReply(ctx, bob, reply.ID, &dto.EditReplyRequest{Content: "edited"})
	require.NoError(t, err)
	assert.WithinDuration(t, future, storedLastActivity(t, env, post.ID), time.Millisecond)

	require.NoError(t, env.replies.SoftDeleteReply(ctx, bob, reply.ID))
	assert.WithinDuration(t, future, storedLastActivity(t, env, post.ID), time.Millisecond)
}
