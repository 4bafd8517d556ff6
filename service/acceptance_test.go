package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/myErrors"
	"github.com/Xushengqwer/discussion_service/testutils"
)

func TestAcceptReply_SingleAcceptedAnswer(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	post := testutils.CreateTestPost(t, env.db, alice.UserID)

	first, err := env.replies.CreateReply(ctx, bob, post.ID, &dto.CreateReplyRequest{Content: "first try"})
	require.NoError(t, err)
	second, err := env.replies.CreateReply(ctx, carol, post.ID, &dto.CreateReplyRequest{Content: "better answer", ParentReplyID: &first.ID})
	require.NoError(t, err)

	state, err := env.acceptance.AcceptReply(ctx, instructor, post.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, state.IsAnswered)
	require.NotNil(t, state.AcceptedReplyID)
	assert.Equal(t, first.ID, *state.AcceptedReplyID)
	require.NotNil(t, state.AnsweredBy)
	assert.Equal(t, instructor.UserID, *state.AnsweredBy)

	// 改为采纳嵌套回复，旧采纳被清除
	state, err = env.acceptance.AcceptReply(ctx, instructor, post.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, *state.AcceptedReplyID)

	count, err := env.replyRepo.CountAccepted(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	old, err := env.replyRepo.GetReplyByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, old.IsAcceptedAnswer)
	assert.Nil(t, old.AcceptedAt)

	current, err := env.replyRepo.GetReplyByID(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, current.IsAcceptedAnswer)
	assert.NotNil(t, current.AcceptedAt)

	stored, err := env.postRepo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAnswered)
	assert.Equal(t, second.ID, *stored.AnsweredReplyID)

	// 重复采纳同一条回复是幂等的
	_, err = env.acceptance.AcceptReply(ctx, instructor, post.ID, second.ID)
	require.NoError(t, err)
	count, err = env.replyRepo.CountAccepted(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// 测试库只有一个连接，这些采纳事务实际上依次执行。这里验证的是任意先后次序下
// 仍然只留下一条采纳，并发写入冲突的重试见 TestUpdatePost_RetriesAfterVersionConflict。
func TestAcceptReply_RepeatedAcceptsKeepSingleAnswer(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	post := testutils.CreateTestPost(t, env.db, alice.UserID)

	var ids []uint64
	for i := 0; i < 4; i++ {
		r, err := env.replies.CreateReply(ctx, bob, post.ID, &dto.CreateReplyRequest{Content: "candidate"})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			_, err := env.acceptance.AcceptReply(ctx, instructor, post.ID, id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	count, err := env.replyRepo.CountAccepted(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := env.postRepo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AnsweredReplyID)
	accepted, err := env.replyRepo.GetReplyByID(ctx, *stored.AnsweredReplyID)
	require.NoError(t, err)
	assert.True(t, accepted.IsAcceptedAnswer, "帖子指向的回复必须是唯一已采纳的那条")
}

func TestAcceptReply_Errors(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	post := testutils.CreateTestPost(t, env.db, alice.UserID)
	other := testutils.CreateTestPost(t, env.db, alice.UserID)
	reply, err := env.replies.CreateReply(ctx, bob, post.ID, &dto.CreateReplyRequest{Content: "answer"})
	require.NoError(t, err)
	foreign, err := env.replies.CreateReply(ctx, bob, other.ID, &dto.CreateReplyRequest{Content: "elsewhere"})
	require.NoError(t, err)
	removed, err := env.replies.CreateReply(ctx, bob, post.ID, &dto.CreateReplyRequest{Content: "gone"})
	require.NoError(t, err)
	require.NoError(t, env.replies.SoftDeleteReply(ctx, bob, removed.ID))

	tests := []struct {
		name    string
		actor   dto.Actor
		postID  uint64
		replyID uint64
		wantErr error
	}{
		{name: "student cannot accept", actor: alice, postID: post.ID, replyID: reply.ID, wantErr: myErrors.ErrPermission},
		{name: "moderator cannot accept", actor: moderator, postID: post.ID, replyID: reply.ID, wantErr: myErrors.ErrPermission},
		{name: "missing post", actor: instructor, postID: 9999, replyID: reply.ID, wantErr: myErrors.ErrNotFound},
		{name: "missing reply", actor: instructor, postID: post.ID, replyID: 9999, wantErr: myErrors.ErrNotFound},
		{name: "reply from another post", actor: instructor, postID: post.ID, replyID: foreign.ID, wantErr: myErrors.ErrNotFound},
		{name: "deleted reply", actor: instructor, postID: post.ID, replyID: removed.ID, wantErr: myErrors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.acceptance.AcceptReply(ctx, tt.actor, tt.postID, tt.replyID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	stored, err := env.postRepo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsAnswered, "失败的采纳不改变帖子状态")
}

func TestAcceptReplyByID(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	post := testutils.CreateTestPost(t, env.db, alice.UserID)
	reply, err := env.replies.CreateReply(ctx, bob, post.ID, &dto.CreateReplyRequest{Content: "answer"})
	require.NoError(t, err)

	state, err := env.acceptance.AcceptReplyByID(ctx, instructor, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, state.PostID)
	assert.Equal(t, reply.ID, *state.AcceptedReplyID)

	_, err = env.acceptance.AcceptReplyByID(ctx, bob, reply.ID)
	assert.ErrorIs(t, err, myErrors.ErrPermission)
	_, err = env.acceptance.AcceptReplyByID(ctx, instructor, 9999)
	assert.ErrorIs(t, err, myErrors.ErrNotFound)
}

func TestMarkPostAnswered(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	t.Run("without reply keeps accepted reply", func(t *testing.T) {
		post := testutils.CreateTestPost(t, env.db, alice.UserID)
		reply, err := env.replies.CreateReply(ctx, bob, post.ID, &dto.CreateReplyRequest{Content: "answer"})
		require.NoError(t, err)
		_, err = env.acceptance.AcceptReply(ctx, instructor, post.ID, reply.ID)
		require.NoError(t, err)

		state, err := env.acceptance.MarkPostAnswered(ctx, instructor, post.ID, nil)
		require.NoError(t, err)
		assert.True(t, state.IsAnswered)
		require.NotNil(t, state.AcceptedReplyID)
		assert.Equal(t, reply.ID, *state.AcceptedReplyID)

		stored, err := env.replyRepo.GetReplyByID(ctx, reply.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsAcceptedAnswer)
	})

	t.Run("without reply on fresh post", func(t *testing.T) {
		post := testutils.CreateTestPost(t, env.db, alice.UserID)
		state, err := env.acceptance.MarkPostAnswered(ctx, instructor, post.ID, nil)
		require.NoError(t, err)
		assert.True(t, state.IsAnswered)
		assert.Nil(t, state.AcceptedReplyID)

		count, err := env.replyRepo.CountAccepted(ctx, post.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("with reply accepts it", func(t *testing.T) {
		post := testutils.CreateTestPost(t, env.db, alice.UserID)
		reply, err := env.replies.CreateReply(ctx, bob, post.ID, &dto.CreateReplyRequest{Content: "answer"})
		require.NoError(t, err)

		state, err := env.acceptance.MarkPostAnswered(ctx, instructor, post.ID, &reply.ID)
		require.NoError(t, err)
		assert.Equal(t, reply.ID, *state.AcceptedReplyID)
	})

	t.Run("student cannot mark", func(t *testing.T) {
		post := testutils.CreateTestPost(t, env.db, alice.UserID)
		_, err := env.acceptance.MarkPostAnswered(ctx, alice, post.ID, nil)
		assert.ErrorIs(t, err, myErrors.ErrPermission)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := env.acceptance.MarkPostAnswered(ctx, instructor, 9999, nil)
		assert.ErrorIs(t, err, myErrors.ErrNotFound)
	})
}
