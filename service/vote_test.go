package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/discussion_service/models/entities"
	"github.com/Xushengqwer/discussion_service/myErrors"
	"github.com/Xushengqwer/discussion_service/testutils"
)

func postTarget(id uint64) entities.VoteTarget {
	return entities.VoteTarget{Type: entities.VoteTargetPost, ID: id}
}

func replyTarget(id uint64) entities.VoteTarget {
	return entities.VoteTarget{Type: entities.VoteTargetReply, ID: id}
}

func TestApplyVote_Toggle(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	post := testutils.CreateTestPost(t, env.db, alice.UserID)

	tests := []struct {
		name      string
		direction entities.VoteDirection
		wantUp    int64
		wantDown  int64
		wantMine  int8
	}{
		{name: "first upvote is recorded", direction: entities.VoteUp, wantUp: 1, wantDown: 0, wantMine: 1},
		{name: "same direction again retracts", direction: entities.VoteUp, wantUp: 0, wantDown: 0, wantMine: 0},
		{name: "downvote after retraction", direction: entities.VoteDown, wantUp: 0, wantDown: 1, wantMine: -1},
		{name: "opposite direction flips", direction: entities.VoteUp, wantUp: 1, wantDown: 0, wantMine: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := env.votes.ApplyVote(ctx, postTarget(post.ID), bob.UserID, tt.direction)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUp, result.UpvoteCount)
			assert.Equal(t, tt.wantDown, result.DownvoteCount)
			assert.Equal(t, tt.wantUp-tt.wantDown, result.VoteScore)
			assert.Equal(t, tt.wantMine, result.MyVote)

			stored, err := env.postRepo.GetPostByID(ctx, post.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUp, stored.UpvoteCount)
			assert.Equal(t, tt.wantDown, stored.DownvoteCount)
			assert.Equal(t, stored.UpvoteCount-stored.DownvoteCount, stored.VoteScore)
		})
	}
}

func TestApplyVote_ScoreMatchesLedger(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	post := testutils.CreateTestPost(t, env.db, alice.UserID)
	reply := testutils.CreateTestReply(t, env.db, post.ID, nil, bob.UserID)

	_, err := env.votes.ApplyVote(ctx, replyTarget(reply.ID), "v1", entities.VoteUp)
	require.NoError(t, err)
	_, err = env.votes.ApplyVote(ctx, replyTarget(reply.ID), "v2", entities.VoteUp)
	require.NoError(t, err)
	_, err = env.votes.ApplyVote(ctx, replyTarget(reply.ID), "v3", entities.VoteDown)
	require.NoError(t, err)
	result, err := env.votes.ApplyVote(ctx, replyTarget(reply.ID), "v2", entities.VoteDown)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.UpvoteCount)
	assert.Equal(t, int64(2), result.DownvoteCount)
	assert.Equal(t, int64(-1), result.VoteScore)

	var ledger int64
	require.NoError(t, env.db.Model(&entities.Vote{}).
		Where("target_type = ? AND target_id = ?", entities.VoteTargetReply, reply.ID).
		Count(&ledger).Error)
	assert.Equal(t, int64(3), ledger, "每个投票者只有一条记录")

	// 帖子本身的计票不受回复投票影响
	stored, err := env.postRepo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.VoteScore)
}

func TestApplyVote_Errors(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	post := testutils.CreateTestPost(t, env.db, alice.UserID)
	deleted := testutils.CreateTestReply(t, env.db, post.ID, nil, bob.UserID, func(r *entities.Reply) {
		r.IsDeleted = true
	})

	tests := []struct {
		name     string
		target   entities.VoteTarget
		voter    string
		dir      entities.VoteDirection
		wantKind myErrors.Kind
	}{
		{name: "missing post", target: postTarget(9999), voter: "v", dir: entities.VoteUp, wantKind: myErrors.KindNotFound},
		{name: "deleted reply", target: replyTarget(deleted.ID), voter: "v", dir: entities.VoteUp, wantKind: myErrors.KindNotFound},
		{name: "invalid direction", target: postTarget(post.ID), voter: "v", dir: 0, wantKind: myErrors.KindValidation},
		{name: "anonymous voter", target: postTarget(post.ID), voter: "", dir: entities.VoteUp, wantKind: myErrors.KindPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.votes.ApplyVote(ctx, tt.target, tt.voter, tt.dir)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, myErrors.KindOf(err))
		})
	}
}

// 测试库只有一个连接，投票事务会被串行化。这里验证多个 goroutine 交错提交后计票收敛。
func TestApplyVote_ManyVotersConverge(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	post := testutils.CreateTestPost(t, env.db, alice.UserID)

	const voters = 12
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dir := entities.VoteUp
			if i%3 == 0 {
				dir = entities.VoteDown
			}
			_, err := env.votes.ApplyVote(ctx, postTarget(post.ID), fmt.Sprintf("voter-%d", i), dir)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := env.postRepo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), stored.UpvoteCount)
	assert.Equal(t, int64(4), stored.DownvoteCount)
	assert.Equal(t, int64(4), stored.VoteScore)
}

func TestGetVoteState(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	post := testutils.CreateTestPost(t, env.db, alice.UserID)

	_, err := env.votes.ApplyVote(ctx, postTarget(post.ID), bob.UserID, entities.VoteDown)
	require.NoError(t, err)

	state, err := env.votes.GetVoteState(ctx, postTarget(post.ID), bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, int8(-1), state.MyVote)
	assert.Equal(t, int64(-1), state.VoteScore)

	state, err = env.votes.GetVoteState(ctx, postTarget(post.ID), carol.UserID)
	require.NoError(t, err)
	assert.Equal(t, int8(0), state.MyVote)
}
