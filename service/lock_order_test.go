package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/models/entities"
	"github.com/Xushengqwer/discussion_service/repo/mysql"
	"github.com/Xushengqwer/discussion_service/testutils"
)

// lockLog 按调用顺序记录加锁读取的行。
type lockLog struct {
	mu    sync.Mutex
	locks []string
}

func (l *lockLog) record(kind string, id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locks = append(l.locks, fmt.Sprintf("%s:%d", kind, id))
}

func (l *lockLog) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	locks := l.locks
	l.locks = nil
	return locks
}

type recordingPostRepo struct {
	mysql.PostRepository
	log *lockLog
}

func (r *recordingPostRepo) LockPostByID(ctx context.Context, db *gorm.DB, id uint64) (*entities.Post, error) {
	r.log.record("post", id)
	return r.PostRepository.LockPostByID(ctx, db, id)
}

type recordingReplyRepo struct {
	mysql.ReplyRepository
	log *lockLog
}

func (r *recordingReplyRepo) LockReplyByID(ctx context.Context, db *gorm.DB, id uint64) (*entities.Reply, error) {
	r.log.record("reply", id)
	return r.ReplyRepository.LockReplyByID(ctx, db, id)
}

type recordingVoteRepo struct {
	mysql.VoteRepository
	log *lockLog
}

func (r *recordingVoteRepo) LockTarget(ctx context.Context, db *gorm.DB, target entities.VoteTarget) (entities.Votable, error) {
	r.log.record(string(target.Type), target.ID)
	return r.VoteRepository.LockTarget(ctx, db, target)
}

// 所有写路径都先锁帖子再锁回复，两个事务不会以相反顺序持有同一对行锁。
func TestWritePaths_LockPostBeforeReply(t *testing.T) {
	db := testutils.SetupTestDB(t)
	logger := testutils.NewTestLogger()
	policy := config.DiscussionPolicy{}.Normalize()
	ctx := context.Background()

	log := &lockLog{}
	postRepo := &recordingPostRepo{PostRepository: mysql.NewPostRepository(db, logger), log: log}
	replyRepo := &recordingReplyRepo{ReplyRepository: mysql.NewReplyRepository(db, logger), log: log}
	voteRepo := &recordingVoteRepo{VoteRepository: mysql.NewVoteRepository(db, logger), log: log}

	votes := NewVoteService(db, voteRepo, postRepo, policy, logger)
	replies := NewReplyService(db, postRepo, replyRepo, votes, nil, policy, logger)
	acceptance := NewAcceptanceService(db, postRepo, replyRepo, nil, policy, logger)

	post := testutils.CreateTestPost(t, db, alice.UserID)
	parent := testutils.CreateTestReply(t, db, post.ID, nil, bob.UserID)
	postLock := fmt.Sprintf("post:%d", post.ID)
	replyLock := fmt.Sprintf("reply:%d", parent.ID)

	parentID := parent.ID
	_, err := replies.CreateReply(ctx, carol, post.ID, &dto.CreateReplyRequest{Content: "nested", ParentReplyID: &parentID})
	require.NoError(t, err)
	assert.Equal(t, []string{postLock, replyLock}, log.take(), "创建子回复")

	_, err = votes.ApplyVote(ctx, entities.VoteTarget{Type: entities.VoteTargetReply, ID: parent.ID}, carol.UserID, entities.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, []string{postLock, replyLock}, log.take(), "回复投票")

	_, err = votes.ApplyVote(ctx, entities.VoteTarget{Type: entities.VoteTargetPost, ID: post.ID}, carol.UserID, entities.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, []string{postLock}, log.take(), "帖子投票只锁帖子")

	_, err = replies.EditReply(ctx, bob, parent.ID, &dto.EditReplyRequest{Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, []string{postLock, replyLock}, log.take(), "编辑回复")

	_, err = acceptance.AcceptReply(ctx, instructor, post.ID, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{postLock, replyLock}, log.take(), "采纳答案")

	require.NoError(t, replies.SoftDeleteReply(ctx, moderator, parent.ID))
	assert.Equal(t, []string{postLock, replyLock}, log.take(), "软删除回复")
}
