package service

import (
	"testing"

	"gorm.io/gorm"

	"github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/repo/mysql"
	"github.com/Xushengqwer/discussion_service/repo/redis"
	"github.com/Xushengqwer/discussion_service/testutils"
)

var (
	alice      = dto.Actor{UserID: "alice", Role: constant.RoleStudent}
	bob        = dto.Actor{UserID: "bob", Role: constant.RoleStudent}
	carol      = dto.Actor{UserID: "carol", Role: constant.RoleStudent}
	instructor = dto.Actor{UserID: "prof", Role: constant.RoleInstructor}
	moderator  = dto.Actor{UserID: "mod", Role: constant.RoleModerator}
)

// testEnv 基于内存 SQLite 组装的完整服务栈，Redis、对象存储与 Kafka 均未配置。
type testEnv struct {
	db         *gorm.DB
	postRepo   mysql.PostRepository
	replyRepo  mysql.ReplyRepository
	voteRepo   mysql.VoteRepository
	votes      VoteService
	tree       ReplyTreeService
	replies    ReplyService
	acceptance AcceptanceService
	posts      PostService
	lists      PostListService
}

func setupEnv(t *testing.T) *testEnv {
	return setupEnvWithViews(t, nil)
}

func setupEnvWithViews(t *testing.T, views redis.PostViewRepository) *testEnv {
	t.Helper()
	db := testutils.SetupTestDB(t)
	logger := testutils.NewTestLogger()
	policy := config.DiscussionPolicy{}.Normalize()

	env := &testEnv{
		db:        db,
		postRepo:  mysql.NewPostRepository(db, logger),
		replyRepo: mysql.NewReplyRepository(db, logger),
		voteRepo:  mysql.NewVoteRepository(db, logger),
	}
	env.votes = NewVoteService(db, env.voteRepo, env.postRepo, policy, logger)
	env.tree = NewReplyTreeService(env.postRepo, env.replyRepo, policy, logger)
	env.replies = NewReplyService(db, env.postRepo, env.replyRepo, env.votes, nil, policy, logger)
	env.acceptance = NewAcceptanceService(db, env.postRepo, env.replyRepo, nil, policy, logger)
	env.posts = NewPostService(PostServiceDeps{
		DB:           db,
		PostRepo:     env.postRepo,
		ReplyRepo:    env.replyRepo,
		VoteRepo:     env.voteRepo,
		Tree:         env.tree,
		Votes:        env.votes,
		PostViewRepo: views,
		Policy:       policy,
		Logger:       logger,
	})
	env.lists = NewPostListService(logger, env.postRepo)
	return env
}
