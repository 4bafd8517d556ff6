package controller

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Xushengqwer/go-common/constants"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/middleware"
	"github.com/Xushengqwer/discussion_service/models/entities"
	"github.com/Xushengqwer/discussion_service/myErrors"
	"github.com/Xushengqwer/discussion_service/repo/mysql"
	"github.com/Xushengqwer/discussion_service/service"
	"github.com/Xushengqwer/discussion_service/testutils"
)

const testUserHeader = "X-Test-User"

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{myErrors.Validation("title", "不能为空"), http.StatusBadRequest},
		{myErrors.NotFound("post", 1), http.StatusNotFound},
		{myErrors.Permission("reply", "no"), http.StatusForbidden},
		{myErrors.DepthExceeded(6, 5), http.StatusUnprocessableEntity},
		{myErrors.Conflict("post", 1), http.StatusConflict},
		{fmt.Errorf("wrapped: %w", myErrors.NotFound("reply", 2)), http.StatusNotFound},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}

type apiFixture struct {
	engine *gin.Engine
	db     *gorm.DB
	post   *entities.Post
	reply  *entities.Reply
}

// newAPIFixture 真实服务栈挂在 SQLite 上；测试用请求头代替网关写入用户 ID。
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutils.SetupTestDB(t)
	logger := testutils.NewTestLogger()
	policy := config.DiscussionPolicy{}.Normalize()

	postRepo := mysql.NewPostRepository(db, logger)
	replyRepo := mysql.NewReplyRepository(db, logger)
	voteRepo := mysql.NewVoteRepository(db, logger)
	votes := service.NewVoteService(db, voteRepo, postRepo, policy, logger)
	tree := service.NewReplyTreeService(postRepo, replyRepo, policy, logger)
	replies := service.NewReplyService(db, postRepo, replyRepo, votes, nil, policy, logger)
	acceptance := service.NewAcceptanceService(db, postRepo, replyRepo, nil, policy, logger)
	posts := service.NewPostService(service.PostServiceDeps{
		DB: db, PostRepo: postRepo, ReplyRepo: replyRepo, VoteRepo: voteRepo,
		Tree: tree, Votes: votes, Policy: policy, Logger: logger,
	})

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		if userID := c.GetHeader(testUserHeader); userID != "" {
			c.Set(string(constants.UserIDKey), userID)
		}
		c.Next()
	}, middleware.RoleContextMiddleware())
	api := engine.Group("/api/v1/discussion")
	NewHotPostController(service.NewHotPostService(nil, logger)).RegisterRoutes(api)
	NewPostController(posts, service.NewPostListService(logger, postRepo), acceptance).RegisterRoutes(api)
	NewReplyController(replies, acceptance).RegisterRoutes(api)

	post := testutils.CreateTestPost(t, db, "alice")
	reply := testutils.CreateTestReply(t, db, post.ID, nil, "bob")
	return &apiFixture{engine: engine, db: db, post: post, reply: reply}
}

func (f *apiFixture) do(method, path, userID, role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/discussion"+path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(testUserHeader, userID)
	}
	if role != "" {
		req.Header.Set(constant.UserRoleHeader, role)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestRoutes_StatusCodes(t *testing.T) {
	f := newAPIFixture(t)
	postPath := fmt.Sprintf("/posts/%d", f.post.ID)
	replyPath := fmt.Sprintf("/replies/%d", f.reply.ID)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		role   string
		body   string
		want   int
	}{
		{name: "list posts", method: http.MethodGet, path: "/posts", want: http.StatusOK},
		{name: "invalid sort", method: http.MethodGet, path: "/posts?sortBy=random", want: http.StatusBadRequest},
		{name: "get post", method: http.MethodGet, path: postPath, want: http.StatusOK},
		{name: "bad post id", method: http.MethodGet, path: "/posts/abc", want: http.StatusBadRequest},
		{name: "missing post", method: http.MethodGet, path: "/posts/9999", want: http.StatusNotFound},
		{name: "hot posts without redis", method: http.MethodGet, path: "/posts/hot?limit=5", want: http.StatusOK},
		{name: "hot posts missing limit", method: http.MethodGet, path: "/posts/hot", want: http.StatusBadRequest},
		{name: "create reply needs user", method: http.MethodPost, path: postPath + "/replies", body: `{"content":"hi"}`, want: http.StatusUnauthorized},
		{name: "create reply", method: http.MethodPost, path: postPath + "/replies", user: "carol", body: `{"content":"hi"}`, want: http.StatusOK},
		{name: "create blank reply", method: http.MethodPost, path: postPath + "/replies", user: "carol", body: `{"content":"  "}`, want: http.StatusBadRequest},
		{name: "list replies", method: http.MethodGet, path: postPath + "/replies", want: http.StatusOK},
		{name: "list children", method: http.MethodGet, path: replyPath + "/children", want: http.StatusOK},
		{name: "my replies", method: http.MethodGet, path: "/replies/mine", user: "bob", want: http.StatusOK},
		{name: "edit reply by stranger", method: http.MethodPut, path: replyPath, user: "carol", body: `{"content":"mine now"}`, want: http.StatusForbidden},
		{name: "vote invalid direction", method: http.MethodPost, path: replyPath + "/vote", user: "carol", body: `{"direction":"sideways"}`, want: http.StatusBadRequest},
		{name: "vote reply", method: http.MethodPost, path: replyPath + "/vote", user: "carol", body: `{"direction":"up"}`, want: http.StatusOK},
		{name: "vote post", method: http.MethodPost, path: postPath + "/vote", user: "carol", body: `{"direction":"down"}`, want: http.StatusOK},
		{name: "student accept", method: http.MethodPost, path: replyPath + "/accept", user: "alice", role: "student", want: http.StatusForbidden},
		{name: "instructor accept", method: http.MethodPost, path: replyPath + "/accept", user: "prof", role: "instructor", want: http.StatusOK},
		{name: "mark answered empty body", method: http.MethodPost, path: postPath + "/answered", user: "prof", role: "instructor", want: http.StatusOK},
		{name: "update post by stranger", method: http.MethodPut, path: postPath, user: "bob", body: `{"title":"hijack"}`, want: http.StatusForbidden},
		{name: "delete reply by moderator", method: http.MethodDelete, path: replyPath, user: "mod", role: "moderator", want: http.StatusOK},
		{name: "delete reply again", method: http.MethodDelete, path: replyPath, user: "mod", role: "moderator", want: http.StatusNotFound},
		{name: "delete post by author", method: http.MethodDelete, path: postPath, user: "alice", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(tt.method, tt.path, tt.user, tt.role, tt.body)
			require.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestRoutes_DepthExceeded(t *testing.T) {
	f := newAPIFixture(t)
	deepest := f.reply
	for i := 0; i < 5; i++ {
		deepest = testutils.CreateTestReply(t, f.db, f.post.ID, deepest, "carol")
	}
	require.Equal(t, 5, deepest.Depth)

	w := f.do(http.MethodPost, fmt.Sprintf("/posts/%d/replies", f.post.ID), "carol", "",
		fmt.Sprintf(`{"content":"too deep","parentReplyId":%d}`, deepest.ID))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}
