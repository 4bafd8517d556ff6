package controller

import (
	"net/http"
	"strconv"

	"github.com/Xushengqwer/go-common/constants"
	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/myErrors"
)

// actorFromContext 读取网关透传、由中间件写入 gin.Context 的用户 ID 与角色。
// 缺少用户 ID 时直接写入 401 响应并返回 false。
func actorFromContext(c *gin.Context) (dto.Actor, bool) {
	userID := c.GetString(string(constants.UserIDKey))
	if userID == "" {
		response.RespondError(c, http.StatusUnauthorized, response.ErrCodeClientUnauthorized, "无法获取有效的用户 ID")
		return dto.Actor{}, false
	}
	role, _ := c.Get(constant.UserRoleKey)
	userRole, _ := role.(constant.UserRole)
	return dto.Actor{UserID: userID, Role: userRole}, true
}

// parseIDParam 解析路径中的正整数 ID，失败时写入 400 响应。
func parseIDParam(c *gin.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的"+label+" ID 格式")
		return 0, false
	}
	return id, true
}

// statusForError 业务错误分类到 HTTP 状态码的映射，非业务错误一律 500。
func statusForError(err error) int {
	switch myErrors.KindOf(err) {
	case myErrors.KindValidation:
		return http.StatusBadRequest
	case myErrors.KindNotFound:
		return http.StatusNotFound
	case myErrors.KindPermission:
		return http.StatusForbidden
	case myErrors.KindDepthExceeded:
		return http.StatusUnprocessableEntity
	case myErrors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(c *gin.Context, prefix string, err error) {
	msg := prefix + ": " + err.Error()
	switch status := statusForError(err); status {
	case http.StatusNotFound:
		response.RespondError(c, status, response.ErrCodeClientResourceNotFound, msg)
	case http.StatusForbidden:
		response.RespondError(c, status, response.ErrCodeClientUnauthorized, msg)
	case http.StatusInternalServerError:
		response.RespondError(c, status, response.ErrCodeServerInternal, msg)
	default:
		response.RespondError(c, status, response.ErrCodeClientInvalidInput, msg)
	}
}
