package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/discussion_service/constant"
)

// RoleContextMiddleware 读取网关透传的角色头写入 gin.Context，缺失或未知值按学生处理。
func RoleContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constant.UserRoleKey, constant.ParseUserRole(c.GetHeader(constant.UserRoleHeader)))
		c.Next()
	}
}
