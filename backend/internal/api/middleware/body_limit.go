package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"assessment-matrix/backend/pkg/response"
)

// BodyLimit 全局请求体大小限制中间件
// maxBytes <= 0 时不限制；学生导入是最大的请求体
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}

