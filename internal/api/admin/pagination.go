// pagination.go holds the shared limit/offset query parsing for list endpoints.
package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxPageSize = 500

// parsePagination reads limit and offset query parameters, clamping them to sane
// bounds. defaultLimit applies when limit is absent or invalid.
func parsePagination(c *gin.Context, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
