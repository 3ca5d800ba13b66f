package utils

import (
	"strconv"

	"github.com/devsync/teamchat-api/internal/constants"
	"github.com/gin-gonic/gin"
)

// PaginationParams selects one page of a chat's message history.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse is echoed next to a page of messages so clients can
// tell whether older history remains.
type PaginationResponse struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// GetPaginationParams reads ?page= and ?limit=. Out-of-range values fall
// back to the first page and the default page size rather than failing.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page := queryInt(c, "page", constants.MinPageSize)
	if page < constants.MinPageSize {
		page = constants.MinPageSize
	}
	limit := queryInt(c, "limit", constants.DefaultPageSize)
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Response builds the metadata for a page out of total messages.
func (p PaginationParams) Response(total int64) PaginationResponse {
	return PaginationResponse{
		Page:    p.Page,
		Limit:   p.Limit,
		Total:   total,
		HasMore: int64(p.Offset+p.Limit) < total,
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
