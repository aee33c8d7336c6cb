package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskboard/taskboard-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// GetPaginationParams extracts and validates pagination parameters from the request
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(constants.MinPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(constants.DefaultPageSize)))

	if page < constants.MinPage {
		page = constants.MinPage
	}
	if limit < 1 || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	offset := (page - 1) * limit

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: offset,
	}
}

// PageLink rebuilds the request URL with the given page number. Returns nil
// when the target page is out of range, matching the count/next/previous
// list shape.
func PageLink(c *gin.Context, params PaginationParams, total int64, page int) *string {
	if page < constants.MinPage {
		return nil
	}
	lastPage := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	if lastPage < constants.MinPage {
		lastPage = constants.MinPage
	}
	if page > lastPage {
		return nil
	}

	u := *c.Request.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(params.Limit))
	u.RawQuery = q.Encode()

	link := u.String()
	return &link
}
