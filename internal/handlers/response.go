package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskboard/taskboard-api/internal/dto"
	"github.com/taskboard/taskboard-api/internal/utils"
)

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, dto.Envelope{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, dto.Envelope{Success: true, Message: message, Data: data})
}

// respondPage wraps results with count and next/previous links built from
// the current request URL.
func respondPage(c *gin.Context, message string, params utils.PaginationParams, total int64, results interface{}) {
	respondOK(c, message, dto.PageData{
		Count:    total,
		Next:     utils.PageLink(c, params, total, params.Page+1),
		Previous: utils.PageLink(c, params, total, params.Page-1),
		Results:  results,
	})
}
