package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github-portfolio/internal/common"
	"github-portfolio/internal/domain"
)

type GitHubHandler struct {
	sync   Syncer
	cache  CacheClearer
	logger *common.Logger
}

type FetchDataRequest struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

type FetchStats struct {
	ProjectsCount int `json:"projectsCount"`
	SkillsCount   int `json:"skillsCount"`
}

type FetchDataResponse struct {
	Message    string     `json:"message"`
	Stats      FetchStats `json:"stats"`
	FailedKeys []string   `json:"failedKeys,omitempty"`
	Cached     bool       `json:"cached,omitempty"`
	Shared     bool       `json:"shared,omitempty"`
}

// PartialFailureResponse 部分写入失败时的 500 响应，带上已写入的计数
type PartialFailureResponse struct {
	ErrorResponse
	Stats      FetchStats `json:"stats"`
	FailedKeys []string   `json:"failedKeys"`
}

func statsOf(r *domain.IngestResult) FetchStats {
	return FetchStats{ProjectsCount: r.ProjectsCount, SkillsCount: r.SkillsCount}
}

// FetchData handles POST /api/github/fetch-data
func (h *GitHubHandler) FetchData(c *gin.Context) {
	var req FetchDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error(), Code: common.ErrCodeInvalidInput})
		return
	}
	if req.Username == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "GitHub username required", Code: common.ErrCodeInvalidInput})
		return
	}

	result, shared, err := h.sync.Sync(c.Request.Context(), req.UserID, req.Username)
	if err != nil {
		h.logger.Warn("[GitHub] 导入失败", "username", req.Username, "error", err)
		if result != nil && result.Partial() {
			c.JSON(http.StatusInternalServerError, PartialFailureResponse{
				ErrorResponse: errorBody(err),
				Stats:         statsOf(result),
				FailedKeys:    result.FailedKeys,
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, FetchDataResponse{
		Message: "GitHub data synced successfully",
		Stats:   statsOf(result),
		Cached:  result.Cached,
		Shared:  shared,
	})
}

// SyncStatus handles GET /api/github/sync-status?userId=
func (h *GitHubHandler) SyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.State(c.Query("userId")))
}

// ClearCache handles DELETE /api/github/cache
func (h *GitHubHandler) ClearCache(c *gin.Context) {
	if h.cache == nil {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.cache.ClearCache(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
