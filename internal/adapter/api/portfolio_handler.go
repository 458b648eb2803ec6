package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github-portfolio/internal/common"
	"github-portfolio/internal/domain"
)

type PortfolioHandler struct {
	portfolio Portfolio
}

// parseFeatured 空或 all 表示不过滤
func parseFeatured(raw string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return nil, nil
	case "true", "1":
		v := true
		return &v, nil
	case "false", "0":
		v := false
		return &v, nil
	}
	return nil, common.NewValidationError("featured 只能是 true、false 或 all")
}

func (h *PortfolioHandler) GetProfile(c *gin.Context) {
	profile, err := h.portfolio.Profile(c.Request.Context(), c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *PortfolioHandler) SaveProfile(c *gin.Context) {
	var profile domain.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error(), Code: common.ErrCodeInvalidInput})
		return
	}
	if err := h.portfolio.SaveProfile(c.Request.Context(), &profile); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *PortfolioHandler) GetProjects(c *gin.Context) {
	featured, err := parseFeatured(c.Query("featured"))
	if err != nil {
		respondError(c, err)
		return
	}
	projects, err := h.portfolio.Projects(c.Request.Context(), c.Query("userId"), c.Query("category"), featured)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *PortfolioHandler) GetProjectCategories(c *gin.Context) {
	cats, err := h.portfolio.ProjectCategories(c.Request.Context(), c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (h *PortfolioHandler) GetSkills(c *gin.Context) {
	skills, err := h.portfolio.Skills(c.Request.Context(), c.Query("userId"), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, skills)
}

func (h *PortfolioHandler) GetSkillCategories(c *gin.Context) {
	cats, err := h.portfolio.SkillCategories(c.Request.Context(), c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (h *PortfolioHandler) GetAchievements(c *gin.Context) {
	list, err := h.portfolio.Achievements(c.Request.Context(), c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PortfolioHandler) AddAchievement(c *gin.Context) {
	var achievement domain.Achievement
	if err := c.ShouldBindJSON(&achievement); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error(), Code: common.ErrCodeInvalidInput})
		return
	}
	if err := h.portfolio.AddAchievement(c.Request.Context(), &achievement); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, achievement)
}

func (h *PortfolioHandler) GetGitHubStats(c *gin.Context) {
	stats, err := h.portfolio.GitHubStats(c.Request.Context(), c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
