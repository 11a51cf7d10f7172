package httpapi

import (
	"net/http"
	"strings"

	"incentiva-engine/pkg/db/pagination"
	"incentiva-engine/pkg/errutil"
	"incentiva-engine/services/ranking"

	"github.com/gin-gonic/gin"
)

func scopeFromQuery(c *gin.Context) ranking.Scope {
	scope := ranking.Scope{
		CampaignID:      c.Param("campaign_id"),
		ManagerID:       c.Query("manager_id"),
		StoreID:         c.Query("store_id"),
		StoreIDs:        c.QueryArray("store_ids"),
		IncludeBranches: c.Query("include_branches") == "true",
	}

	switch strings.ToUpper(c.DefaultQuery("scope", "global")) {
	case "TEAM":
		scope.Type = ranking.ScopeTeam
	case "STORE":
		scope.Type = ranking.ScopeStore
	default:
		scope.Type = ranking.ScopeGlobal
	}
	return scope
}

func (h *Handler) GetRanking(c *gin.Context) {
	var p pagination.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		c.Error(errutil.BadRequest("invalid pagination", err))
		return
	}

	page, err := h.ranking.GetRanking(c.Request.Context(), scopeFromQuery(c), p)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetVendorPosition(c *gin.Context) {
	memberID := c.Query("member_id")

	position, err := h.ranking.GetVendorPosition(c.Request.Context(), scopeFromQuery(c), memberID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"member_id": memberID, "position": position})
}

func (h *Handler) GetStoreRanking(c *gin.Context) {
	var p pagination.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		c.Error(errutil.BadRequest("invalid pagination", err))
		return
	}

	page, err := h.ranking.GetStoreRanking(c.Request.Context(), c.Param("campaign_id"), p)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, page)
}
