package httpapi

import (
	"net/http"
	"strconv"

	"incentiva-engine/pkg/errutil"

	"github.com/gin-gonic/gin"
)

func intParam(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, errutil.BadRequest(name+" must be an integer", err)
	}
	return v, nil
}

func (h *Handler) GetObjectiveProgress(c *gin.Context) {
	key, err := intParam(c, "ordering_key")
	if err != nil {
		c.Error(err)
		return
	}
	tier, err := intParam(c, "tier")
	if err != nil {
		c.Error(err)
		return
	}

	progress, err := h.fulfillment.GetObjectiveProgress(c.Request.Context(),
		c.Param("member_id"), c.Param("campaign_id"), key, tier)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (h *Handler) GetDisplayedSubmissions(c *gin.Context) {
	key, err := intParam(c, "ordering_key")
	if err != nil {
		c.Error(err)
		return
	}
	tier, err := intParam(c, "tier")
	if err != nil {
		c.Error(err)
		return
	}

	subs, err := h.fulfillment.GetDisplayedSubmissions(c.Request.Context(),
		c.Param("member_id"), c.Param("campaign_id"), key, tier)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": subs})
}

func (h *Handler) GetTierOverview(c *gin.Context) {
	tier, err := intParam(c, "tier")
	if err != nil {
		c.Error(err)
		return
	}

	overview, err := h.fulfillment.GetTierOverview(c.Request.Context(),
		c.Param("member_id"), c.Param("campaign_id"), tier)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
