package httpapi

import (
	"net/http"

	"incentiva-engine/pkg/errutil"
	"incentiva-engine/services/campaign"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateCampaign(c *gin.Context) {
	var in campaign.CreateCampaignInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	created, err := h.campaigns.CreateCampaign(c.Request.Context(), in)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetCampaign(c *gin.Context) {
	out, err := h.campaigns.GetCampaign(c.Request.Context(), c.Param("campaign_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ActivateCampaign(c *gin.Context) {
	out, err := h.campaigns.ActivateCampaign(c.Request.Context(), c.Param("campaign_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ListTiers(c *gin.Context) {
	tiers, err := h.campaigns.Tiers(c.Request.Context(), c.Param("campaign_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tiers": tiers})
}
