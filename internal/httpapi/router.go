package httpapi

import (
	"net/http"

	"incentiva-engine/pkg/config"
	"incentiva-engine/pkg/health"
	"incentiva-engine/pkg/middleware"
	"incentiva-engine/pkg/task"
	"incentiva-engine/services/campaign"
	"incentiva-engine/services/fulfillment"
	"incentiva-engine/services/ranking"
	"incentiva-engine/services/submission"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(
		fx.Annotate(NewRouter, fx.As(new(http.Handler))),
	),
)

type Handler struct {
	campaigns   *campaign.Service
	submissions *submission.Service
	fulfillment *fulfillment.Service
	ranking     *ranking.Service
	enqueuer    task.Enqueuer
}

type RouterParams struct {
	fx.In

	Config      *config.Config
	Health      health.HealthService
	Campaigns   *campaign.Service
	Submissions *submission.Service
	Fulfillment *fulfillment.Service
	Ranking     *ranking.Service
	Enqueuer    task.Enqueuer `optional:"true"`
}

func NewRouter(p RouterParams) *gin.Engine {
	if p.Config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := &Handler{
		campaigns:   p.Campaigns,
		submissions: p.Submissions,
		fulfillment: p.Fulfillment,
		ranking:     p.Ranking,
		enqueuer:    p.Enqueuer,
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Error())

	r.GET("/healthz", p.Health.Liveness)
	r.GET("/readyz", p.Health.Readiness)

	v1 := r.Group("/v1")
	{
		v1.POST("/campaigns", h.CreateCampaign)
		v1.GET("/campaigns/:campaign_id", h.GetCampaign)
		v1.POST("/campaigns/:campaign_id/activate", h.ActivateCampaign)
		v1.GET("/campaigns/:campaign_id/tiers", h.ListTiers)

		v1.POST("/submissions", h.CreateSubmission)
		v1.GET("/submissions/:submission_id", h.GetSubmission)
		v1.POST("/submissions/:submission_id/outcome", h.SettleSubmission)

		members := v1.Group("/campaigns/:campaign_id/members/:member_id")
		{
			members.GET("/submissions", h.ListMemberSubmissions)
			members.GET("/objectives/:ordering_key/tiers/:tier/progress", h.GetObjectiveProgress)
			members.GET("/objectives/:ordering_key/tiers/:tier/submissions", h.GetDisplayedSubmissions)
			members.GET("/tiers/:tier", h.GetTierOverview)
		}

		v1.GET("/campaigns/:campaign_id/ranking", h.GetRanking)
		v1.GET("/campaigns/:campaign_id/ranking/position", h.GetVendorPosition)
		v1.GET("/campaigns/:campaign_id/ranking/stores", h.GetStoreRanking)
	}

	return r
}
