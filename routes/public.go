package routes

import (
	"encoding/json"

	"influencia-server/models"
	"influencia-server/services"
	"influencia-server/storage"
	"influencia-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// PublicRoutes serves the unauthenticated browse surface. Each listing
// is a derived view cached under its own key; the write paths in the
// services invalidate them.
type PublicRoutes struct {
	db        *gorm.DB
	cache     *storage.Cache
	campaigns *services.CampaignService
}

func NewPublicRoutes(db *gorm.DB, cache *storage.Cache, campaigns *services.CampaignService) *PublicRoutes {
	return &PublicRoutes{db: db, cache: cache, campaigns: campaigns}
}

// cachedList renders via build on a miss and stores the result.
func (r *PublicRoutes) cachedList(ctx iris.Context, key string, build func() (interface{}, error)) {
	reqCtx := ctx.Request().Context()
	if payload, ok := r.cache.Get(reqCtx, key); ok {
		utils.WriteCached(ctx, payload)
		return
	}

	view, err := build()
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	payload, err := json.Marshal(view)
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	r.cache.Put(reqCtx, key, payload, storage.DefaultTTL)
	utils.WriteCached(ctx, payload)
}

// GET /all-users — every account grouped by role.
func (r *PublicRoutes) AllUsers(ctx iris.Context) {
	r.cachedList(ctx, storage.PublicUsersKey(), func() (interface{}, error) {
		var users []models.User
		if err := r.db.Find(&users).Error; err != nil {
			return nil, err
		}
		grouped := map[string][]map[string]interface{}{
			models.RoleAdmin:      {},
			models.RoleSponsor:    {},
			models.RoleInfluencer: {},
		}
		for i := range users {
			grouped[users[i].Role] = append(grouped[users[i].Role], users[i].Serialize())
		}
		return iris.Map{"users": grouped}, nil
	})
}

func (r *PublicRoutes) Creators(ctx iris.Context) {
	r.cachedList(ctx, storage.PublicInfluencersKey(), func() (interface{}, error) {
		var creators []models.Influencer
		if err := r.db.Find(&creators).Error; err != nil {
			return nil, err
		}
		out := make([]map[string]interface{}, 0, len(creators))
		for i := range creators {
			out = append(out, creators[i].Serialize())
		}
		return iris.Map{"influencers": out}, nil
	})
}

func (r *PublicRoutes) CreatorByID(ctx iris.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	r.cachedList(ctx, storage.InfluencerDetailKey(id), func() (interface{}, error) {
		var creator models.Influencer
		if err := r.db.First(&creator, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, services.ErrNotFound
			}
			return nil, err
		}
		return iris.Map{"influencer": creator.Serialize()}, nil
	})
}

func (r *PublicRoutes) CampaignsList(ctx iris.Context) {
	r.cachedList(ctx, storage.PublicAllCampaignsKey(), func() (interface{}, error) {
		var campaigns []models.Campaign
		if err := r.db.Find(&campaigns).Error; err != nil {
			return nil, err
		}
		out := make([]map[string]interface{}, 0, len(campaigns))
		for i := range campaigns {
			out = append(out, campaigns[i].Serialize())
		}
		return iris.Map{"campaigns": out}, nil
	})
}

func (r *PublicRoutes) CampaignDetail(ctx iris.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	r.cachedList(ctx, storage.CampaignDetailKey(id), func() (interface{}, error) {
		var campaign models.Campaign
		if err := r.db.First(&campaign, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, services.ErrNotFound
			}
			return nil, err
		}
		return iris.Map{"campaign": campaign.Serialize()}, nil
	})
}

// GET /available-campaigns — public-visibility campaigns only.
func (r *PublicRoutes) AvailableCampaigns(ctx iris.Context) {
	payload, err := r.campaigns.PublicCampaigns(ctx.Request().Context())
	if err != nil {
		utils.RespondServiceError(ctx, err)
		return
	}
	utils.WriteCached(ctx, payload)
}

func (r *PublicRoutes) AdvertRequests(ctx iris.Context) {
	r.cachedList(ctx, storage.PublicAdRequestsKey(), func() (interface{}, error) {
		var requests []models.AdRequest
		if err := r.db.Find(&requests).Error; err != nil {
			return nil, err
		}
		out := make([]map[string]interface{}, 0, len(requests))
		for i := range requests {
			out = append(out, requests[i].Serialize())
		}
		return iris.Map{"ad_requests": out}, nil
	})
}

// GET /advert-request/{id} — cached per id so one request never shadows
// another.
func (r *PublicRoutes) AdvertRequestByID(ctx iris.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	r.cachedList(ctx, storage.AdRequestKey(id), func() (interface{}, error) {
		var request models.AdRequest
		if err := r.db.First(&request, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, services.ErrNotFound
			}
			return nil, err
		}
		return iris.Map{"ad_request": request.Serialize()}, nil
	})
}
