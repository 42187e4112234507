package submission

import (
	"context"

	"eps-campanhas/pkg/db/option"
	"eps-campanhas/pkg/errutil"

	"go.uber.org/zap"
)

type RequirementProgress struct {
	RequirementID     string `json:"requirement_id"`
	Description       string `json:"description"`
	ProductType       string `json:"product_type"`
	Unit              string `json:"unit"`
	TargetQuantity    int64  `json:"target_quantity"`
	ValidatedQuantity int64  `json:"validated_quantity"`
}

// KitProgress is the seller-facing view of a kit, the card the app renders
// with one bar per goal requirement.
type KitProgress struct {
	Kit           *CampaignKit          `json:"kit"`
	CampaignTitle string                `json:"campaign_title"`
	Requirements  []RequirementProgress `json:"requirements"`
}

func (s *Service) ListKits(ctx context.Context, userID, campaignID string) ([]*KitProgress, error) {
	filter := &CampaignKit{UserID: userID, CampaignID: campaignID}

	kits, err := s.kits.Find(ctx, filter,
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
	)
	if err != nil {
		zap.L().Error("failed to list kits", zap.String("user_id", userID), zap.Error(err))
		return nil, errutil.Internal("Erro ao listar kits", err)
	}

	out := make([]*KitProgress, 0, len(kits))
	for _, kit := range kits {
		camp, err := s.campaigns.GetCampaign(ctx, kit.CampaignID)
		if err != nil {
			zap.L().Warn("failed to load campaign for kit",
				zap.String("kit_id", kit.ID),
				zap.String("campaign_id", kit.CampaignID),
				zap.Error(err),
			)
			continue
		}

		var sums []requirementTotal
		if err := s.db.WithContext(ctx).Model(&CampaignSubmission{}).
			Select("requirement_id, SUM(quantity) AS total").
			Where("kit_id = ? AND status = ?", kit.ID, StatusValidated).
			Group("requirement_id").
			Scan(&sums).Error; err != nil {
			zap.L().Error("failed to sum kit progress", zap.String("kit_id", kit.ID), zap.Error(err))
			return nil, errutil.Internal("Erro ao calcular progresso do kit", err)
		}

		byRequirement := make(map[string]int64, len(sums))
		for _, row := range sums {
			byRequirement[row.RequirementID] = row.Total
		}

		progress := make([]RequirementProgress, 0, len(camp.Requirements))
		for _, r := range camp.Requirements {
			progress = append(progress, RequirementProgress{
				RequirementID:     r.ID,
				Description:       r.Description,
				ProductType:       r.ProductType,
				Unit:              r.Unit,
				TargetQuantity:    r.TargetQuantity,
				ValidatedQuantity: byRequirement[r.ID],
			})
		}

		out = append(out, &KitProgress{
			Kit:           kit,
			CampaignTitle: camp.Title,
			Requirements:  progress,
		})
	}

	return out, nil
}
