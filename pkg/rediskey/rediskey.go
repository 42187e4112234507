package rediskey

import "fmt"

// Campaign keys (global convention across services)
const (
	CampaignPrefix     = "campaign"
	CampaignSlugPrefix = "campaign:slug"
	UserRankingKey     = "ranking:points"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildCampaignIDKey returns "campaign:{campaignID}"
func BuildCampaignIDKey(campaignID string) string {
	return NamespaceKey(CampaignPrefix, campaignID)
}

// BuildCampaignSlugKey returns "campaign:slug:{slug}"
func BuildCampaignSlugKey(slug string) string {
	return NamespaceKey(CampaignSlugPrefix, slug)
}
