package settings

// Keys seeded by the initial migration.
const (
	KeySiteTitle        = "site_title"
	KeySiteDescription  = "site_description"
	KeyHeroText         = "hero_text"
	KeyHeroSubtext      = "hero_subtext"
	KeyBrandPrimary     = "brand_primary"
	KeyBrandSecondary   = "brand_secondary"
	KeyAutoplayEnabled  = "autoplay_enabled"
	KeyAutoplayInterval = "autoplay_interval"
	KeyAnimationSpeed   = "animation_speed"
	KeyFaviconMediaID   = "favicon_media_id"
	KeyLogoMediaID      = "logo_media_id"
	KeyOpenLinksNewTab  = "open_links_new_tab"
)

// MaxValueLength bounds a single setting value.
const MaxValueLength = 2000

// UpdateRequest is the body of PUT /api/settings.
type UpdateRequest struct {
	Settings map[string]string `json:"settings"`
}

// Response wraps the full settings map.
type Response struct {
	Settings map[string]string `json:"settings"`
}
