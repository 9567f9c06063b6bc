package socials

// PlatformCapability is static reference data describing what each
// platform connection supports. Served as-is, never computed.
type PlatformCapability struct {
	Platform         string   `json:"platform"`
	DisplayName      string   `json:"display_name"`
	RequiredScopes   []string `json:"required_scopes"`
	SupportedFormats []string `json:"supported_formats"`
	MaxDurationSecs  int      `json:"max_duration_secs"`
	MaxFileSizeMB    int      `json:"max_file_size_mb"`
}

var PlatformCapabilities = []PlatformCapability{
	{
		Platform:         "youtube",
		DisplayName:      "YouTube Shorts",
		RequiredScopes:   []string{"https://www.googleapis.com/auth/youtube.upload"},
		SupportedFormats: []string{"mp4", "mov", "webm"},
		MaxDurationSecs:  180,
		MaxFileSizeMB:    256,
	},
	{
		Platform:         "tiktok",
		DisplayName:      "TikTok",
		RequiredScopes:   []string{"video.upload", "video.publish", "user.info.basic"},
		SupportedFormats: []string{"mp4", "mov"},
		MaxDurationSecs:  600,
		MaxFileSizeMB:    287,
	},
	{
		Platform:         "instagram",
		DisplayName:      "Instagram Reels",
		RequiredScopes:   []string{"instagram_content_publish", "instagram_basic"},
		SupportedFormats: []string{"mp4", "mov"},
		MaxDurationSecs:  90,
		MaxFileSizeMB:    100,
	},
}
