package upload

import (
	"fmt"
	"strings"

	"github.com/levi616boop/AI-content-gen/internal/stage/script"
)

// Metadata is the platform-facing description of one video.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category,omitempty"`
	Privacy     string   `json:"privacy,omitempty"`
}

// MetadataTemplate is the per-platform shaping of titles/descriptions.
type MetadataTemplate struct {
	TitlePrefix     string `json:"title_prefix"`
	TitleSuffix     string `json:"title_suffix"`
	DefaultCategory string `json:"default_category"`
	DefaultPrivacy  string `json:"default_privacy"`
	MaxTags         int    `json:"max_tags"`
}

// BuildMetadata derives upload metadata from the script artifact. The
// keyword list from the script contract becomes the tag set.
func BuildMetadata(art *script.Artifact, tmpl MetadataTemplate) Metadata {
	title := strings.TrimSpace(tmpl.TitlePrefix + art.Topic + tmpl.TitleSuffix)
	if title == "" {
		title = "Educational video"
	}

	description := art.Summary
	if description == "" && len(art.Sections) > 0 {
		description = art.Sections[0].Text
	}
	if len(art.Keywords) > 0 {
		description = fmt.Sprintf("%s\n\n#%s", description, strings.Join(art.Keywords, " #"))
	}

	tags := art.Keywords
	if tmpl.MaxTags > 0 && len(tags) > tmpl.MaxTags {
		tags = tags[:tmpl.MaxTags]
	}

	return Metadata{
		Title:       title,
		Description: description,
		Tags:        tags,
		Category:    tmpl.DefaultCategory,
		Privacy:     tmpl.DefaultPrivacy,
	}
}
