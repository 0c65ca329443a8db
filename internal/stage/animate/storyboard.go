package animate

import (
	"strings"

	"github.com/levi616boop/AI-content-gen/internal/stage/script"
)

// Scene is one storyboard card: a section fragment shown for a fixed
// duration with a transition into the next card.
type Scene struct {
	Index      int     `json:"index"`
	Section    string  `json:"section"`
	Text       string  `json:"text"`
	Duration   float64 `json:"duration_seconds"`
	Transition string  `json:"transition"`
}

// Storyboard is the animation plan derived from the script artifact.
type Storyboard struct {
	JobID      string  `json:"job_id"`
	Topic      string  `json:"topic"`
	Resolution string  `json:"resolution"`
	FPS        int     `json:"fps"`
	Scenes     []Scene `json:"scenes"`
	TotalSecs  float64 `json:"total_seconds"`
}

// BuildStoryboard splits each script section at [PAUSE] markers into
// scenes. Pause markers are the animator's cut points per the script
// contract.
func BuildStoryboard(art *script.Artifact, sceneDuration float64, transition string) Storyboard {
	sb := Storyboard{JobID: art.JobID, Topic: art.Topic}

	idx := 0
	for _, section := range art.Sections {
		for _, fragment := range strings.Split(section.Text, script.MarkerPause) {
			fragment = strings.TrimSpace(fragment)
			if fragment == "" {
				continue
			}
			sb.Scenes = append(sb.Scenes, Scene{
				Index:      idx,
				Section:    section.Name,
				Text:       fragment,
				Duration:   sceneDuration,
				Transition: transition,
			})
			idx++
		}
	}

	// A script with no recognizable sections still gets one title card.
	if len(sb.Scenes) == 0 {
		sb.Scenes = append(sb.Scenes, Scene{
			Section:    "Title",
			Text:       art.Topic,
			Duration:   sceneDuration,
			Transition: transition,
		})
	}

	for _, s := range sb.Scenes {
		sb.TotalSecs += s.Duration
	}
	return sb
}
