package script

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// defaultPromptTemplate is used when the module config doesn't point at a
// template file. The section, pause and keyword markers it demands are
// the stable contract consumed by the animator and voice generator.
const defaultPromptTemplate = `You are an educational script writer. Write a narration script about "{topic}"
in {language}, with a {style} tone, suitable for a video of about
{duration_seconds} seconds (target around {word_count} words).

Base the script strictly on the following source material:

{ingested_content}

Structure the output exactly as:
[SECTION: Introduction]
...one short hook paragraph...
[PAUSE]
[SECTION: Main Content]
...the core explanation, with [PAUSE] between ideas...
[SECTION: Summary]
...a concise recap...
[KEYWORDS: comma, separated, keywords]`

var placeholderRe = regexp.MustCompile(`\{(topic|language|style|duration_seconds|ingested_content|word_count)\}`)

// PromptData carries the values substituted into the template.
type PromptData struct {
	Topic           string
	Language        string
	Style           string
	DurationSeconds int
	IngestedContent string
	WordCount       int
}

// LoadTemplate reads a template file, falling back to the built-in one
// when path is empty.
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return defaultPromptTemplate, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load prompt template: %w", err)
	}
	return string(data), nil
}

// RenderPrompt substitutes every placeholder and fails if any token is
// left unresolved, so a template typo never reaches the LLM.
func RenderPrompt(template string, data PromptData) (string, error) {
	r := strings.NewReplacer(
		"{topic}", data.Topic,
		"{language}", data.Language,
		"{style}", data.Style,
		"{duration_seconds}", strconv.Itoa(data.DurationSeconds),
		"{ingested_content}", data.IngestedContent,
		"{word_count}", strconv.Itoa(data.WordCount),
	)
	rendered := r.Replace(template)

	if leftover := placeholderRe.FindString(rendered); leftover != "" {
		return "", fmt.Errorf("unresolved placeholder %s in prompt template", leftover)
	}
	return rendered, nil
}

// EstimateWordCount converts a target duration into a word budget using
// the average educational speaking rate.
func EstimateWordCount(durationSeconds, wordsPerMinute int) int {
	if wordsPerMinute <= 0 {
		wordsPerMinute = 150
	}
	return durationSeconds * wordsPerMinute / 60
}
