package ingest

import (
	"regexp"
	"strings"
)

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style|noscript|head)[^>]*>.*?</\s*(script|style|noscript|head)\s*>`)
	tagRe         = regexp.MustCompile(`(?s)<[^>]+>`)
	blankRe       = regexp.MustCompile(`\n{3,}`)
	spaceRe       = regexp.MustCompile(`[ \t]{2,}`)
)

// extractHTMLText strips markup and collapses whitespace, keeping block
// boundaries as newlines. Good enough for article-shaped pages; nothing
// fancier is needed upstream of the LLM.
func extractHTMLText(html string) string {
	text := scriptStyleRe.ReplaceAllString(html, " ")

	// Preserve paragraph boundaries before stripping tags.
	for _, tag := range []string{"</p>", "</div>", "</li>", "</h1>", "</h2>", "</h3>", "<br>", "<br/>", "<br />"} {
		text = strings.ReplaceAll(text, tag, tag+"\n")
	}

	text = tagRe.ReplaceAllString(text, " ")
	text = htmlUnescape(text)
	text = spaceRe.ReplaceAllString(text, " ")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return blankRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}

var entities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

func htmlUnescape(s string) string {
	return entities.Replace(s)
}
