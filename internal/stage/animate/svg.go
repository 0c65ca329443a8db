package animate

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const svgTemplate = `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
  <rect width="100%%" height="100%%" fill="#142d4c"/>
  <text x="50%%" y="12%%" text-anchor="middle" fill="#9fc3e8" font-family="Helvetica" font-size="%d">%s</text>
%s</svg>
`

// renderSceneSVG produces a text card for one scene. Lines are wrapped to
// keep them inside the frame; the text is XML-escaped.
func renderSceneSVG(scene Scene, width, height int) []byte {
	headerSize := height / 18
	bodySize := height / 24
	lineHeight := bodySize + bodySize/3

	var body strings.Builder
	y := height / 4
	for _, line := range wrapText(scene.Text, 52) {
		body.WriteString(fmt.Sprintf(
			`  <text x="50%%" y="%d" text-anchor="middle" fill="#ffffff" font-family="Helvetica" font-size="%d">%s</text>`+"\n",
			y, bodySize, escapeXML(line)))
		y += lineHeight
		if y > height-lineHeight {
			break
		}
	}

	return []byte(fmt.Sprintf(svgTemplate,
		width, height, width, height,
		headerSize, escapeXML(scene.Section),
		body.String()))
}

func wrapText(text string, maxChars int) []string {
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+1+len(word) > maxChars {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
