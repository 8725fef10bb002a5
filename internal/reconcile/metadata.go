package reconcile

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"ytbridge/internal/catalog"
	"ytbridge/internal/remote"
)

const (
	truncationMarker = " (...)"
	// Education.
	defaultCategoryID = "27"
	maxDescription    = 5000
	maxTagLength      = 500
)

// TruncateTitle shortens title to at most limit characters. Long titles are cut
// at the last word boundary before limit-5 and end with " (...)".
func TruncateTitle(title string, limit int) string {
	title = norm.NFC.String(strings.TrimSpace(title))
	runes := []rune(title)
	if limit <= 0 || len(runes) <= limit {
		return title
	}
	if limit <= len(truncationMarker) {
		return string(runes[:limit])
	}
	window := runes[:limit-5]
	head := runes[:limit-len(truncationMarker)]
	for i := len(window) - 1; i > 0; i-- {
		if window[i] == ' ' {
			head = window[:i]
			break
		}
	}
	return strings.TrimRight(string(head), " ") + truncationMarker
}

// BuildDescription renders the structured remote description of an asset.
func (e *Engine) BuildDescription(asset *catalog.Asset) string {
	yt := e.cfg.YouTube
	var lines []string
	lines = append(lines, strings.TrimSpace(asset.Title))
	if subtitle := strings.TrimSpace(asset.Subtitle); subtitle != "" {
		lines = append(lines, subtitle)
	}
	if series := strings.TrimSpace(asset.Series.Title); series != "" && !asset.Series.Hidden {
		lines = append(lines, series)
	}
	if !asset.RecordDate.IsZero() {
		lines = append(lines, asset.RecordDate.Format("2006-01-02"))
	}
	if body := sanitizeText(asset.Description); body != "" {
		lines = append(lines, "", body)
	}
	if yt.IncludePeople && len(asset.People) > 0 {
		lines = append(lines, "")
		for _, person := range asset.People {
			name := stripAngles(strings.TrimSpace(person.Name))
			if name == "" {
				continue
			}
			if role := stripAngles(strings.TrimSpace(person.Role)); role != "" {
				lines = append(lines, fmt.Sprintf("%s: %s", role, name))
			} else {
				lines = append(lines, name)
			}
		}
	}
	if link := e.playbackURL(asset.ID); link != "" {
		lines = append(lines, "", link)
	}
	return capBytes(strings.TrimSpace(strings.Join(lines, "\n")), maxDescription)
}

func (e *Engine) playbackURL(assetID string) string {
	template := e.cfg.YouTube.PlaybackURLTemplate
	if template == "" {
		return ""
	}
	link := strings.ReplaceAll(template, "%s", assetID)
	return strings.ReplaceAll(link, "{id}", assetID)
}

// BuildTags returns the asset keywords as remote tags: angle brackets
// removed, each shorter than 500 characters, case-insensitively unique.
func BuildTags(keywords []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(keywords))
	for _, keyword := range keywords {
		tag := strings.TrimSpace(stripAngles(keyword))
		if utf8.RuneCountInString(tag) >= maxTagLength {
			tag = strings.TrimSpace(string([]rune(tag)[:maxTagLength-1]))
		}
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Privacy maps the local status onto a remote privacy setting.
func (e *Engine) Privacy(asset *catalog.Asset) string {
	switch asset.Status {
	case catalog.StatusHidden:
		return "unlisted"
	case catalog.StatusBlocked:
		return "private"
	default:
		return e.cfg.YouTube.Privacy
	}
}

// BuildMetadata assembles everything sent on insert and update.
func (e *Engine) BuildMetadata(asset *catalog.Asset) remote.VideoMetadata {
	meta := remote.VideoMetadata{
		Title:       TruncateTitle(stripAngles(asset.Title), e.cfg.YouTube.TitleLimit),
		Description: e.BuildDescription(asset),
		Tags:        BuildTags(asset.Keywords),
		CategoryID:  defaultCategoryID,
		Privacy:     e.Privacy(asset),
	}
	if locale := strings.TrimSpace(asset.Locale); locale != "" {
		if tag, err := language.Parse(locale); err == nil {
			meta.Language = tag.String()
		}
	}
	return meta
}

// sanitizeText reduces HTML to its visible text, keeping paragraph breaks.
func sanitizeText(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(value))
	if err != nil {
		return stripAngles(value)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br":
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "li":
				b.WriteString("\n")
			}
		}
	}
	walk(doc)

	var lines []string
	blank := false
	for _, line := range strings.Split(stripAngles(b.String()), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if len(lines) > 0 && !blank {
				lines = append(lines, "")
			}
			blank = true
			continue
		}
		blank = false
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripAngles(value string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(value)
}

func capBytes(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
