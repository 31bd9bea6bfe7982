package github

import (
	"fmt"
	"html"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	gh "github.com/google/go-github/v57/github"

	"github.com/joescharf/folio/internal/models"
)

// NoDescription is used when neither GitHub nor the README offers one.
const NoDescription = "No description available"

var techMap = map[string][]string{
	"JavaScript": {"JavaScript", "Node.js"},
	"TypeScript": {"TypeScript", "Node.js"},
	"Python":     {"Python"},
	"Java":       {"Java"},
	"C++":        {"C++"},
	"C#":         {"C#"},
	"PHP":        {"PHP"},
	"Ruby":       {"Ruby"},
	"Go":         {"Go"},
	"Rust":       {"Rust"},
	"Swift":      {"Swift"},
	"Kotlin":     {"Kotlin"},
	"Dart":       {"Dart", "Flutter"},
	"HTML":       {"HTML", "CSS"},
	"CSS":        {"CSS"},
	"SCSS":       {"SCSS", "CSS"},
	"Vue":        {"Vue.js"},
	"Svelte":     {"Svelte"},
	"Lua":        {"Lua"},
}

var (
	gameTopics    = []string{"game", "roblox", "unity", "gamedev"}
	modelTopics   = []string{"3d", "blender", "modeling", "graphics"}
	webTopics     = []string{"bot", "discord", "api", "backend", "server"}
	webLanguages  = []string{"javascript", "typescript", "python", "php", "node"}
	mobileTopics  = []string{"mobile", "android", "ios", "flutter", "react-native"}
	placeholderBG = []string{"FF6B6B", "4ECDC4", "45B7D1", "96CEB4", "FFEAA7", "DDA0DD"}
)

// FormatRepo maps a GitHub repository onto the portfolio display shape.
// languages and readme are optional enrichment.
func FormatRepo(repo *gh.Repository, languages map[string]int, readme string, now time.Time) models.Repository {
	langs := OrderedLanguages(languages)

	description := repo.GetDescription()
	if description == "" {
		description = DescriptionFromReadme(readme)
	}
	if description == "" {
		description = NoDescription
	}

	longDescription := description
	if readme != "" {
		longDescription = LongDescriptionFromReadme(readme)
	}

	link := repo.GetHomepage()
	if link == "" {
		link = repo.GetHTMLURL()
	}

	topics := repo.Topics
	if topics == nil {
		topics = []string{}
	}

	return models.Repository{
		ID:              strconv.FormatInt(repo.GetID(), 10),
		Name:            repo.GetName(),
		Description:     description,
		LongDescription: longDescription,
		Technologies:    Technologies(langs),
		GitHubLink:      repo.GetHTMLURL(),
		Link:            link,
		Status:          DetermineStatus(repo.GetArchived(), repo.GetUpdatedAt().Time, now),
		Category:        DetermineCategory(langs, topics),
		Stars:           repo.GetStargazersCount(),
		Forks:           repo.GetForksCount(),
		Language:        repo.GetLanguage(),
		Topics:          topics,
		CreatedAt:       repo.GetCreatedAt().Time,
		UpdatedAt:       repo.GetUpdatedAt().Time,
		Size:            repo.GetSize(),
		IsPrivate:       repo.GetPrivate(),
		Archived:        repo.GetArchived(),
		Images:          []string{PlaceholderImage(repo.GetID(), repo.GetName())},
	}
}

// ToListing maps a GitHub repository onto the admin listing shape.
func ToListing(repo *gh.Repository) models.RepoListing {
	topics := repo.Topics
	if topics == nil {
		topics = []string{}
	}
	return models.RepoListing{
		Name:        repo.GetName(),
		Description: repo.GetDescription(),
		Language:    repo.GetLanguage(),
		Stars:       repo.GetStargazersCount(),
		Forks:       repo.GetForksCount(),
		Topics:      topics,
		UpdatedAt:   repo.GetUpdatedAt().Time,
		URL:         repo.GetHTMLURL(),
		Archived:    repo.GetArchived(),
		IsPrivate:   repo.GetPrivate(),
	}
}

// OrderedLanguages returns the language names ordered the way GitHub
// reports them: most bytes first, name as tiebreak.
func OrderedLanguages(languages map[string]int) []string {
	out := make([]string, 0, len(languages))
	for l := range languages {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if languages[out[i]] != languages[out[j]] {
			return languages[out[i]] > languages[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// Technologies expands languages through the tech table, de-duplicated in
// first-seen order. Unknown languages map to themselves.
func Technologies(languages []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, lang := range languages {
		mapped, ok := techMap[lang]
		if !ok {
			mapped = []string{lang}
		}
		for _, tech := range mapped {
			if !seen[tech] {
				seen[tech] = true
				out = append(out, tech)
			}
		}
	}
	return out
}

// DetermineCategory applies the topic/language heuristic, first match wins.
func DetermineCategory(languages, topics []string) models.Category {
	lowerTopics := lowerAll(topics)
	lowerLangs := lowerAll(languages)

	switch {
	case anyIn(lowerTopics, gameTopics) || contains(lowerLangs, "lua"):
		return models.CategoryGame
	case anyIn(lowerTopics, modelTopics):
		return models.Category3D
	case anyIn(lowerTopics, webTopics) || anyIn(lowerLangs, webLanguages):
		return models.CategoryWeb
	case anyIn(lowerTopics, mobileTopics):
		return models.CategoryMobile
	default:
		return models.CategoryWeb
	}
}

// DetermineStatus derives lifecycle status. Archived wins over recency.
func DetermineStatus(archived bool, updatedAt, now time.Time) models.Status {
	if archived {
		return models.StatusArchived
	}
	if now.Sub(updatedAt) < 30*24*time.Hour {
		return models.StatusInProgress
	}
	return models.StatusCompleted
}

// DescriptionFromReadme returns the first plain README line whose length is
// strictly between 20 and 200, or "" when there is none.
func DescriptionFromReadme(readme string) string {
	if readme == "" {
		return ""
	}
	for _, line := range strings.Split(readme, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if n := jsLen(line); n > 20 && n < 200 {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// LongDescriptionFromReadme returns the README intro: the text before the
// first "## " section minus a leading "# " title, capped at 500 characters.
// A title line holding a line terminator other than "\n" (a CRLF title, say)
// is kept.
func LongDescriptionFromReadme(readme string) string {
	if readme == "" {
		return ""
	}
	sections := strings.Split(readme, "\n## ")
	if len(sections) > 1 {
		intro := sections[0]
		if strings.HasPrefix(intro, "# ") {
			if i := strings.Index(intro, "\n"); i >= 0 && !strings.ContainsAny(intro[:i], "\r\u2028\u2029") {
				intro = intro[i+1:]
			}
		}
		return jsSubstring(strings.TrimSpace(intro), 500)
	}
	return strings.TrimSpace(jsSubstring(readme, 500))
}

// PlaceholderImage renders an inline SVG data URI colored by id.
func PlaceholderImage(id int64, name string) string {
	if id < 0 {
		id = -id
	}
	color := placeholderBG[id%int64(len(placeholderBG))]
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="1280" height="720" viewBox="0 0 1280 720">`+
		`<rect width="1280" height="720" fill="#%s"/>`+
		`<text x="640" y="360" fill="#FFFFFF" font-family="sans-serif" font-size="64" text-anchor="middle" dominant-baseline="middle">%s</text>`+
		`</svg>`, color, html.EscapeString(name))
	return "data:image/svg+xml;charset=utf-8," + url.PathEscape(svg)
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func anyIn(have, want []string) bool {
	for _, h := range have {
		if contains(want, h) {
			return true
		}
	}
	return false
}

// jsLen counts UTF-16 code units, the unit README length rules are written in.
func jsLen(s string) int {
	n := 0
	for _, r := range s {
		if w := utf16.RuneLen(r); w > 0 {
			n += w
		} else {
			n++
		}
	}
	return n
}

// jsSubstring keeps at most n UTF-16 code units of s without splitting a rune.
func jsSubstring(s string, n int) string {
	count := 0
	for i, r := range s {
		w := utf16.RuneLen(r)
		if w < 0 {
			w = 1
		}
		if count+w > n {
			return s[:i]
		}
		count += w
	}
	return s
}
