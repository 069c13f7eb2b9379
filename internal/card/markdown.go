package card

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/adityarbhat/feedfwd/internal/errors"
)

// Section headings of the card body, in their fixed order.
const (
	SectionInsight   = "Insight"
	SectionInjection = "Injection Text"
	SectionExample   = "Example"
)

// frontmatterDelimiter fences the YAML header block.
const frontmatterDelimiter = "---"

// headerPattern matches "## <name>" section headers at the start of a line.
// Trailing spaces/tabs on the header line are trimmed by the group.
var headerPattern = regexp.MustCompile(`(?m)^##\s+([^\n]+?)[ \t]*$`)

// frontmatter mirrors the YAML header block of a card file.
type frontmatter struct {
	Name            string   `yaml:"name"`
	Source          string   `yaml:"source"`
	Captured        string   `yaml:"captured"`
	Category        string   `yaml:"category"`
	Score           float64  `yaml:"score"`
	TimesSurfaced   int      `yaml:"times_surfaced"`
	TimesUseful     int      `yaml:"times_useful"`
	Triggers        Triggers `yaml:"triggers"`
	InjectionTokens int      `yaml:"injection_tokens"`
}

// Encode renders a card as a markdown document: YAML frontmatter followed
// by the Insight, Injection Text, and Example sections in fixed order.
// Empty sections are omitted, matching the original file format.
func Encode(c *KnowledgeCard) ([]byte, error) {
	fm := frontmatter{
		Name:            c.Name,
		Source:          c.Source,
		Captured:        c.Captured,
		Category:        c.Category,
		Score:           round2(c.Score),
		TimesSurfaced:   c.TimesSurfaced,
		TimesUseful:     c.TimesUseful,
		Triggers:        c.Triggers,
		InjectionTokens: c.InjectionTokens,
	}

	header, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("marshal frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString(frontmatterDelimiter + "\n")
	b.Write(header)
	b.WriteString(frontmatterDelimiter + "\n")

	for _, section := range []struct {
		heading string
		body    string
	}{
		{SectionInsight, c.Insight},
		{SectionInjection, c.InjectionText},
		{SectionExample, c.Example},
	} {
		if section.body == "" {
			continue
		}
		b.WriteString("\n## " + section.heading + "\n\n")
		b.WriteString(strings.TrimRight(section.body, "\n") + "\n")
	}

	return []byte(b.String()), nil
}

// Decode parses a card markdown document back into a KnowledgeCard.
// Returns Invalid for structural problems (missing frontmatter, bad YAML,
// empty name).
func Decode(data []byte) (*KnowledgeCard, error) {
	header, body, err := splitFrontmatter(string(data))
	if err != nil {
		return nil, err
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return nil, errors.NewInvalid(fmt.Sprintf("malformed card frontmatter: %v", err))
	}
	if strings.TrimSpace(fm.Name) == "" {
		return nil, errors.NewInvalid("card frontmatter is missing a name")
	}

	sections := parseSections(body)

	return &KnowledgeCard{
		Name:            fm.Name,
		Source:          fm.Source,
		Captured:        fm.Captured,
		Category:        fm.Category,
		Score:           fm.Score,
		TimesSurfaced:   fm.TimesSurfaced,
		TimesUseful:     fm.TimesUseful,
		Triggers:        fm.Triggers,
		InjectionTokens: fm.InjectionTokens,
		Insight:         sections[SectionInsight],
		InjectionText:   sections[SectionInjection],
		Example:         sections[SectionExample],
	}, nil
}

// splitFrontmatter separates the fenced YAML header from the markdown body.
func splitFrontmatter(doc string) (header, body string, err error) {
	doc = strings.TrimPrefix(doc, "\uFEFF")
	if !strings.HasPrefix(doc, frontmatterDelimiter+"\n") {
		return "", "", errors.NewInvalid("card file has no frontmatter block")
	}

	rest := doc[len(frontmatterDelimiter)+1:]
	idx := strings.Index(rest, "\n"+frontmatterDelimiter+"\n")
	if idx < 0 {
		// Header fence may close at EOF without a trailing newline.
		if strings.HasSuffix(rest, "\n"+frontmatterDelimiter) {
			return rest[:len(rest)-len(frontmatterDelimiter)-1], "", nil
		}
		return "", "", errors.NewInvalid("card frontmatter block is not closed")
	}

	return rest[:idx], rest[idx+len(frontmatterDelimiter)+2:], nil
}

// parseSections splits a markdown body on "## " headings. The heading text
// is the key; content runs until the next heading or EOF, trimmed of
// surrounding blank lines.
func parseSections(body string) map[string]string {
	sections := make(map[string]string)

	matches := headerPattern.FindAllStringSubmatchIndex(body, -1)
	for i, match := range matches {
		heading := body[match[2]:match[3]]

		contentStart := match[1]
		if contentStart < len(body) && body[contentStart] == '\n' {
			contentStart++
		}
		contentEnd := len(body)
		if i+1 < len(matches) {
			contentEnd = matches[i+1][0]
		}

		sections[heading] = strings.TrimSpace(body[contentStart:contentEnd])
	}

	return sections
}

// round2 rounds a score to two decimals for stable on-disk representation.
func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
