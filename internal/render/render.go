// Package render converts the model's markdown-like analysis text into safe
// HTML. The recognized section vocabulary is a closed grammar: text is parsed
// into tagged nodes first and rendered second, so model output is never
// interpolated into markup. Model-supplied links are stripped; every outbound
// link in the output is constructed here from recognized entity names.
package render

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"appliancecheck/internal/prompt"
)

// Kind tags one parsed node.
type Kind int

const (
	KindHeading Kind = iota
	KindSubheading
	KindNumberedItem
	KindBullet
	KindKeyValue
	KindDivider
	KindProse
)

// Node is one parsed unit of the analysis text.
type Node struct {
	Kind    Kind
	Section string // enclosing "## ..." heading, markers from the prompt package
	Number  int    // KindNumberedItem
	Title   string // bold lead of an item or bullet
	Body    string // remainder of an item or bullet
	Key     string // KindKeyValue
	Value   string // KindKeyValue
	Text    string // heading title or prose line
}

var (
	headingRe    = regexp.MustCompile(`^##\s+(.+)$`)
	subheadingRe = regexp.MustCompile(`^###\s+(.+)$`)
	numberedRe   = regexp.MustCompile(`^(\d+)\.\s+(.+)$`)
	bulletRe     = regexp.MustCompile(`^[-*]\s+(.+)$`)
	keyValueRe   = regexp.MustCompile(`^\*\*([^*]+):\*\*\s*(.*)$`)
	boldLeadRe   = regexp.MustCompile(`^\*\*([^*]+)\*\*[:\s]*[-–]?\s*(.*)$`)

	urlRe          = regexp.MustCompile(`https?://[^\s<>")\]]+`)
	markdownLinkRe = regexp.MustCompile(`\[([^\]]*)\]\(\s*(https?://[^\s)]*)\s*\)`)
	boldRe         = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	priceRe        = regexp.MustCompile(`\$\d[\d,]*(?:\.\d+)?(?:\s*-\s*\$\d[\d,]*(?:\.\d+)?)?`)
	storeLineRe    = regexp.MustCompile(`(?i)^(?:[-*]\s+)?(?:🛒\s*)?[*\s]*(?:amazon|ebay|repairclinic|youtube)[:*\s]*$`)
	oemRe          = regexp.MustCompile(`(?i)OEM#?\s*([A-Za-z0-9][A-Za-z0-9-]*)`)
)

// trustedLinkHosts are the only hosts whose markdown links survive parsing;
// they belong to the application's own promotional block, not the model.
var trustedLinkHosts = map[string]bool{
	"estimatemyfix.com":            true,
	"freelocalappliancepickup.com": true,
}

// Parse splits the analysis text into tagged nodes. Unrecognized lines
// become prose so nothing is silently dropped.
func Parse(text string) []Node {
	var nodes []Node
	section := ""

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(sanitizeLinks(rawLine))
		if line == "" {
			continue
		}
		// Lines that carried only a marketplace link are replaced by the
		// renderer's own constructed links, so they add nothing here.
		if storeLineRe.MatchString(line) {
			continue
		}

		switch {
		case line == "---":
			nodes = append(nodes, Node{Kind: KindDivider, Section: section})
		case headingRe.MatchString(line):
			section = strings.TrimSpace(headingRe.FindStringSubmatch(line)[1])
			nodes = append(nodes, Node{Kind: KindHeading, Section: section, Text: section})
		case subheadingRe.MatchString(line):
			title := strings.TrimSpace(subheadingRe.FindStringSubmatch(line)[1])
			nodes = append(nodes, Node{Kind: KindSubheading, Section: section, Text: title})
		case numberedRe.MatchString(line):
			m := numberedRe.FindStringSubmatch(line)
			n, _ := strconv.Atoi(m[1])
			title, body := splitLead(m[2])
			nodes = append(nodes, Node{Kind: KindNumberedItem, Section: section, Number: n, Title: title, Body: body})
		case keyValueRe.MatchString(line):
			m := keyValueRe.FindStringSubmatch(line)
			nodes = append(nodes, Node{Kind: KindKeyValue, Section: section, Key: strings.TrimSpace(m[1]), Value: strings.TrimSpace(m[2])})
		case bulletRe.MatchString(line):
			m := bulletRe.FindStringSubmatch(line)
			title, body := splitLead(m[1])
			nodes = append(nodes, Node{Kind: KindBullet, Section: section, Title: title, Body: body})
		default:
			nodes = append(nodes, Node{Kind: KindProse, Section: section, Text: line})
		}
	}
	return nodes
}

// sanitizeLinks removes model-supplied URLs. Markdown links to the
// application's own services keep their text and URL; everything else keeps
// only the visible text.
func sanitizeLinks(line string) string {
	line = markdownLinkRe.ReplaceAllStringFunc(line, func(match string) string {
		m := markdownLinkRe.FindStringSubmatch(match)
		if trustedLinkHosts[linkHost(m[2])] {
			return match
		}
		return m[1]
	})
	// Any remaining raw URL is untrusted.
	return urlRe.ReplaceAllStringFunc(line, func(match string) string {
		if trustedLinkHosts[linkHost(match)] {
			return match
		}
		return ""
	})
}

func linkHost(rawURL string) string {
	rest := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.ToLower(strings.TrimPrefix(rest, "www."))
}

// splitLead separates a bold lead ("**name** - description") from the rest
// of an item line.
func splitLead(text string) (title, body string) {
	text = strings.TrimSpace(text)
	if m := boldLeadRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return "", text
}

// HTML renders parsed nodes as a styled fragment. All text is escaped;
// consecutive plain bullets are grouped into lists.
func HTML(nodes []Node) string {
	var b strings.Builder
	b.WriteString(`<div class="analysis">`)

	applianceType := findApplianceType(nodes)

	i := 0
	for i < len(nodes) {
		node := nodes[i]
		switch node.Kind {
		case KindHeading:
			fmt.Fprintf(&b, `<h2 class="section-heading">%s</h2>`, inline(node.Text))
			i++
		case KindSubheading:
			fmt.Fprintf(&b, `<h3>%s</h3>`, inline(node.Text))
			i++
		case KindDivider:
			b.WriteString(`<hr class="divider">`)
			i++
		case KindNumberedItem:
			writeProblemCard(&b, node, applianceType)
			i++
		case KindKeyValue:
			writeInfoCard(&b, node)
			i++
		case KindBullet:
			// Part bullets become cards; other bullets group into a list.
			if node.Section == prompt.SectionParts && node.Title != "" {
				writePartCard(&b, node, applianceType)
				i++
				continue
			}
			if node.Section == prompt.SectionVideos && node.Title != "" {
				writeVideoCard(&b, node)
				i++
				continue
			}
			b.WriteString("<ul>")
			for i < len(nodes) && nodes[i].Kind == KindBullet &&
				!(nodes[i].Section == prompt.SectionParts && nodes[i].Title != "") &&
				!(nodes[i].Section == prompt.SectionVideos && nodes[i].Title != "") {
				fmt.Fprintf(&b, "<li>%s</li>", bulletInline(nodes[i]))
				i++
			}
			b.WriteString("</ul>")
		default:
			fmt.Fprintf(&b, "<p>%s</p>", inline(node.Text))
			i++
		}
	}

	b.WriteString(`</div>`)
	return b.String()
}

// Render is the whole pipeline: parse then render.
func Render(text string) string {
	return HTML(Parse(text))
}

// inline escapes text and then applies the small inline grammar: bold
// markers and price highlighting. Trusted markdown links become anchors.
func inline(text string) string {
	escaped := html.EscapeString(text)
	escaped = markdownLinkEscapedRe.ReplaceAllString(escaped, `<a href="$2" target="_blank" rel="noopener">$1</a>`)
	escaped = boldRe.ReplaceAllString(escaped, "<strong>$1</strong>")
	escaped = priceRe.ReplaceAllString(escaped, `<span class="price">$0</span>`)
	return escaped
}

// markdownLinkEscapedRe matches trusted links that survived sanitizeLinks,
// operating on already-escaped text.
var markdownLinkEscapedRe = regexp.MustCompile(`\[([^\]]*)\]\((https?://(?:www\.)?(?:estimatemyfix\.com|freelocalappliancepickup\.com)[^\s)]*)\)`)

func bulletInline(node Node) string {
	if node.Title == "" {
		return inline(node.Body)
	}
	if node.Body == "" {
		return "<strong>" + inline(node.Title) + "</strong>"
	}
	return "<strong>" + inline(node.Title) + "</strong> " + inline(node.Body)
}

func writeProblemCard(b *strings.Builder, node Node, applianceType string) {
	fmt.Fprintf(b, `<div class="problem-card"><span class="problem-number">%d</span><div class="problem-body">`, node.Number)
	if node.Title != "" {
		fmt.Fprintf(b, "<strong>%s</strong>", inline(node.Title))
	}
	if node.Body != "" {
		fmt.Fprintf(b, "<p>%s</p>", inline(node.Body))
	}
	if node.Section == prompt.SectionProblems && node.Title != "" {
		link := YouTubeSearchURL(node.Title, applianceType)
		fmt.Fprintf(b, `<a class="video-link" href="%s" target="_blank" rel="noopener">Watch repair tutorials</a>`, html.EscapeString(link))
	}
	b.WriteString("</div></div>")
}

func writeInfoCard(b *strings.Builder, node Node) {
	class := "info-card"
	switch node.Section {
	case prompt.SectionAgeEstimate:
		class += " info-age"
	case prompt.SectionWarranty:
		class += " info-warranty"
	}
	fmt.Fprintf(b, `<div class="%s"><span class="info-label">%s</span><span class="info-value">%s</span></div>`,
		class, inline(node.Key), inline(node.Value))
}

func writePartCard(b *strings.Builder, node Node, applianceType string) {
	oem := ""
	if m := oemRe.FindStringSubmatch(node.Body); m != nil {
		oem = m[1]
	}
	b.WriteString(`<div class="part-card">`)
	fmt.Fprintf(b, "<strong>%s</strong>", inline(node.Title))
	if node.Body != "" {
		fmt.Fprintf(b, "<p>%s</p>", inline(node.Body))
	}
	amazon := AmazonSearchURL(node.Title, oem, applianceType)
	repair := RepairClinicSearchURL(node.Title, oem)
	fmt.Fprintf(b, `<span class="part-links"><a href="%s" target="_blank" rel="noopener">Find on Amazon</a> <a href="%s" target="_blank" rel="noopener">Find on RepairClinic</a></span>`,
		html.EscapeString(amazon), html.EscapeString(repair))
	b.WriteString("</div>")
}

func writeVideoCard(b *strings.Builder, node Node) {
	link := YouTubeSearchURL(node.Title, "")
	fmt.Fprintf(b, `<div class="video-card"><strong>%s</strong> <a class="video-link" href="%s" target="_blank" rel="noopener">Search on YouTube</a></div>`,
		inline(node.Title), html.EscapeString(link))
}

// findApplianceType recovers the identified type so constructed search links
// carry useful context.
func findApplianceType(nodes []Node) string {
	for _, node := range nodes {
		if node.Kind == KindKeyValue && node.Section == prompt.SectionIdentification && node.Key == prompt.LabelType {
			return node.Value
		}
	}
	return ""
}
