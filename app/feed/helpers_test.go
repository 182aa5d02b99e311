package feed

import (
	"strings"
	"testing"
)

const (
	jan01 = "Mon, 01 Jan 2024 12:00:00 +0000"
	jan05 = "Fri, 05 Jan 2024 12:00:00 +0000"
	jan10 = "Wed, 10 Jan 2024 12:00:00 +0000"
	jan15 = "Mon, 15 Jan 2024 12:00:00 +0000"
)

// noChannel marks an item without a <sparkle:channel> element.
const noChannel = "\x00"

func appcastXML(items ...string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<rss version="2.0" xmlns:sparkle="http://www.andymatuschak.org/xml-namespaces/sparkle" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>AdGuard for Mac</title>
    <link>https://adguard.com</link>
    ` + strings.Join(items, "\n    ") + `
  </channel>
</rss>`
}

func itemXML(title, channel, date string) string {
	var sb strings.Builder
	sb.WriteString("<item>\n      <title>" + title + "</title>\n")
	if channel != noChannel {
		sb.WriteString("      <sparkle:channel>" + channel + "</sparkle:channel>\n")
	}
	if date != "" {
		sb.WriteString("      <pubDate>" + date + "</pubDate>\n")
	}
	sb.WriteString("      <sparkle:releaseNotesLink><![CDATA[<p>" + title + " notes</p>]]></sparkle:releaseNotesLink>\n")
	sb.WriteString(`      <enclosure url="https://static.adguard.com/` + title + `.zip" sparkle:version="1" length="100" type="application/octet-stream"/>` + "\n")
	sb.WriteString("    </item>")
	return sb.String()
}

func mustParse(t *testing.T, data string) *Document {
	t.Helper()
	doc, err := NewParser(DefaultProfile()).Run([]byte(data))
	if err != nil {
		t.Fatalf("Expected no parse error, got: %v", err)
	}
	return doc
}

// runPipeline merges source into target and renders the result the same
// way the merge task does.
func runPipeline(t *testing.T, target, source *Document) (*MergeResult, string) {
	t.Helper()
	result := NewMerger(NewMatcher()).Run(target, source)
	target.Items = NewSorter().Run(result.Items)

	out, err := NewGenerator(DefaultProfile()).Run(target)
	if err != nil {
		t.Fatalf("Expected no generator error, got: %v", err)
	}
	return result, string(out)
}

func mergeStrings(t *testing.T, target, source string) (*MergeResult, string) {
	t.Helper()
	return runPipeline(t, mustParse(t, target), mustParse(t, source))
}

func itemTitles(items []*Item) []string {
	titles := make([]string, 0, len(items))
	for _, item := range items {
		for _, child := range item.Element.Children {
			if child.Kind == ElementNode && child.QName() == "title" {
				titles = append(titles, child.Text())
			}
		}
	}
	return titles
}
