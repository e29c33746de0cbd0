package archive

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/wikigraph/pkg/graph"
)

func newTestMap(t *testing.T) *graph.ArticleMap {
	t.Helper()
	assigner, err := graph.NewAssigner(graph.IDPolicyContentHash)
	if err != nil {
		t.Fatal(err)
	}
	return graph.NewArticleMap(assigner)
}

func pageXML(title, body string) string {
	return fmt.Sprintf(
		"<page><title>%s</title><revision><id>1</id><text>%s</text></revision></page>",
		title, body,
	)
}

func parseString(t *testing.T, doc string) *graph.ArticleMap {
	t.Helper()
	m := newTestMap(t)
	if err := Parse(strings.NewReader(doc), m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestParseTwoRecords(t *testing.T) {
	doc := "<mediawiki>" +
		pageXML("A", "see [[B]] for details") +
		pageXML("B", "no links here") +
		"</mediawiki>"

	m := parseString(t, doc)

	if got := m.ArticleLen(); got != 2 {
		t.Fatalf("ArticleLen = %d, want 2", got)
	}
	if got := len(m.Links); got != 1 {
		t.Fatalf("len(Links) = %d, want 1", got)
	}

	aID := m.UUIDs["A"]
	bID := m.UUIDs["B"]
	if got := len(m.Links[aID]); got != 1 {
		t.Fatalf("len(Links[A]) = %d, want 1", got)
	}
	if _, ok := m.Links[aID][bID]; !ok {
		t.Error("A does not link to B")
	}
}

func TestParseIdempotent(t *testing.T) {
	doc := "<mediawiki>" +
		pageXML("A", "[[B]] and [[C|shown]] and [[B]] again") +
		pageXML("B", "[[A]]") +
		"</mediawiki>"

	first := parseString(t, doc)
	second := parseString(t, doc)

	if !reflect.DeepEqual(first.UUIDs, second.UUIDs) {
		t.Error("UUIDs differ between identical parses")
	}
	if !reflect.DeepEqual(first.Links, second.Links) {
		t.Error("Links differ between identical parses")
	}
}

func TestParseBlacklistedTitles(t *testing.T) {
	blacklisted := []string{
		"Wikipedia:About",
		"WP:Policy",
		":Category stub",
		"File:Logo.png",
		"Image:Photo.jpg",
		"Template:Infobox",
		"User:Someone",
	}

	var doc strings.Builder
	doc.WriteString("<mediawiki>")
	for _, title := range blacklisted {
		doc.WriteString(pageXML(title, "links to [[A]] anyway"))
	}
	doc.WriteString(pageXML("A", "plain article"))
	doc.WriteString("</mediawiki>")

	m := parseString(t, doc.String())

	for _, title := range blacklisted {
		if _, ok := m.UUIDs[title]; ok {
			t.Errorf("blacklisted title %q was inserted", title)
		}
	}
	if got := m.ArticleLen(); got != 1 {
		t.Errorf("ArticleLen = %d, want 1", got)
	}
	if got := m.LinkLen(); got != 0 {
		t.Errorf("LinkLen = %d, want 0; blacklisted records must not contribute edges", got)
	}
}

func TestParseRedirectSuppressed(t *testing.T) {
	doc := "<mediawiki>" +
		pageXML("Stub", "#REDIRECT [[Real Article]]") +
		pageXML("Indented Stub", "\n  #REDIRECT [[Real Article]]") +
		pageXML("Real Article", "content") +
		"</mediawiki>"

	m := parseString(t, doc)

	if _, ok := m.UUIDs["Stub"]; ok {
		t.Error("redirect stub was inserted")
	}
	if _, ok := m.UUIDs["Indented Stub"]; ok {
		t.Error("redirect stub with leading whitespace was inserted")
	}
	if _, ok := m.UUIDs["Real Article"]; !ok {
		t.Error("real article missing")
	}
	if got := m.ArticleLen(); got != 1 {
		t.Errorf("ArticleLen = %d, want 1", got)
	}
}

func TestParsePipedLinkAlias(t *testing.T) {
	doc := "<mediawiki>" + pageXML("A", "[[Target|Shown Text]]") + "</mediawiki>"

	m := parseString(t, doc)

	if _, ok := m.UUIDs["Target"]; !ok {
		t.Error("piped link did not resolve to Target")
	}
	if _, ok := m.UUIDs["Shown Text"]; ok {
		t.Error("display alias was treated as a destination")
	}
}

func TestParseOnlyFirstRevision(t *testing.T) {
	doc := "<mediawiki><page><title>A</title>" +
		"<revision><text>[[Current]]</text></revision>" +
		"<revision><text>[[Stale]]</text></revision>" +
		"</page></mediawiki>"

	m := parseString(t, doc)

	if _, ok := m.UUIDs["Current"]; !ok {
		t.Error("link from the selected revision missing")
	}
	if _, ok := m.UUIDs["Stale"]; ok {
		t.Error("link from an older revision was extracted")
	}
}

func TestParseUnknownElementsIgnored(t *testing.T) {
	doc := "<mediawiki><siteinfo><sitename>Test</sitename></siteinfo>" +
		"<page><title>A</title><ns>0</ns><redirect title=\"x\"/>" +
		"<revision><contributor><username>u</username></contributor>" +
		"<text>[[B]]</text></revision></page></mediawiki>"

	m := parseString(t, doc)

	if got := m.ArticleLen(); got != 2 {
		t.Errorf("ArticleLen = %d, want 2", got)
	}
}

func TestParseInvalidEncodingFatal(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "body",
			doc:  "<mediawiki>" + pageXML("A", "bad \xff\xfe bytes") + "</mediawiki>",
		},
		{
			name: "title",
			doc:  "<mediawiki>" + pageXML("A\xff", "[[B]]") + "</mediawiki>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMap(t)
			if err := Parse(strings.NewReader(tt.doc), m); err == nil {
				t.Fatal("expected error for invalid encoding, got nil")
			}
			if got := m.ArticleLen(); got != 0 {
				t.Errorf("ArticleLen = %d, want 0 after fatal parse", got)
			}
		})
	}
}

func TestParseTruncatedStream(t *testing.T) {
	doc := "<mediawiki>" +
		pageXML("A", "[[B]]") +
		"<page><title>Cut Off</title><revision><text>[[C"

	m := parseString(t, doc)

	if _, ok := m.UUIDs["A"]; !ok {
		t.Error("complete record before truncation missing")
	}
	if _, ok := m.UUIDs["Cut Off"]; ok {
		t.Error("truncated trailing record was committed")
	}
}

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "no links",
			body: "plain text",
			want: nil,
		},
		{
			name: "single link",
			body: "see [[Foo]]",
			want: []string{"Foo"},
		},
		{
			name: "piped alias stripped",
			body: "[[Target|Shown Text]]",
			want: []string{"Target"},
		},
		{
			name: "multiple links",
			body: "[[A]] then [[B|b]] then [[C]]",
			want: []string{"A", "B", "C"},
		},
		{
			name: "empty brackets skipped",
			body: "[[]] and [[Real]]",
			want: []string{"Real"},
		},
		{
			name: "nested brackets not matched",
			body: "[[Foo[Bar]]",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractLinks(tt.body)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractLinks(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}
