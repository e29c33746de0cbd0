package archive

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/OFFIS-RIT/wikigraph/internal/util"
	"github.com/OFFIS-RIT/wikigraph/pkg/graph"
)

// titlePrefixBlacklist lists the non-article namespaces. A title starting
// with any of these suppresses the whole record.
var titlePrefixBlacklist = [...]string{
	"Wikipedia:",
	"WP:",
	":",
	"File:",
	"Image:",
	"Template:",
	"User:",
}

// redirectPrefix marks redirect stubs, which are excluded entirely.
const redirectPrefix = "#REDIRECT [["

// wikiLinkRe captures the target of a [[...]] wiki link. A piped display
// alias after the target is matched but not captured.
var wikiLinkRe = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|[^\[\]]*)?\]\]`)

const progressReportEvery = 1000

type readState int

const (
	stateIgnore readState = iota
	stateInPage
	stateInMostRecentRevision
	stateInTitle
	stateInText
)

// Parse reads the XML export from r and inserts every surviving record and
// its outbound links into m. Only the first revision of each page is
// considered. A truncated trailing record is dropped rather than reported,
// since dumps are routinely cut mid-page.
func Parse(r io.Reader, m *graph.ArticleMap) error {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var title, body strings.Builder
	state := stateIgnore
	redirectChecked := false
	progress := util.NewProgress("reading archive", progressReportEvery)

	for {
		tok, err := dec.Token()
		if err != nil {
			if truncated(err) {
				break
			}
			return fmt.Errorf("failed to read archive stream: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case state == stateIgnore && t.Name.Local == "page":
				title.Reset()
				body.Reset()
				redirectChecked = false
				state = stateInPage
			case state == stateInPage && t.Name.Local == "revision":
				state = stateInMostRecentRevision
			case state == stateInPage && t.Name.Local == "title":
				state = stateInTitle
			case state == stateInMostRecentRevision && t.Name.Local == "text":
				state = stateInText
			}
		case xml.EndElement:
			switch {
			case state == stateInMostRecentRevision && t.Name.Local == "revision":
				if err := commitRecord(m, title.String(), body.String()); err != nil {
					return err
				}
				progress.Add(1)
				state = stateIgnore
			case state == stateInTitle && t.Name.Local == "title":
				state = stateInPage
			case state == stateInText && t.Name.Local == "text":
				state = stateInMostRecentRevision
			}
		case xml.CharData:
			switch state {
			case stateInTitle:
				if !utf8.Valid(t) {
					return fmt.Errorf("malformed encoding in title %q", title.String())
				}
				title.Write(t)
				if titleBlacklisted(title.String()) {
					state = stateIgnore
				}
			case stateInText:
				if !utf8.Valid(t) {
					return fmt.Errorf("malformed encoding in body of %q", title.String())
				}
				body.Write(t)
				if !redirectChecked {
					trimmed := strings.TrimLeft(body.String(), " \t\r\n")
					if strings.HasPrefix(trimmed, redirectPrefix) {
						state = stateIgnore
					}
					// Once enough non-blank text arrived to decide, the
					// prefix can never match later.
					if len(trimmed) >= len(redirectPrefix) {
						redirectChecked = true
					}
				}
			}
		}
	}

	progress.Done()
	return nil
}

// commitRecord resolves the record's title and link targets into m. Records
// without a title never made it past filtering and are skipped.
func commitRecord(m *graph.ArticleMap, title, body string) error {
	if title == "" {
		return nil
	}

	src, err := m.InsertArticle(title)
	if err != nil {
		return fmt.Errorf("failed to assign id for %q: %w", title, err)
	}

	for _, dst := range ExtractLinks(body) {
		dstID, err := m.InsertArticle(dst)
		if err != nil {
			return fmt.Errorf("failed to assign id for %q: %w", dst, err)
		}
		m.InsertLink(src, dstID)
	}
	return nil
}

// ExtractLinks returns the destination names of all wiki links in body, with
// piped display aliases stripped.
func ExtractLinks(body string) []string {
	matches := wikiLinkRe.FindAllStringSubmatch(strings.TrimSpace(body), -1)
	if len(matches) == 0 {
		return nil
	}
	links := make([]string, 0, len(matches))
	for _, match := range matches {
		links = append(links, match[1])
	}
	return links
}

// truncated reports whether err marks the end of the stream, including a
// stream cut mid-record. The trailing partial record is dropped, not an
// error. encoding/xml surfaces a mid-token cut as a SyntaxError rather than
// io.ErrUnexpectedEOF, so all three shapes are accepted.
func truncated(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var syntaxErr *xml.SyntaxError
	return errors.As(err, &syntaxErr) && strings.Contains(syntaxErr.Msg, "unexpected EOF")
}

func titleBlacklisted(title string) bool {
	for _, prefix := range titlePrefixBlacklist {
		if strings.HasPrefix(title, prefix) {
			return true
		}
	}
	return false
}
