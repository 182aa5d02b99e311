package feed

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/mmcdole/gofeed"

	apperrors "github.com/lysyi3m/appcast-comb/app/errors"
)

// Verifier reads a rendered appcast back with an independent feed parser
// before it is published.
type Verifier struct {
	gofeedParser *gofeed.Parser
	checkOrder   bool
}

func NewVerifier(profile Profile) *Verifier {
	return &Verifier{
		gofeedParser: gofeed.NewParser(),
		// gofeed only exposes the RSS core pubDate as PublishedParsed
		checkOrder: profile.DateNamespace == "" && profile.DateElement == "pubDate",
	}
}

// Run checks that data parses as RSS, carries exactly wantItems items and,
// for the default date element, lists dated items newest first.
func (v *Verifier) Run(data []byte, wantItems int) error {
	parsed, err := v.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return apperrors.NewVerificationError("rendered document is not a readable feed", err)
	}

	if parsed.FeedType != "rss" {
		return apperrors.NewVerificationError(fmt.Sprintf("expected an rss feed, got %q", parsed.FeedType), nil)
	}

	if len(parsed.Items) != wantItems {
		return apperrors.NewVerificationError(
			fmt.Sprintf("expected %d items, feed parser found %d", wantItems, len(parsed.Items)), nil)
	}

	if v.checkOrder {
		var previous *gofeed.Item
		for _, item := range parsed.Items {
			if item.PublishedParsed == nil {
				continue
			}
			if previous != nil && item.PublishedParsed.After(*previous.PublishedParsed) {
				return apperrors.NewVerificationError(
					fmt.Sprintf("item %q (%s) is listed after older item %q (%s)",
						item.Title, item.Published, previous.Title, previous.Published), nil)
			}
			previous = item
		}
	}

	slog.Debug("Rendered appcast verified", "items", len(parsed.Items), "title", parsed.Title)

	return nil
}
