package feed

import (
	"testing"

	apperrors "github.com/lysyi3m/appcast-comb/app/errors"
)

func TestVerifierAcceptsMergedAppcast(t *testing.T) {
	result, rss := mergeStrings(t,
		appcastXML(itemXML("1.0", "release", jan01), itemXML("1.0 beta", "beta", jan05)),
		appcastXML(itemXML("1.1", "release", jan10), itemXML("1.1 nightly", "nightly", "")),
	)

	if err := NewVerifier(DefaultProfile()).Run([]byte(rss), len(result.Items)); err != nil {
		t.Errorf("Expected merged appcast to verify, got: %v", err)
	}
}

func TestVerifierRejects(t *testing.T) {
	unsorted := mustParse(t, appcastXML(itemXML("1.0", "release", jan01), itemXML("1.1", "release", jan10)))
	out, err := NewGenerator(DefaultProfile()).Run(unsorted)
	if err != nil {
		t.Fatal(err)
	}

	sorted := appcastXML(itemXML("1.1", "release", jan10), itemXML("1.0", "release", jan01))

	tests := []struct {
		name      string
		data      string
		wantItems int
	}{
		{"not a feed", "plain text", 0},
		{"atom feed", `<feed xmlns="http://www.w3.org/2005/Atom"><title>x</title></feed>`, 0},
		{"item count mismatch", sorted, 3},
		{"ascending dates", string(out), 2},
	}

	verifier := NewVerifier(DefaultProfile())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifier.Run([]byte(tt.data), tt.wantItems)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !apperrors.Is(err, apperrors.ErrVerification) {
				t.Errorf("Expected verification error, got: %v", err)
			}
		})
	}
}

func TestVerifierSkipsOrderForCustomDateElement(t *testing.T) {
	profile := DefaultProfile()
	profile.DateElement = "published"

	unsorted := appcastXML(itemXML("1.0", "release", jan01), itemXML("1.1", "release", jan10))

	if err := NewVerifier(profile).Run([]byte(unsorted), 2); err != nil {
		t.Errorf("Expected order check to be skipped, got: %v", err)
	}
}
