package urlex

import (
	"testing"

	"decklens/deck"
)

func TestWellFormed(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want bool
	}{
		{"PlainHTTPS", "https://bestpitchdeck.com", true},
		{"WithPath", "https://bestpitchdeck.com/templates/saas", true},
		{"PlainHTTP", "http://example.org", true},
		{"UserinfoOnly", "https://@pitchdecks", false},
		{"NoHost", "https://", false},
		{"NoDotInHost", "https://pitchdecks", false},
		{"WrongScheme", "ftp://example.org", false},
		{"NotAURL", "hello world", false},
		{"HostWithPort", "https://example.org:8080/x", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WellFormed(tc.raw); got != tc.want {
				t.Errorf("WellFormed(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestCollectorDedupFirstSeen(t *testing.T) {
	c := NewCollector()
	c.AddPages([]deck.PageText{
		{Ordinal: 1, Text: "visit https://bestpitchdeck.com for more"},
		{Ordinal: 2, Text: "again: https://bestpitchdeck.com and https://other.example.com"},
	})

	urls := c.URLs()
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %d: %v", len(urls), urls)
	}
	if urls[0].Raw != "https://bestpitchdeck.com" || urls[0].PageOrdinal != 1 {
		t.Errorf("first-seen provenance lost: %+v", urls[0])
	}
	seen := map[string]bool{}
	for _, u := range urls {
		if seen[u.Raw] {
			t.Errorf("duplicate literal in result: %s", u.Raw)
		}
		seen[u.Raw] = true
	}
}

func TestCollectorMalformedRetained(t *testing.T) {
	c := NewCollector()
	c.AddText("broken link https://@pitchdecks here", 3, deck.URLFromText)

	urls := c.URLs()
	if len(urls) != 1 {
		t.Fatalf("expected malformed url to be retained, got %d urls", len(urls))
	}
	if urls[0].WellFormed {
		t.Errorf("expected https://@pitchdecks to be malformed")
	}
	if urls[0].PageOrdinal != 3 || urls[0].Source != deck.URLFromText {
		t.Errorf("provenance wrong: %+v", urls[0])
	}
}

func TestCollectorMentionExpansion(t *testing.T) {
	c := NewCollector()
	c.AddText("Find us: linkedin.com/company/acme-co and github.com/acme", 1, deck.URLFromText)

	got := map[string]bool{}
	for _, u := range c.URLs() {
		got[u.Raw] = u.WellFormed
	}
	for _, want := range []string{"https://linkedin.com/company/acme-co", "https://github.com/acme"} {
		wf, ok := got[want]
		if !ok {
			t.Errorf("expected expanded mention %s, have %v", want, got)
			continue
		}
		if !wf {
			t.Errorf("expanded mention %s should be well-formed", want)
		}
	}
}

func TestCollectorSocialMentions(t *testing.T) {
	c := NewCollector()
	c.AddText("Follow us: facebook.com/acmeco, instagram.com/acme.co and youtube.com/c/AcmeRobotics", 2, deck.URLFromText)

	got := map[string]bool{}
	for _, u := range c.URLs() {
		got[u.Raw] = u.WellFormed
	}
	for _, want := range []string{
		"https://facebook.com/acmeco",
		"https://instagram.com/acme.co",
		"https://youtube.com/c/acmerobotics",
	} {
		wf, ok := got[want]
		if !ok {
			t.Errorf("expected expanded mention %s, have %v", want, got)
			continue
		}
		if !wf {
			t.Errorf("expanded mention %s should be well-formed", want)
		}
	}
}

func TestCollectorWebsiteMentions(t *testing.T) {
	t.Run("BareDomain", func(t *testing.T) {
		c := NewCollector()
		c.AddText("Visit acme.io today or www.acmerobotics.com", 1, deck.URLFromText)
		got := map[string]int{}
		for _, u := range c.URLs() {
			got[u.Raw] = u.PageOrdinal
		}
		for _, want := range []string{"https://acme.io", "https://acmerobotics.com"} {
			if _, ok := got[want]; !ok {
				t.Errorf("expected website mention %s, have %v", want, got)
			}
		}
	})

	t.Run("EmailHostNotAWebsite", func(t *testing.T) {
		c := NewCollector()
		c.AddText("contact founders@acme.io", 1, deck.URLFromText)
		if urls := c.URLs(); len(urls) != 0 {
			t.Errorf("email host leaked as website mention: %v", urls)
		}
	})

	t.Run("SchemedURLNotDoubled", func(t *testing.T) {
		c := NewCollector()
		c.AddText("see https://acme.io/about", 1, deck.URLFromText)
		urls := c.URLs()
		if len(urls) != 1 || urls[0].Raw != "https://acme.io/about" {
			t.Errorf("expected only the full url, got %v", urls)
		}
	})

	t.Run("PlatformRootSkipped", func(t *testing.T) {
		c := NewCollector()
		c.AddText("on linkedin.com/company/acme", 1, deck.URLFromText)
		for _, u := range c.URLs() {
			if u.Raw == "https://linkedin.com" {
				t.Errorf("platform root emitted alongside handle mention: %v", c.URLs())
			}
		}
	})
}

func TestCollectorTrailingPunctuation(t *testing.T) {
	c := NewCollector()
	c.AddText("See https://example.com/page.", 1, deck.URLFromText)
	urls := c.URLs()
	if len(urls) != 1 || urls[0].Raw != "https://example.com/page" {
		t.Fatalf("trailing punctuation not trimmed: %v", urls)
	}
}

func TestCollectorEmails(t *testing.T) {
	c := NewCollector()
	c.AddText("contact founders@acme.io or press@acme.io, or founders@acme.io again", 1, deck.URLFromText)
	emails := c.Emails()
	if len(emails) != 2 {
		t.Fatalf("expected 2 deduped emails, got %v", emails)
	}
	if emails[0] != "founders@acme.io" || emails[1] != "press@acme.io" {
		t.Errorf("unexpected email order: %v", emails)
	}
}

func TestAddCandidate(t *testing.T) {
	c := NewCollector()
	c.AddCandidate("https://charts.example.com/roadmap", 4, deck.URLFromImage)
	c.AddCandidate("ceo@acme.io", 4, deck.URLFromImage)
	c.AddCandidate("   ", 4, deck.URLFromImage)

	urls := c.URLs()
	if len(urls) != 1 {
		t.Fatalf("expected 1 url, got %v", urls)
	}
	if urls[0].Source != deck.URLFromImage || !urls[0].WellFormed {
		t.Errorf("unexpected url entry: %+v", urls[0])
	}
	if emails := c.Emails(); len(emails) != 1 || emails[0] != "ceo@acme.io" {
		t.Errorf("email candidate not routed: %v", emails)
	}
}
