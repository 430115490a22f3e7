package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b c", Text("  a\n\tb   c  "))
	assert.Equal(t, "", Text("   \n "))
}

func TestStripHTML(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hello world", StripHTML("<p>Hello <b>world</b></p>"))
	assert.Equal(t, `Tom & "Jerry"`, StripHTML("Tom &amp; &quot;Jerry&quot;"))
	// Escaped markup is content, not structure.
	assert.Equal(t, "<b>bold</b>", StripHTML("&lt;b&gt;bold&lt;/b&gt;"))
	assert.Equal(t, "5 < 10", StripHTML("<p>5 &lt; 10</p>"))
}

func TestCanonicalLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips tracking params", "https://example.com/post?utm_source=rss&utm_medium=feed", "https://example.com/post"},
		{"strips fragment", "https://example.com/post#comments", "https://example.com/post"},
		{"strips trailing slash", "https://example.com/post/", "https://example.com/post"},
		{"keeps real params", "https://example.com/post?id=7", "https://example.com/post?id=7"},
		{"empty input", "   ", ""},
		{"relative fallback", "not a url/", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalLink(tt.in))
		})
	}
}

func TestCanonicalLinkIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://example.com/a/?utm_source=x&ref=y#frag",
		"https://example.com/b?id=3&utm_campaign=z",
		"https://example.com/",
		"plain-text",
	}

	for _, in := range inputs {
		once := CanonicalLink(in)
		assert.Equal(t, once, CanonicalLink(once), "canonicalization must be idempotent for %q", in)
	}
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://airdrops.io/airdrop/foo", ResolveURL("https://airdrops.io/", "/airdrop/foo"))
	assert.Equal(t, "https://other.io/x", ResolveURL("https://airdrops.io/", "https://other.io/x"))
	assert.Equal(t, "", ResolveURL("https://airdrops.io/", ""))
}
