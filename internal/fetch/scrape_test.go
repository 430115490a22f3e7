package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchradar/ingest/internal/config"
)

func airdropTarget() config.ScrapeTarget {
	return config.ScrapeTarget{
		Source:  "airdrops.io",
		BaseURL: "https://airdrops.io/",
		Selectors: []string{
			".latest-airdrops .card",
			".card",
			"article",
		},
		LinkPattern: "/airdrop/",
	}
}

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParsePrimarySelector(t *testing.T) {
	t.Parallel()

	html := `
	<div class="latest-airdrops">
	  <div class="card">
	    <h3>Alpha Drop</h3>
	    <p>First description</p>
	    <a href="/airdrop/alpha/">Claim</a>
	    <span class="badge">Confirmed</span>
	  </div>
	  <div class="card">
	    <h3>Beta Drop</h3>
	    <p>Second description</p>
	    <a href="/airdrop/beta/">Claim</a>
	  </div>
	</div>`

	adapter := NewScrapeAdapter(airdropTarget(), nil)
	result := adapter.Parse(docFromHTML(t, html))

	assert.Equal(t, ".latest-airdrops .card", result.SelectorUsed)
	require.Len(t, result.Cards, 2)
	assert.Equal(t, "Alpha Drop", result.Cards[0].Title)
	assert.Equal(t, "https://airdrops.io/airdrop/alpha/", result.Cards[0].SourceURL)
	assert.Equal(t, "confirmed", result.Cards[0].Status)
	assert.Equal(t, "", result.Cards[1].Status)
}

func TestParseSelectorFallbackChain(t *testing.T) {
	t.Parallel()

	// .latest-airdrops .card matches nothing; the bare .card selector should
	// win and be reported.
	html := `
	<div class="listing">
	  <div class="card"><h3>One</h3><a href="/airdrop/one">x</a></div>
	  <div class="card"><h3>Two</h3><a href="/airdrop/two">x</a></div>
	  <div class="card"><h3>Three</h3><a href="/airdrop/three">x</a></div>
	</div>`

	adapter := NewScrapeAdapter(airdropTarget(), nil)
	result := adapter.Parse(docFromHTML(t, html))

	assert.Equal(t, ".card", result.SelectorUsed)
	assert.Len(t, result.Cards, 3)

	require.GreaterOrEqual(t, len(result.Attempts), 2)
	assert.Equal(t, ".latest-airdrops .card", result.Attempts[0].Selector)
	assert.Equal(t, 0, result.Attempts[0].Found)
	assert.Equal(t, 3, result.Attempts[1].Found)
}

func TestParseLinkPatternFallback(t *testing.T) {
	t.Parallel()

	html := `
	<ul>
	  <li><a href="/airdrop/gamma">Gamma Drop</a></li>
	  <li><a href="/airdrop/gamma">Gamma Drop duplicate</a></li>
	  <li><a href="/about">About us</a></li>
	</ul>`

	adapter := NewScrapeAdapter(airdropTarget(), nil)
	result := adapter.Parse(docFromHTML(t, html))

	assert.Equal(t, "fallback", result.SelectorUsed)
	require.Len(t, result.Cards, 1)
	assert.Equal(t, "Gamma Drop", result.Cards[0].Title)
	assert.Equal(t, "https://airdrops.io/airdrop/gamma", result.Cards[0].SourceURL)
}

func TestParseLogoExtraction(t *testing.T) {
	t.Parallel()

	html := `
	<div class="card">
	  <h3>Logo Drop</h3>
	  <img src="data:image/gif;base64,xyz" data-lazy-src="/img/logo.png">
	  <a href="/airdrop/logo">x</a>
	</div>`

	adapter := NewScrapeAdapter(airdropTarget(), nil)
	result := adapter.Parse(docFromHTML(t, html))

	require.Len(t, result.Cards, 1)
	assert.Equal(t, "https://airdrops.io/img/logo.png", result.Cards[0].Logo)
}

func TestFetchAllMirrorsFail(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	target := airdropTarget()
	target.URLs = []string{srv.URL + "/a", srv.URL + "/b"}

	adapter := NewScrapeAdapter(target, srv.Client())
	_, err := adapter.Fetch(context.Background())

	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Len(t, unreachable.Attempts, 2)
}

func TestFetchFirstMirrorWins(t *testing.T) {
	t.Parallel()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div class="card"><h3>Mirror Drop</h3><a href="/airdrop/m">x</a></div>`))
	}))
	defer good.Close()

	target := airdropTarget()
	target.URLs = []string{bad.URL, good.URL}

	adapter := NewScrapeAdapter(target, nil)
	result, err := adapter.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Cards, 1)
	assert.Equal(t, "Mirror Drop", result.Cards[0].Title)
}
