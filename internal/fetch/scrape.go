package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"launchradar/ingest/internal/config"
	"launchradar/ingest/internal/normalize"
)

const scrapeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0 Safari/537.36"

// ScrapedCard is one parsed listing card.
type ScrapedCard struct {
	Title       string
	Description string
	SourceURL   string
	Logo        string
	Status      string // confirmed | hot | updated | ""
}

// SelectorAttempt records how many nodes a selector matched, kept as
// diagnostic context when markup drifts.
type SelectorAttempt struct {
	Selector string `json:"selector"`
	Found    int    `json:"found"`
}

// ScrapeResult is the parse outcome for one document.
type ScrapeResult struct {
	Cards        []ScrapedCard
	SelectorUsed string
	Attempts     []SelectorAttempt
}

// URLAttempt is one failed mirror fetch.
type URLAttempt struct {
	URL string `json:"url"`
	Err string `json:"error"`
}

// UnreachableError aggregates per-mirror failures; it is raised only when
// every configured URL failed.
type UnreachableError struct {
	Source   string
	Attempts []URLAttempt
}

func (e *UnreachableError) Error() string {
	msgs := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		msgs = append(msgs, a.Err)
	}
	return fmt.Sprintf("%s unreachable after %d attempts: %s", e.Source, len(e.Attempts), strings.Join(msgs, "; "))
}

// ScrapeAdapter fetches and parses listing pages with an ordered selector
// chain and a link-pattern fallback.
type ScrapeAdapter struct {
	target config.ScrapeTarget
	client *http.Client
}

// NewScrapeAdapter wires an HTTP client for the given target.
func NewScrapeAdapter(target config.ScrapeTarget, client *http.Client) *ScrapeAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ScrapeAdapter{target: target, client: client}
}

// Fetch retrieves the page from the first reachable mirror and parses it.
func (s *ScrapeAdapter) Fetch(ctx context.Context) (ScrapeResult, error) {
	doc, err := s.fetchDocument(ctx)
	if err != nil {
		return ScrapeResult{}, err
	}
	return s.Parse(doc), nil
}

// fetchDocument tries each mirror URL in order, accumulating failures; only
// when every mirror fails is the aggregated unreachable error returned.
func (s *ScrapeAdapter) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	var attempts []URLAttempt

	for _, u := range s.target.URLs {
		doc, err := s.fetchOne(ctx, u)
		if err == nil {
			return doc, nil
		}
		attempts = append(attempts, URLAttempt{URL: u, Err: err.Error()})
		log.Warn().Err(err).Str("url", u).Str("source", s.target.Source).Msg("Scrape mirror failed")
	}

	return nil, &UnreachableError{Source: s.target.Source, Attempts: attempts}
}

func (s *ScrapeAdapter) fetchOne(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", scrapeUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// Parse tries the structural selectors in order, stopping at the first one
// that yields at least one parsed card. If all structural selectors come up
// empty it falls back to scanning anchors matching the link pattern.
func (s *ScrapeAdapter) Parse(doc *goquery.Document) ScrapeResult {
	result := ScrapeResult{}
	seen := make(map[string]struct{})

	for _, selector := range s.target.Selectors {
		nodes := doc.Find(selector)
		result.Attempts = append(result.Attempts, SelectorAttempt{Selector: selector, Found: nodes.Length()})
		if nodes.Length() == 0 {
			continue
		}

		var batch []ScrapedCard
		nodes.Each(func(_ int, sel *goquery.Selection) {
			card, ok := s.extractCard(sel)
			if !ok {
				return
			}
			if _, dup := seen[card.SourceURL]; dup {
				return
			}
			seen[card.SourceURL] = struct{}{}
			batch = append(batch, card)
		})

		if len(batch) > 0 {
			result.SelectorUsed = selector
			result.Cards = batch
			return result
		}
	}

	// Selector drift: derive cards from direct listing links instead.
	log.Error().
		Str("source", s.target.Source).
		Interface("attempts", result.Attempts).
		Msg("Card selectors returned 0 parsed items, using link-pattern fallback")

	pattern := fmt.Sprintf("a[href*=%q]", s.target.LinkPattern)
	doc.Find(pattern).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		sourceURL := normalize.ResolveURL(s.target.BaseURL, href)
		if sourceURL == "" {
			return
		}
		if _, dup := seen[sourceURL]; dup {
			return
		}

		title := normalize.Text(sel.Text())
		if title == "" {
			title, _ = sel.Attr("title")
			title = normalize.Text(title)
		}
		if title == "" {
			return
		}

		seen[sourceURL] = struct{}{}
		result.Cards = append(result.Cards, ScrapedCard{Title: title, SourceURL: sourceURL})
	})
	result.SelectorUsed = "fallback"
	return result
}

func (s *ScrapeAdapter) extractCard(sel *goquery.Selection) (ScrapedCard, bool) {
	title := normalize.Text(sel.Find("h1, h2, h3, h4, .card-title, .entry-title, .title").First().Text())
	if title == "" {
		title = normalize.Text(sel.Find("[title]").First().AttrOr("title", ""))
	}

	href := sel.Find(fmt.Sprintf("a[href*=%q]", s.target.LinkPattern)).First().AttrOr("href", "")
	if href == "" {
		href = sel.Find("a").First().AttrOr("href", "")
	}
	sourceURL := normalize.ResolveURL(s.target.BaseURL, href)

	if title == "" || sourceURL == "" {
		return ScrapedCard{}, false
	}

	return ScrapedCard{
		Title:       title,
		Description: normalize.Text(sel.Find("p, .description, .excerpt, .summary, .card-text").First().Text()),
		SourceURL:   sourceURL,
		Logo:        s.extractLogo(sel),
		Status:      extractStatus(sel),
	}, true
}

// extractLogo pulls the first usable image URL, preferring lazy-load
// attributes and srcset entries and skipping inline data placeholders.
func (s *ScrapeAdapter) extractLogo(sel *goquery.Selection) string {
	img := sel.Find("img").First()
	if img.Length() == 0 {
		return ""
	}

	var candidates []string
	for _, attr := range []string{"data-srcset", "data-lazy-srcset", "srcset"} {
		candidates = append(candidates, parseSrcset(img.AttrOr(attr, ""))...)
	}
	for _, attr := range []string{"data-src", "data-lazy-src", "data-original", "src"} {
		if v := normalize.Text(img.AttrOr(attr, "")); v != "" {
			candidates = append(candidates, v)
		}
	}

	for _, candidate := range candidates {
		if strings.HasPrefix(strings.ToLower(candidate), "data:image") {
			continue
		}
		if resolved := normalize.ResolveURL(s.target.BaseURL, candidate); resolved != "" {
			return resolved
		}
	}
	return ""
}

func parseSrcset(value string) []string {
	value = normalize.Text(value)
	if value == "" {
		return nil
	}

	var urls []string
	for _, chunk := range strings.Split(value, ",") {
		fields := strings.Fields(chunk)
		if len(fields) > 0 {
			urls = append(urls, fields[0])
		}
	}
	return urls
}

var statusLabels = []string{"confirmed", "updated", "hot"}

// extractStatus scans badge-like nodes, then card-level attributes and text,
// for a known status label.
func extractStatus(sel *goquery.Selection) string {
	var signals []string
	sel.Find(".label, .badge, .status, .tag, .ribbon, .chip").Each(func(_ int, node *goquery.Selection) {
		signals = append(signals,
			node.Text(),
			node.AttrOr("class", ""),
			node.AttrOr("data-status", ""),
			node.AttrOr("title", ""),
		)
	})
	signals = append(signals, sel.AttrOr("class", ""), sel.AttrOr("data-status", ""), sel.Text())

	for _, signal := range signals {
		text := strings.ToLower(normalize.Text(signal))
		if text == "" {
			continue
		}
		for _, label := range statusLabels {
			if text == label || strings.Contains(text, label) {
				return label
			}
		}
	}
	return ""
}
