package curation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/curation-kr/pipeline/app/database"
	"github.com/curation-kr/pipeline/app/filestore"
)

const minArticleURLLength = 20

// trackingParams are stripped from extracted URLs before dedup so the same
// article reached through different campaigns collapses to one link.
var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true,
	"ref": true, "referer": true, "referrer": true,
	"fbclid": true, "gclid": true, "mc_cid": true, "mc_eid": true,
	"_ga": true, "_gl": true, "_hsenc": true, "_hsmi": true,
	"source": true, "campaign": true, "medium": true,
}

// excludedDomains are hosts that never carry extractable articles: social
// networks, newsletter-platform navigation, profile-style links.
var excludedDomains = []string{
	"twitter.com", "x.com",
	"facebook.com", "fb.com",
	"linkedin.com",
	"instagram.com",
	"youtube.com", "youtu.be",
	"tiktok.com",
	"github.com",
	"medium.com",
	"substack.com",
	"beehiiv.com",
}

var nonArticleURLPatterns = []string{
	"unsubscribe", "subscribe", "signup", "login", "register",
	"contact", "about", "privacy", "terms", "policy",
	"support", "help", "faq",
	"mailto:", "tel:", "sms:",
	"#", "javascript:", "void(",
	"/tag/", "/category/", "/archive/",
	".pdf", ".doc", ".zip", ".exe",
}

var nonArticleTitles = []string{
	"unsubscribe", "subscribe", "follow", "share",
	"twitter", "facebook", "linkedin", "social",
	"download", "pdf", "home", "back to",
	"click here", "learn more", "read more",
	"view in browser", "forward to friend",
}

type extractedLink struct {
	URL   string
	Title string
}

// ExtractResult aggregates one digest item's fan-out. Created can be lower
// than Extracted when links already existed in the store.
type ExtractResult struct {
	Extracted    int
	Created      int
	CreatedItems []string
	Errors       []string
}

// NewsletterExtractor fans a crawled digest item out into one child item
// per linked article, so the regular crawl/analyze/translate stages pick
// the children up individually.
type NewsletterExtractor struct {
	feedRepo database.FeedRepository
	itemRepo database.ItemRepository
	store    *filestore.Store
}

func NewNewsletterExtractor(feedRepo database.FeedRepository, itemRepo database.ItemRepository, store *filestore.Store) *NewsletterExtractor {
	return &NewsletterExtractor{
		feedRepo: feedRepo,
		itemRepo: itemRepo,
		store:    store,
	}
}

func (e *NewsletterExtractor) Extract(item *database.Item) (*ExtractResult, error) {
	feed, err := e.feedRepo.GetFeed(item.FeedID)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}
	if !feed.Digest {
		return nil, &ValidationError{Msg: "item is not from a digest feed"}
	}
	if item.CrawledPath == "" {
		return nil, &ValidationError{Msg: "item has no crawled body"}
	}

	body, err := e.store.Read(item.CrawledPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read crawled body: %w", err)
	}

	links, err := extractArticleLinks(body, item.Link)
	if err != nil {
		return nil, err
	}

	result := &ExtractResult{Extracted: len(links)}

	for _, link := range links {
		exists, err := e.itemRepo.ExistsByLink(link.URL)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", link.URL, err))
			continue
		}
		if exists {
			continue
		}

		parentID := item.ID
		id, err := e.itemRepo.CreateItem(database.NewItem{
			FeedID:       item.FeedID,
			GUID:         childGUID(item.ID, link.URL),
			Link:         link.URL,
			Title:        truncateRunes(link.Title, 500),
			Description:  "Extracted from newsletter: " + item.Title,
			Author:       item.Author,
			Category:     item.Category,
			PublishedAt:  item.PublishedAt,
			ParentItemID: &parentID,
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", link.URL, err))
			continue
		}

		result.Created++
		result.CreatedItems = append(result.CreatedItems, id)
	}

	slog.Info("Newsletter links extracted", "item", item.ID, "extracted", result.Extracted, "created", result.Created, "errors", len(result.Errors))

	return result, nil
}

// childGUID derives a stable synthetic GUID for an extracted link. The
// URL hash keeps it unique across digests that link the same article.
func childGUID(parentID, link string) string {
	sum := sha256.Sum256([]byte(link))
	return fmt.Sprintf("newsletter-%s-%s", parentID, hex.EncodeToString(sum[:])[:12])
}

// extractArticleLinks pulls article candidates out of a digest body,
// normalized and deduplicated within the batch.
func extractArticleLinks(content, baseURL string) ([]extractedLink, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse newsletter body: %w", err)
	}

	seen := make(map[string]bool)
	var links []extractedLink

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		title := strings.TrimSpace(sel.Text())

		normalized := normalizeURL(strings.TrimSpace(href), baseURL)
		if normalized == "" || seen[normalized] {
			return
		}
		if !isArticleLink(normalized, title) {
			return
		}

		seen[normalized] = true
		if title == "" {
			title = titleFromURL(normalized)
		}
		links = append(links, extractedLink{URL: normalized, Title: title})
	})

	return links, nil
}

// normalizeURL strips tracking parameters, resolves relative references
// against the digest item's own link, and rejects anything without a host
// or too short to be an article URL.
func normalizeURL(raw, baseURL string) string {
	if raw == "" {
		return ""
	}

	cleaned := stripTrackingParams(raw)

	if !strings.HasPrefix(cleaned, "http://") && !strings.HasPrefix(cleaned, "https://") {
		base, err := url.Parse(baseURL)
		if err != nil {
			return ""
		}
		ref, err := url.Parse(cleaned)
		if err != nil {
			return ""
		}
		cleaned = base.ResolveReference(ref).String()
	}

	if len(cleaned) < minArticleURLLength {
		return ""
	}

	parsed, err := url.Parse(cleaned)
	if err != nil || parsed.Host == "" {
		return ""
	}

	return cleaned
}

func stripTrackingParams(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	query := parsed.Query()
	for key := range query {
		if trackingParams[strings.ToLower(key)] {
			query.Del(key)
		}
	}
	parsed.RawQuery = query.Encode()

	return parsed.String()
}

// isArticleLink is the validity heuristic: domain blocklist, path-pattern
// blocklist, call-to-action link text, and a minimum path depth.
func isArticleLink(rawURL, title string) bool {
	lowered := strings.ToLower(rawURL)

	parsed, err := url.Parse(lowered)
	if err != nil {
		return false
	}

	for _, domain := range excludedDomains {
		if strings.Contains(parsed.Host, domain) {
			return false
		}
	}

	for _, pattern := range nonArticleURLPatterns {
		if strings.Contains(lowered, pattern) {
			return false
		}
	}

	if title != "" {
		loweredTitle := strings.ToLower(title)
		for _, bad := range nonArticleTitles {
			if strings.Contains(loweredTitle, bad) {
				return false
			}
		}
		if len(strings.TrimSpace(title)) < 5 {
			return false
		}
	}

	if parsed.Path == "" || parsed.Path == "/" || len(parsed.Path) < 3 {
		return false
	}

	return true
}

var (
	urlExtensionRe  = regexp.MustCompile(`(?i)\.(html?|php|asp|jsp)$`)
	nonAlphaNumRe   = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	multiSpaceVarRe = regexp.MustCompile(`\s+`)
)

// titleFromURL synthesizes a readable title from the last path segment
// when the anchor carried no text, falling back to the domain name.
func titleFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "Extracted Link"
	}

	path := strings.Trim(parsed.Path, "/")
	if path != "" {
		segments := strings.Split(path, "/")
		last := segments[len(segments)-1]

		title := strings.NewReplacer("-", " ", "_", " ").Replace(last)
		title = urlExtensionRe.ReplaceAllString(title, "")
		title = nonAlphaNumRe.ReplaceAllString(title, " ")
		title = strings.TrimSpace(multiSpaceVarRe.ReplaceAllString(title, " "))
		title = titleCase(title)

		if len(title) > 5 {
			return title
		}
	}

	return titleCase(strings.TrimPrefix(parsed.Host, "www."))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		r := []rune(word)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
