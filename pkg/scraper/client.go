package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

var spielerIDPattern = regexp.MustCompile(`/spieler/(\d+)`)

// Profile is what a Transfermarkt player page yields
type Profile struct {
	TransfermarktID string
	Name            string
	Club            string
	Position        string
	MarketValue     string
	PhotoURL        string
}

// ExtractID returns the numeric Transfermarkt id from a bare id or a profile URL.
func ExtractID(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if m := spielerIDPattern.FindStringSubmatch(value); m != nil {
		return m[1], true
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return value, true
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://www.transfermarkt.com"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ProfileURL returns the profile page address for a Transfermarkt id
func (c *Client) ProfileURL(tmID string) string {
	return fmt.Sprintf("%s/player/profil/spieler/%s", c.baseURL, tmID)
}

// FetchProfile downloads and parses one player profile page.
func (c *Client) FetchProfile(ctx context.Context, idOrURL string) (*Profile, error) {
	tmID, ok := ExtractID(idOrURL)
	if !ok {
		return nil, newInvalidIDError(idOrURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ProfileURL(tmID), nil)
	if err != nil {
		return nil, newInvalidResponseError("failed to build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(resp.StatusCode)
	}

	profile, err := ParseProfile(resp.Body)
	if err != nil {
		return nil, err
	}
	profile.TransfermarktID = tmID
	return profile, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return newCancelledError(err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return newTimeoutError(err)
	}
	return newNetworkError(err)
}

// ParseProfile extracts player fields from a profile page. A page without a
// player name is rejected; the other fields are optional.
func ParseProfile(r io.Reader) (*Profile, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, newInvalidResponseError("failed to parse HTML", err)
	}

	header := doc.Find("h1.data-header__headline-wrapper").First()
	header.Find("span.data-header__shirt-number").Remove()
	name := collapseSpace(header.Text())
	if name == "" {
		return nil, newExtractionError("player name not found on page")
	}

	p := &Profile{
		Name:     name,
		Club:     collapseSpace(doc.Find("span.data-header__club a").First().Text()),
		PhotoURL: findPhoto(doc),
	}

	mv := doc.Find("a.data-header__market-value-wrapper").First()
	mv.Find("p").Remove()
	p.MarketValue = collapseSpace(mv.Text())

	doc.Find("li.data-header__label").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.HasPrefix(collapseSpace(s.Text()), "Position:") {
			p.Position = collapseSpace(s.Find("span.data-header__content").Text())
			return false
		}
		return true
	})

	return p, nil
}

// findPhoto looks for the large portrait in src, then in lazy-loaded data-src.
func findPhoto(doc *goquery.Document) string {
	var photo string
	for _, attr := range []string{"src", "data-src"} {
		doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, ok := s.Attr(attr)
			if ok && strings.Contains(v, "portrait/big") && strings.Contains(v, ".jpg") {
				photo, _, _ = strings.Cut(v, "?")
				return false
			}
			return true
		})
		if photo != "" {
			return photo
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
