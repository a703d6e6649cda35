package iri

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"railpulse/internal/db"

	"github.com/PuerkitoBio/goquery"
	"github.com/imroc/req/v3"
	"golang.org/x/time/rate"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"

var (
	trainHeaderRe = regexp.MustCompile(`^(\d+)`)
	platformsRe   = regexp.MustCompile(`\s*\(\d+ PFs?\)\s*$`)
)

// Client scrapes indiarailinfo timetable pages for the stations a train calls at.
type Client struct {
	limiter *rate.Limiter
	http    *req.Client
}

func NewClient(limiter *rate.Limiter, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	// Single persistent client (cookies, headers, TLS fingerprint stay consistent)
	return &Client{
		limiter: limiter,
		http: req.C().
			SetTimeout(timeout).
			SetCommonHeaders(map[string]string{
				"Accept":          "text/html",
				"Accept-Language": "en-US,en;q=0.9",
				"Cache-Control":   "no-cache",
				"Pragma":          "no-cache",
				"User-Agent":      browserUA,
			}),
	}
}

// TimetablePage is what one train's timetable contributes to the directory.
type TimetablePage struct {
	TrainNo   string
	TrainName string
	Stations  []db.Station
}

// TimetableURL maps a train page (https://host/train/<id>) onto its full timetable page.
func TimetableURL(targetURL string) (string, error) {
	if !strings.HasPrefix(targetURL, "http://") && !strings.HasPrefix(targetURL, "https://") {
		return "", fmt.Errorf("targetURL must start with http:// or https://: %s", targetURL)
	}
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return "", fmt.Errorf("invalid targetURL: %w", err)
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "train" {
		return "", fmt.Errorf("unexpected targetURL path (should be /train/number): %s", parsed.Path)
	}
	identifier := parts[len(parts)-1]
	return fmt.Sprintf("%s://%s/train/timetable/all/%s", parsed.Scheme, parsed.Host, identifier), nil
}

func (c *Client) FetchTimetable(ctx context.Context, targetURL string) (*TimetablePage, error) {
	timetableURL, err := TimetableURL(targetURL)
	if err != nil {
		return nil, err
	}

	// Rate limiting
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.http.R().SetContext(ctx).Get(timetableURL)
	if err != nil {
		return nil, fmt.Errorf("timetable request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timetable unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("timetable html parse failed: %w", err)
	}
	return ParseTimetable(doc)
}

// ParseTimetable reads the train header and the schedule grid.
func ParseTimetable(doc *goquery.Document) (*TimetablePage, error) {
	page := &TimetablePage{}

	// "12615 / Grand Trunk Express (...)" in the first nested div of the h1
	divText := doc.Find("h1").First().
		Children().First().
		Children().First().
		Children().First().
		Text()
	if no, name, ok := strings.Cut(divText, "/"); ok {
		no = strings.TrimSpace(no)
		// "12615⇒12616" style headers keep the first number
		if before, _, found := strings.Cut(no, "⇒"); found {
			no = strings.TrimSpace(before)
		}
		if m := trainHeaderRe.FindStringSubmatch(no); len(m) > 1 {
			page.TrainNo = m[1]
		}
		name = strings.TrimSpace(name)
		if idx := strings.Index(name, "("); idx > 0 {
			name = strings.TrimSpace(name[:idx])
		}
		page.TrainName = name
	}
	if page.TrainNo == "" || page.TrainName == "" {
		return nil, fmt.Errorf("insufficient train data: trainNo=%q, trainName=%q", page.TrainNo, page.TrainName)
	}

	seen := map[string]bool{}
	doc.Find("div.newschtable").Children().Each(func(_ int, row *goquery.Selection) {
		cols := row.Children()
		colCount := cols.Length()
		if colCount < 14 {
			return
		}

		colVals := make([]string, colCount)
		cols.Each(func(j int, col *goquery.Selection) {
			colVals[j] = strings.TrimSpace(col.Text())
		})

		// Skip header
		if colVals[2] == "Code" {
			return
		}
		code := strings.ToUpper(colVals[2])
		if code == "" || seen[code] {
			return
		}
		seen[code] = true

		st := db.Station{
			Code:    code,
			Name:    colVals[3],
			Aliases: db.StringList{},
		}
		if colCount > 16 {
			st.Zone = colVals[16]
		}
		if colCount > 17 {
			st.Address = colVals[17]
		}

		// tooltip first line looks like "SDAH/Sealdah (21 PFs)"
		link := cols.Eq(2).Find("a")
		title, ok := link.Attr("title1")
		if !ok {
			title, _ = link.Attr("title")
		}
		if alias := aliasFromTitle(title, code); alias != "" && !strings.EqualFold(alias, st.Name) {
			st.Aliases = append(st.Aliases, alias)
		}
		page.Stations = append(page.Stations, st)
	})

	if len(page.Stations) < 2 {
		return nil, fmt.Errorf("insufficient route data: stations=%d", len(page.Stations))
	}
	return page, nil
}

func aliasFromTitle(title, code string) string {
	if title == "" {
		return ""
	}
	first, _, _ := strings.Cut(title, "<br />")
	first = platformsRe.ReplaceAllString(strings.TrimSpace(first), "")
	if prefix, name, ok := strings.Cut(first, "/"); ok && strings.EqualFold(strings.TrimSpace(prefix), code) {
		return strings.TrimSpace(name)
	}
	return ""
}
