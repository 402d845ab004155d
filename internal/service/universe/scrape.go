package universe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"MomentumScan/internal/domain/models"
)

// naver scrapes the market-cap ranking. sosok selects the board: 0 KOSPI, 1 KOSDAQ.
func (s *Source) naver(ctx context.Context, sosok int, suffix string) ([]models.Symbol, error) {
	body, err := s.get(ctx, s.naverURL, map[string][]string{"sosok": {strconv.Itoa(sosok)}})
	if err != nil {
		return nil, err
	}
	return parseNaver(body, suffix, s.limit)
}

func parseNaver(body []byte, suffix string, limit int) ([]models.Symbol, error) {
	doc, err := goquery.NewDocumentFromReader(naverHTML(body))
	if err != nil {
		return nil, fmt.Errorf("parse naver html: %w", err)
	}

	var out []models.Symbol
	doc.Find("table.type_2 tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		cells := row.Find("td")
		if cells.Length() < 2 {
			return true // spacer rows
		}
		link := cells.Eq(1).Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		code := naverCode(href)
		if code == "" {
			return true
		}
		out = append(out, models.Symbol{Code: code + suffix, Name: strings.TrimSpace(link.Text())})
		return true
	})
	return out, nil
}

// naverHTML decodes the listing to UTF-8. Naver serves EUC-KR; a charset meta tag
// wins when present, otherwise non-UTF-8 input is read as EUC-KR.
func naverHTML(body []byte) io.Reader {
	if utf8.Valid(body) {
		return bytes.NewReader(body)
	}
	enc, name, _ := charset.DetermineEncoding(body, "")
	if name == "windows-1252" {
		enc = korean.EUCKR
	}
	return transform.NewReader(bytes.NewReader(body), enc.NewDecoder())
}

func naverCode(href string) string {
	u, err := url.Parse(href)
	if err == nil {
		if c := u.Query().Get("code"); c != "" {
			return c
		}
	}
	if i := strings.LastIndex(href, "code="); i >= 0 {
		return strings.TrimSpace(href[i+len("code="):])
	}
	return ""
}

func (s *Source) wikipedia(ctx context.Context) ([]models.Symbol, error) {
	body, err := s.get(ctx, s.wikipediaURL, nil)
	if err != nil {
		return nil, err
	}
	return parseWikipedia(body, s.limit)
}

func parseWikipedia(body []byte, limit int) ([]models.Symbol, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse wikipedia html: %w", err)
	}
	table := doc.Find("table.wikitable.sortable").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("constituents table not found")
	}

	var out []models.Symbol
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		cells := row.Find("td")
		if cells.Length() == 0 {
			return true // header
		}
		code := strings.TrimSpace(cells.Eq(0).Text())
		if code == "" {
			return true
		}
		// Yahoo spells class shares with a dash: BRK.B -> BRK-B.
		code = strings.ReplaceAll(code, ".", "-")
		name := ""
		if cells.Length() > 1 {
			name = strings.TrimSpace(cells.Eq(1).Text())
		}
		out = append(out, models.Symbol{Code: code, Name: name})
		return true
	})
	return out, nil
}
