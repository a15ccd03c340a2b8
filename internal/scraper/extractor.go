package scraper

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

// anchorPhrase marks text nodes carrying the current index value. If the
// source site rewords its pages, this is the first thing to fail.
const anchorPhrase = "Freightos Baltic Index"

var (
	// ErrRateNotFound signals that no plausible rate was present in the page.
	ErrRateNotFound = errors.New("scraper: rate not found in page")

	anchorTextQuery = fmt.Sprintf("//text()[contains(., '%s')]", anchorPhrase)

	dollarAmountRe = regexp.MustCompile(`\$\s*([0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]+)?|[0-9]+(?:\.[0-9]+)?)`)

	maxPlausibleRate = decimal.NewFromInt(50000)
)

// ExtractRate scans raw markup for the anchored index value and returns the
// first dollar amount found inside an anchored text node. Amounts outside
// (0, 50000) are rejected so an unrelated number elsewhere in the node
// cannot masquerade as a rate.
func ExtractRate(markup string) (decimal.Decimal, error) {
	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse markup: %w", err)
	}

	nodes, err := htmlquery.QueryAll(doc, anchorTextQuery)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("query anchored text nodes: %w", err)
	}

	for _, node := range nodes {
		rate, ok := matchDollarAmount(node)
		if ok {
			return rate, nil
		}
	}

	return decimal.Decimal{}, ErrRateNotFound
}

func matchDollarAmount(node *html.Node) (decimal.Decimal, bool) {
	match := dollarAmountRe.FindStringSubmatch(node.Data)
	if match == nil {
		return decimal.Decimal{}, false
	}

	rate, err := decimal.NewFromString(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return decimal.Decimal{}, false
	}
	if !plausibleRate(rate) {
		return decimal.Decimal{}, false
	}
	return rate, true
}

func plausibleRate(rate decimal.Decimal) bool {
	return rate.IsPositive() && rate.LessThan(maxPlausibleRate)
}
