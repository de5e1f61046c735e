// Package rates fetches reference foreign-exchange rates for international
// transfers. The feed is an RSS-style XML document of INR rates per currency;
// when it is unreachable the client falls back to a static table so the CLI
// keeps working offline.
package rates

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/fhic/bankcore/internal/config"
)

// fallbackRates are INR per unit of foreign currency, used when the feed is
// unavailable.
var fallbackRates = map[string]float64{
	"USD": 83.50,
	"EUR": 90.20,
	"GBP": 105.80,
	"AED": 22.70,
	"SGD": 61.90,
	"AUD": 55.10,
	"CAD": 61.30,
	"JPY": 0.56,
}

// Client retrieves FX reference rates
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger

	cached map[string]float64
}

// NewClient initializes a new rates client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.RatesURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Rate returns how many INR one unit of the given currency is worth. The
// live feed is fetched once and cached; on any failure the static table
// answers instead.
func (c *Client) Rate(currency string) (float64, error) {
	currency = strings.ToUpper(currency)

	if c.cached == nil {
		fetched, err := c.fetch()
		if err != nil {
			c.log.Warnf("Rates feed unavailable, using fallback table: %v", err)
			c.cached = fallbackRates
		} else {
			c.cached = fetched
		}
	}

	rate, ok := c.cached[currency]
	if !ok {
		rate, ok = fallbackRates[currency]
	}
	if !ok {
		return 0, fmt.Errorf("no rate available for currency %s", currency)
	}
	return rate, nil
}

// Convert turns an INR amount into the target currency.
func (c *Client) Convert(amountINR float64, currency string) (float64, float64, error) {
	rate, err := c.Rate(currency)
	if err != nil {
		return 0, 0, err
	}
	return amountINR / rate, rate, nil
}

func (c *Client) fetch() (map[string]float64, error) {
	req, err := http.NewRequest("GET", c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	return parseRatesXML(body)
}

// parseRatesXML extracts currency codes and exchange rates from the feed.
// Each item carries a targetCurrency and an exchangeRate element expressed as
// foreign units per INR, so the stored rate is the inverse.
func parseRatesXML(raw []byte) (map[string]float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %v", err)
	}

	items := doc.FindElements("//item")
	if len(items) == 0 {
		return nil, fmt.Errorf("no rate items found in XML")
	}

	out := map[string]float64{}
	for _, item := range items {
		code := item.FindElement("./targetCurrency")
		rate := item.FindElement("./exchangeRate")
		if code == nil || rate == nil {
			continue
		}
		perINR, err := strconv.ParseFloat(strings.TrimSpace(rate.Text()), 64)
		if err != nil || perINR <= 0 {
			continue
		}
		out[strings.ToUpper(strings.TrimSpace(code.Text()))] = 1 / perINR
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable rates in XML")
	}
	return out, nil
}
