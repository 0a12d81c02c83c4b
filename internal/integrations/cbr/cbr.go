package cbr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/finance-tracker/internal/config"
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// BaseCurrency is the currency every CBR rate is quoted in
const BaseCurrency = "RUB"

const cacheTTL = time.Hour

// CBRClient fetches daily reference exchange rates from the Central Bank of Russia
type CBRClient struct {
	url    string
	client *http.Client
	log    *logrus.Logger

	mu        sync.Mutex
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
}

// NewCBRClient initializes a new CBR client
func NewCBRClient(cfg *config.Config, log *logrus.Logger) *CBRClient {
	return &CBRClient{
		url: cfg.CBRURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// sendRequest downloads the daily rates document
func (c *CBRClient) sendRequest(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debugf("CBR XML response: %d bytes", len(body))
	return body, nil
}

// parseXMLResponse maps each currency code to its value in RUB for one unit
func parseXMLResponse(rawBody []byte) (map[string]decimal.Decimal, error) {
	doc := etree.NewDocument()
	// The feed is windows-1251; only ASCII fields are read
	doc.ReadSettings.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	valutes := doc.FindElements("//ValCurs/Valute")
	if len(valutes) == 0 {
		return nil, fmt.Errorf("no exchange rate data found in XML")
	}

	rates := map[string]decimal.Decimal{BaseCurrency: decimal.NewFromInt(1)}
	for _, v := range valutes {
		code := v.FindElement("./CharCode")
		nominal := v.FindElement("./Nominal")
		value := v.FindElement("./Value")
		if code == nil || nominal == nil || value == nil {
			return nil, fmt.Errorf("incomplete Valute element %q", v.SelectAttrValue("ID", ""))
		}

		n, err := decimal.NewFromString(strings.TrimSpace(nominal.Text()))
		if err != nil || !n.IsPositive() {
			return nil, fmt.Errorf("failed to parse nominal for %s: %q", code.Text(), nominal.Text())
		}
		// Values use a decimal comma
		val, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(value.Text()), ",", "."))
		if err != nil {
			return nil, fmt.Errorf("failed to parse rate for %s: %w", code.Text(), err)
		}
		rates[strings.TrimSpace(code.Text())] = val.Div(n)
	}
	return rates, nil
}

// GetRates returns RUB per unit for every published currency. Results are cached for an hour.
func (c *CBRClient) GetRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rates != nil && time.Since(c.fetchedAt) < cacheTTL {
		return c.rates, nil
	}

	body, err := c.sendRequest(ctx)
	if err != nil {
		return nil, err
	}
	rates, err := parseXMLResponse(body)
	if err != nil {
		return nil, err
	}

	c.rates, c.fetchedAt = rates, time.Now()
	c.log.Infof("Retrieved %d exchange rates from CBR", len(rates))
	return rates, nil
}

// Convert converts amount between two currencies through RUB, rounded to cents
func Convert(rates map[string]decimal.Decimal, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	fromRate, ok := rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("no exchange rate for %s", from)
	}
	toRate, ok := rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no exchange rate for %s", to)
	}
	return amount.Mul(fromRate).Div(toRate).Round(2), nil
}
