package money

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Baseline is the currency every amount is stored in server-side. Display
// paths convert away from it; nothing ever stores a converted value back.
const Baseline = "INR"

var ErrUnknownCurrency = fmt.Errorf("unknown currency")

// policy fixes symbol and fraction digits per currency so every screen
// formats money the same way.
type policy struct {
	Symbol   string
	Decimals int
}

var policies = map[string]policy{
	"INR": {"₹", 2},
	"USD": {"$", 2},
	"EUR": {"€", 2},
	"GBP": {"£", 2},
}

// fallbackRates are units per 1 USD, used until a refresh succeeds.
var fallbackRates = map[string]float64{
	"USD": 1,
	"INR": 83.20,
	"EUR": 0.92,
	"GBP": 0.79,
}

// Converter holds a rate table keyed by currency code, expressed as units per
// USD. Conversions pivot through USD.
type Converter struct {
	mu    sync.RWMutex
	rates map[string]float64
}

func NewConverter() *Converter {
	rates := make(map[string]float64, len(fallbackRates))
	for code, r := range fallbackRates {
		rates[code] = r
	}
	return &Converter{rates: rates}
}

// Convert routes amount from one currency to another through the USD pivot.
func (c *Converter) Convert(amount float64, from, to string) (float64, error) {
	if from == to {
		return amount, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	fromRate, ok := c.rates[from]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	toRate, ok := c.rates[to]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}
	return amount / fromRate * toRate, nil
}

// ToBaseline converts a displayed amount back to the stored currency.
func (c *Converter) ToBaseline(amount float64, from string) (float64, error) {
	return c.Convert(amount, from, Baseline)
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// Refresh replaces the rate table from a USD-based exchange rate endpoint.
// On any failure the current table stays in place.
func (c *Converter) Refresh(url string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("fetching rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching rates: status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding rates: %w", err)
	}
	if body.Rates["USD"] == 0 || body.Rates[Baseline] == 0 {
		return fmt.Errorf("rates response missing USD or %s", Baseline)
	}

	c.mu.Lock()
	c.rates = body.Rates
	c.mu.Unlock()
	return nil
}

// Format renders an amount in a currency with its policy symbol, fraction
// digits, and English-locale grouping.
func Format(amount float64, code string) string {
	p, ok := policies[code]
	if !ok {
		p = policy{code + " ", 2}
	}
	return p.Symbol + printer.Sprintf("%v", number.Decimal(amount, number.Scale(p.Decimals)))
}

// Symbol returns the display symbol for a currency code.
func Symbol(code string) string {
	if p, ok := policies[code]; ok {
		return p.Symbol
	}
	return code + " "
}

var printer = message.NewPrinter(language.English)
