package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout — таймаут live-запроса курса по умолчанию.
const DefaultTimeout = 5 * time.Second

// Ошибки live-запроса.
var (
	// ErrLookup — запрос курса завершился ошибкой.
	ErrLookup = errors.New("rate lookup failed")

	// ErrRateNotFound — ответ не содержит курса ни под одним из известных ключей.
	ErrRateNotFound = errors.New("rate not found in response")

	// ErrInvalidRate — курс не положительный.
	ErrInvalidRate = errors.New("invalid rate")
)

// rateKeys — ключи, под которыми API может вернуть курс, в порядке приоритета.
// Путь через точку означает вложенный объект.
var rateKeys = []string{
	"result",
	"info.rate",
	"rate",
	"conversion_rate",
	"exchange_rate",
}

// Client — клиент live API курсов валют.
//
// Запрос: GET {base}/{key}/convert?amount=1&from=USD&to=EUR
// Курс ищется в ответе под ключами rateKeys.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// ClientConfig — конфигурация Client.
type ClientConfig struct {
	// BaseURL — базовый URL API (обязательно).
	BaseURL string

	// APIKey — ключ API, подставляется в путь. Может быть пустым.
	APIKey string

	// Timeout — таймаут HTTP-запроса (default: 5s).
	Timeout time.Duration

	// Logger
	Logger *slog.Logger
}

// NewClient создаёт новый Client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Rate возвращает курс from → to.
func (c *Client) Rate(ctx context.Context, from, to string) (float64, error) {
	if c.baseURL == "" {
		return 0, fmt.Errorf("%w: base url is not configured", ErrLookup)
	}

	endpoint := c.baseURL
	if c.apiKey != "" {
		endpoint += "/" + url.PathEscape(c.apiKey)
	}
	endpoint += "/convert?" + url.Values{
		"amount": {"1"},
		"from":   {from},
		"to":     {to},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: create request: %v", ErrLookup, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "saga-currency-service/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLookup, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("%w: read response: %v", ErrLookup, err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: HTTP %d: %s", ErrLookup, resp.StatusCode, truncate(string(body), 200))
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return 0, fmt.Errorf("%w: parse response: %v", ErrLookup, err)
	}

	rate, err := ExtractRate(data)
	if err != nil {
		c.logger.Warn("unexpected rate response",
			"from", from,
			"to", to,
			"keys", topKeys(data),
		)
		return 0, err
	}

	c.logger.Debug("live rate retrieved", "from", from, "to", to, "rate", rate)
	return rate, nil
}

// ExtractRate ищет курс в ответе API, проверяя ключи в фиксированном порядке.
// Первый найденный ключ выигрывает, даже если значение некорректно.
func ExtractRate(data map[string]any) (float64, error) {
	for _, key := range rateKeys {
		val, ok := lookup(data, key)
		if !ok || val == nil {
			continue
		}

		rate, err := toFloat(val)
		if err != nil {
			return 0, fmt.Errorf("%w: key %q: %v", ErrInvalidRate, key, err)
		}
		if rate <= 0 {
			return 0, fmt.Errorf("%w: key %q: %v", ErrInvalidRate, key, rate)
		}
		return rate, nil
	}
	return 0, ErrRateNotFound
}

// lookup достаёт значение по пути вида "info.rate".
func lookup(data map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = data
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// toFloat приводит число или числовую строку к float64.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// topKeys возвращает ключи верхнего уровня для логирования.
func topKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	return keys
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
