package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// StepResultResponse — результат одного шага из API.
type StepResultResponse struct {
	Step         string         `json:"step"`
	Success      bool           `json:"success"`
	Data         map[string]any `json:"data,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Attempt      int            `json:"attempt,omitempty"`
	Source       string         `json:"source,omitempty"`
	At           time.Time      `json:"at"`
}

// StepResults — результаты шагов в порядке выполнения.
//
// API отдаёт results объектом; порядок ключей значим, поэтому
// декодируем его потоково, а не через map.
type StepResults []StepResultResponse

// UnmarshalJSON сохраняет порядок ключей объекта.
func (s *StepResults) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("results: expected object, got %v", tok)
	}

	var out StepResults
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var r StepResultResponse
		if err := dec.Decode(&r); err != nil {
			return fmt.Errorf("results[%s]: %w", key, err)
		}
		if r.Step == "" {
			r.Step = key
		}
		out = append(out, r)
	}

	*s = out
	return nil
}

// ReportResponse — итоговый отчёт саги.
type ReportResponse struct {
	CustomerID      string   `json:"customer_id"`
	WorkflowType    string   `json:"workflow_type"`
	TotalAmount     float64  `json:"total_amount"`
	Currency        string   `json:"currency"`
	AttemptedSteps  int      `json:"attempted_steps"`
	SuccessfulSteps int      `json:"successful_steps"`
	CompletionRate  float64  `json:"completion_rate"`
	FailedSteps     []string `json:"failed_steps,omitempty"`
	OmittedSteps    []string `json:"omitted_steps,omitempty"`
}

// ExecutionResponse — прогон саги из API.
type ExecutionResponse struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	State         string          `json:"state"`
	Trail         []string        `json:"trail"`
	Results       StepResults     `json:"results"`
	Summary       *ReportResponse `json:"summary,omitempty"`
	WorkflowSteps []string        `json:"workflow_steps"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
	DurationMs    int64           `json:"duration_ms"`
}

// RetryResponse — результат повтора шага из API.
type RetryResponse struct {
	Step          string             `json:"step"`
	Success       bool               `json:"success"`
	Result        StepResultResponse `json:"result"`
	Channel       string             `json:"notification_channel"`
	Escalation    StepResultResponse `json:"notification_result"`
	WorkflowSteps []string           `json:"workflow_steps"`
}

// ServiceResponse — провайдер шага из API.
type ServiceResponse struct {
	Step        string `json:"step"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Policy      string `json:"failure_policy"`
	Calls       int64  `json:"calls"`
	Stateful    bool   `json:"stateful"`
	Retryable   bool   `json:"retryable"`
}

// ResetResponse — ответ на сброс счётчиков.
type ResetResponse struct {
	Status  string    `json:"status"`
	ResetAt time.Time `json:"reset_at"`
}

// --- Request types ---

// RetryStepRequest — повтор шага.
type RetryStepRequest struct {
	Step          string          `json:"step"`
	Channel       string          `json:"channel,omitempty"`
	Config        json.RawMessage `json:"config"`
	PriorAttempts int             `json:"prior_attempts,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Missing []string `json:"missing,omitempty"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул сервер.
type APIError struct {
	Status  int
	Code    string
	Message string
	Missing []string
}

func (e *APIError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: %s (missing: %v)", e.Code, e.Message, e.Missing)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для saga API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// --- Sagas ---

// ExecuteSaga запускает сагу с конфигурацией config (JSON WorkflowConfig).
func (c *Client) ExecuteSaga(config json.RawMessage) (*ExecutionResponse, error) {
	var exec ExecutionResponse
	err := c.post("/api/v1/sagas", config, &exec)
	return &exec, err
}

// RetryStep повторяет один шаг саги.
func (c *Client) RetryStep(req RetryStepRequest) (*RetryResponse, error) {
	var res RetryResponse
	err := c.post("/api/v1/sagas/retry", req, &res)
	return &res, err
}

// GetSaga возвращает сохранённый прогон.
func (c *Client) GetSaga(id string) (*ExecutionResponse, error) {
	var exec ExecutionResponse
	err := c.get("/api/v1/sagas/"+url.PathEscape(id), &exec)
	return &exec, err
}

// ListSagas возвращает историю прогонов клиента.
func (c *Client) ListSagas(customerID string, limit int) ([]ExecutionResponse, error) {
	params := url.Values{}
	params.Set("customer_id", customerID)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var execs []ExecutionResponse
	err := c.list("/api/v1/sagas", params, &execs)
	return execs, err
}

// --- Services ---

// ListServices возвращает провайдеры шагов.
func (c *Client) ListServices() ([]ServiceResponse, error) {
	var services []ServiceResponse
	err := c.list("/api/v1/services", nil, &services)
	return services, err
}

// ResetServices сбрасывает счётчики и квоту оплаты.
func (c *Client) ResetServices() (*ResetResponse, error) {
	var res ResetResponse
	err := c.post("/api/v1/services/reset", nil, &res)
	return &res, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	switch b := body.(type) {
	case nil:
	case json.RawMessage:
		bodyReader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return &APIError{
		Status:  resp.StatusCode,
		Code:    er.Error.Code,
		Message: er.Error.Message,
		Missing: er.Error.Missing,
	}
}
