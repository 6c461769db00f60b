package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/cxrbalance/internal/model"
)

// Service endpoints.
const (
	endpointHealth   = "/health"
	endpointTrain    = "/train"
	endpointValidate = "/validate"
	endpointPredict  = "/predict"
)

// maxErrorBody caps the response text kept in a StatusError.
const maxErrorBody = 512

// ErrUnhealthy is returned by Health when the service does not answer 200.
var ErrUnhealthy = errors.New("detector service unhealthy")

// Client implements Model over HTTP.
type Client struct {
	baseURL    string
	classes    model.ClassTable
	httpClient *http.Client
	timeout    time.Duration
	retry      RetryConfig
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds health, validate and predict requests.
// Training is bounded by the caller's context only.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetryConfig sets the retry policy.
func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithRetries sets the number of retries, keeping the default backoff.
func WithRetries(n int) ClientOption {
	return func(c *Client) {
		c.retry.MaxRetries = n
	}
}

// WithLogger sets the logger for retry messages.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the service at baseURL. The class table
// names the class ids returned by the service.
func NewClient(baseURL string, classes model.ClassTable, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		classes:    classes,
		httpClient: &http.Client{},
		retry:      DefaultRetryConfig(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health checks that the service is reachable. It does not retry.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpointHealth, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Train starts a training run and waits for its final metrics.
func (c *Client) Train(ctx context.Context, req TrainRequest) (model.Metrics, error) {
	var metrics model.Metrics
	body, err := c.postJSON(ctx, endpointTrain, req)
	if err != nil {
		return metrics, err
	}
	if err := json.Unmarshal(body, &metrics); err != nil {
		return metrics, fmt.Errorf("failed to decode train response: %w", err)
	}
	return metrics, nil
}

// Validate evaluates the model on a dataset split.
func (c *Client) Validate(ctx context.Context, req ValidateRequest) (model.Metrics, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var metrics model.Metrics
	body, err := c.postJSON(ctx, endpointValidate, req)
	if err != nil {
		return metrics, err
	}
	if err := json.Unmarshal(body, &metrics); err != nil {
		return metrics, fmt.Errorf("failed to decode validate response: %w", err)
	}
	return metrics, nil
}

// wireDetection is one detection as returned by /predict.
type wireDetection struct {
	ClassID    model.ClassID `json:"class_id"`
	Class      string        `json:"class"`
	Confidence float64       `json:"confidence"`
	BBox       []float64     `json:"bbox"`
}

type predictResponse struct {
	Detections []wireDetection `json:"detections"`
}

// Predict uploads one image and returns its detections.
func (c *Client) Predict(ctx context.Context, imagePath string, conf float64) ([]model.Detection, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	name := filepath.Base(imagePath)
	body, err := c.do(ctx, endpointPredict, func(ctx context.Context) (*http.Request, error) {
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, fmt.Errorf("copy image data: %w", err)
		}
		if err := mw.WriteField("conf", strconv.FormatFloat(conf, 'f', -1, 64)); err != nil {
			return nil, fmt.Errorf("write conf field: %w", err)
		}
		if err := mw.Close(); err != nil {
			return nil, fmt.Errorf("close multipart body: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointPredict, buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var resp predictResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode predict response: %w", err)
	}
	return c.toDetections(name, resp.Detections), nil
}

// toDetections names the detections and applies the normal fallback.
func (c *Client) toDetections(image string, wire []wireDetection) []model.Detection {
	if len(wire) == 0 {
		return []model.Detection{NormalDetection(image, c.classes)}
	}

	out := make([]model.Detection, 0, len(wire))
	for _, w := range wire {
		d := model.Detection{
			Image:      image,
			ClassID:    w.ClassID,
			Class:      w.Class,
			Confidence: w.Confidence,
		}
		if d.Class == "" {
			d.Class = c.classes.MustName(w.ClassID)
		}
		if len(w.BBox) == 4 {
			box := model.BoundingBox{w.BBox[0], w.BBox[1], w.BBox[2], w.BBox[3]}
			d.BBox = &box
		}
		out = append(out, d)
	}
	return out
}

// NormalDetection is the result reported for an image without findings.
func NormalDetection(image string, classes model.ClassTable) model.Detection {
	id, ok := classes.Lookup(model.ClassNormal)
	if !ok {
		id = -1
	}
	return model.Detection{
		Image:      image,
		ClassID:    id,
		Class:      model.ClassNormal,
		Confidence: 1.0,
	}
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", endpoint, err)
	}
	return c.do(ctx, endpoint, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

// do sends the request built by build, retrying with exponential backoff
// on transport errors and 5xx answers. build is called once per attempt.
func (c *Client) do(ctx context.Context, endpoint string, build func(context.Context) (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retry.delay(attempt - 1)
			c.logger.Warn("retrying detector request",
				"endpoint", endpoint,
				"attempt", attempt+1,
				"maxAttempts", c.retry.MaxRetries+1,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s request: %w", endpoint, err)
		}

		body, err := c.send(req, endpoint)
		if err == nil {
			return body, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("detector %s failed after %d attempts: %w", endpoint, c.retry.MaxRetries+1, lastErr)
}

func (c *Client) send(req *http.Request, endpoint string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(body))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: text}
	}
	return body, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
