package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"uni-wizard/internal/domain"
)

// ErrUnexpectedStatus se devuelve cuando el servicio responde con un status no exitoso.
var ErrUnexpectedStatus = errors.New("scoring service unexpected status")

// ErrResponseTooLarge se devuelve cuando el cuerpo supera MaxResponseBytes.
var ErrResponseTooLarge = errors.New("scoring service response too large")

// MaxResponseBytes acota lo que se lee de una respuesta del servicio.
const MaxResponseBytes = 4 << 20

// Client define las dos operaciones que se consumen del servicio de recomendaciones.
type Client interface {
	ListClusters(ctx context.Context, countryCode string) ([]domain.ClusterOption, error)
	Recommend(ctx context.Context, req RecommendRequest) (RecommendResponse, error)
}

// RecommendRequest es el cuerpo de POST /recommend.
type RecommendRequest struct {
	Name              string   `json:"name"`
	CountryCode       string   `json:"country_code"`
	CGPA              float64  `json:"cgpa"`
	BacklogsCount     int      `json:"backlogs_count"`
	EnglishProofType  string   `json:"english_proof_type"`
	EnglishScore      float64  `json:"english_score"`
	BudgetLakhs       float64  `json:"budget_lakhs"`
	WorkExYears       float64  `json:"work_ex_years"`
	NonMathBackground bool     `json:"non_math_background"`
	SubjectClusters   []string `json:"subject_clusters"`
	TargetIntake      string   `json:"target_intake"`
	RequestedCount    int      `json:"requested_count"`
}

// RecommendResponse es la respuesta de POST /recommend.
type RecommendResponse struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
	GlobalAdvice    *domain.GlobalAdvice    `json:"global_advice"`
}

// HTTPClient implementa Client contra la API HTTP del servicio de scoring.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient construye un cliente apuntando a baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:5000"
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *HTTPClient) ListClusters(ctx context.Context, countryCode string) ([]domain.ClusterOption, error) {
	endpoint := c.baseURL + "/courses/" + url.PathEscape(strings.TrimSpace(countryCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var out []domain.ClusterOption
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("list clusters %s: %w", countryCode, err)
	}
	if out == nil {
		out = []domain.ClusterOption{}
	}
	return out, nil
}

func (c *HTTPClient) Recommend(ctx context.Context, in RecommendRequest) (RecommendResponse, error) {
	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return RecommendResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recommend", bytes.NewReader(bodyBytes))
	if err != nil {
		return RecommendResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var out RecommendResponse
	if err := c.do(req, &out); err != nil {
		return RecommendResponse{}, fmt.Errorf("recommend: %w", err)
	}
	if out.Recommendations == nil {
		out.Recommendations = []domain.Recommendation{}
	}
	return out, nil
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(respBody) > MaxResponseBytes {
		c.logger.Warn("scoring service response too large",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, MaxResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("scoring service error",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(respBody), 300)),
		)
		return fmt.Errorf("%w: status=%d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
