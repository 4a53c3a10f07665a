package scoring

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/maxbolgarin/logze/v2"

	"commitscore/pkg/errors"
	"commitscore/pkg/models"
)

const (
	// DefaultEndpoint is the analysis endpoint used when none is configured
	DefaultEndpoint = "https://api.deepseek.com/v1/analyze"

	defaultUserAgent = "commitscore"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config configures the scoring client
type Config struct {
	Endpoint string
	APIKey   string
	// Timeout bounds one round trip. Zero leaves the transport default in place.
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the underlying transport, mainly for tests
	HTTPClient *http.Client
}

// Client submits commit summaries to the remote scoring service. It sends
// exactly one request per Score call and never retries.
type Client struct {
	cli      *resty.Client
	endpoint string
	log      logze.Logger
}

// New creates a scoring client
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.ConfigurationError("scoring API key is required", "api_key")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	var cli *resty.Client
	if cfg.HTTPClient != nil {
		cli = resty.NewWithClient(cfg.HTTPClient)
	} else {
		cli = resty.New()
	}

	cli.SetAuthToken(cfg.APIKey).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetRetryCount(0)
	if cfg.Timeout > 0 {
		cli.SetTimeout(cfg.Timeout)
	}

	return &Client{
		cli:      cli,
		endpoint: cfg.Endpoint,
		log:      logze.With("component", "scoring"),
	}, nil
}

// Endpoint returns the URL requests are sent to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Score submits one diff summary and commit message and returns the parsed scores
func (c *Client) Score(ctx context.Context, codeDiff, commitMessage string) (models.AnalysisResult, error) {
	resp, err := c.cli.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(analysisRequest{
			CodeDiff:      codeDiff,
			CommitMessage: commitMessage,
		}).
		Post(c.endpoint)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.AnalysisResult{}, ctxErr
		}
		return models.AnalysisResult{}, errors.TransportError("failed to reach scoring service", err).
			WithContext("endpoint", c.endpoint)
	}

	status := resp.StatusCode()
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return models.AnalysisResult{}, errors.AuthenticationError("scoring service rejected the API key", status).
			WithContext("endpoint", c.endpoint)
	case status < 200 || status > 299:
		return models.AnalysisResult{}, errors.Newf(errors.ErrCodeRemoteService,
			"scoring service returned %s", resp.Status()).
			WithContext("status", status).
			WithContext("body", truncate(resp.String(), 200))
	}

	result, err := decodeResponse(resp.Body())
	if err != nil {
		return models.AnalysisResult{}, err
	}

	if result.Explanation == "" {
		c.log.Debug("scoring service returned no explanation")
	} else {
		c.log.Debug("commit scored", "explanation", result.Explanation)
	}

	return result, nil
}

func decodeResponse(body []byte) (models.AnalysisResult, error) {
	if len(body) == 0 {
		return models.AnalysisResult{}, errors.RemoteServiceError("scoring service returned an empty body", nil)
	}

	var parsed analysisResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.AnalysisResult{}, errors.RemoteServiceError("failed to decode scoring response", err).
			WithContext("body", truncate(string(body), 200))
	}

	if parsed.PerformanceScore == nil || parsed.MaintainabilityScore == nil {
		return models.AnalysisResult{}, errors.RemoteServiceError("scoring response is missing scores", nil).
			WithContext("body", truncate(string(body), 200))
	}

	return models.AnalysisResult{
		PerformanceScore:     *parsed.PerformanceScore,
		MaintainabilityScore: *parsed.MaintainabilityScore,
		Explanation:          parsed.Explanation,
	}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
