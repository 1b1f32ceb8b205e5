package censor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/carlmjohnson/versioninfo"
)

const (
	defaultAPIHost  = "https://aip.baidubce.com"
	textCensorPath  = "/rest/2.0/solution/v1/text_censor/v2/user_defined"
	imageCensorPath = "/rest/2.0/solution/v1/img_censor/v2/user_defined"
	tokenPath       = "/oauth/2.0/token"

	// refresh the access token this long before the provider-reported expiry
	tokenExpirySlack = 5 * time.Minute
)

// HTTPClient talks to a Baidu-style content censor API. It manages the
// OAuth2-style access token lifecycle internally: the token is acquired on
// first use, shared across concurrent calls, and refreshed before expiry.
//
// Provider errors (bad credentials, quota, unrecognized responses) are
// returned inside RawResult.Err so that interpretation stays total; the
// error return is reserved for request-construction and context failures.
type HTTPClient struct {
	Client     *http.Client
	Host       string
	APIKey     string
	SecretKey  string
	StrategyID string

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(apiKey, secretKey, strategyID string) *HTTPClient {
	return &HTTPClient{
		Client:     robustHTTPClient(),
		Host:       defaultAPIHost,
		APIKey:     apiKey,
		SecretKey:  secretKey,
		StrategyID: strategyID,
	}
}

func (c *HTTPClient) ClassifyText(ctx context.Context, text string) (*RawResult, error) {
	form := url.Values{}
	form.Set("text", text)
	return c.censor(ctx, "text", textCensorPath, form)
}

func (c *HTTPClient) ClassifyImage(ctx context.Context, imageURL string) (*RawResult, error) {
	form := url.Values{}
	form.Set("imgUrl", imageURL)
	return c.censor(ctx, "image", imageCensorPath, form)
}

// wire shape of the censor endpoints. Provider errors arrive as error_code
// plus error_msg on an otherwise-200 response.
type censorAPIResp struct {
	ErrorCode  int       `json:"error_code,omitempty"`
	ErrorMsg   string    `json:"error_msg,omitempty"`
	Conclusion string    `json:"conclusion,omitempty"`
	Data       []RawItem `json:"data,omitempty"`
}

func (c *HTTPClient) censor(ctx context.Context, kind, path string, form url.Values) (*RawResult, error) {
	token, err := c.token(ctx)
	if err != nil {
		return &RawResult{Err: fmt.Sprintf("acquiring access token: %v", err)}, nil
	}
	if c.StrategyID != "" {
		form.Set("strategyId", c.StrategyID)
	}

	u := c.Host + path + "?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "chatwarden/"+versioninfo.Short())

	start := time.Now()
	defer func() {
		censorAPIDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	res, err := c.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &RawResult{Err: fmt.Sprintf("censor request failed: %v", err)}, nil
	}
	defer res.Body.Close()

	censorAPICount.WithLabelValues(kind, fmt.Sprint(res.StatusCode)).Inc()
	if res.StatusCode != 200 {
		return &RawResult{Err: fmt.Sprintf("censor request failed statusCode=%d", res.StatusCode)}, nil
	}

	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return &RawResult{Err: fmt.Sprintf("failed to read censor resp body: %v", err)}, nil
	}
	var respObj censorAPIResp
	if err := json.Unmarshal(respBytes, &respObj); err != nil {
		return &RawResult{Err: fmt.Sprintf("failed to parse censor resp JSON: %v", err)}, nil
	}
	if respObj.ErrorCode != 0 {
		return &RawResult{Err: fmt.Sprintf("censor API error %d: %s", respObj.ErrorCode, respObj.ErrorMsg)}, nil
	}
	return &RawResult{Conclusion: respObj.Conclusion, Data: respObj.Data}, nil
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	Error       string `json:"error,omitempty"`
	ErrorDesc   string `json:"error_description,omitempty"`
}

// token returns a live access token, refreshing it if missing or near
// expiry. Concurrent callers share a single refresh.
func (c *HTTPClient) token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.APIKey)
	form.Set("client_secret", c.SecretKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	res, err := c.Client.Do(req)
	if err != nil {
		censorTokenRefreshCount.WithLabelValues("error").Inc()
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		censorTokenRefreshCount.WithLabelValues("error").Inc()
		return "", fmt.Errorf("token request failed statusCode=%d", res.StatusCode)
	}
	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		censorTokenRefreshCount.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to read token resp body: %w", err)
	}
	var respObj tokenResp
	if err := json.Unmarshal(respBytes, &respObj); err != nil {
		censorTokenRefreshCount.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to parse token resp JSON: %w", err)
	}
	if respObj.Error != "" || respObj.AccessToken == "" {
		censorTokenRefreshCount.WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("token request rejected: %s: %s", respObj.Error, respObj.ErrorDesc)
	}

	censorTokenRefreshCount.WithLabelValues("ok").Inc()
	c.accessToken = respObj.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(respObj.ExpiresIn)*time.Second - tokenExpirySlack)
	return c.accessToken, nil
}

// Release drops the cached access token. Hosts managing an explicit client
// lifecycle can call this when tearing the engine down.
func (c *HTTPClient) Release() {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.accessToken = ""
	c.tokenExpiry = time.Time{}
}
