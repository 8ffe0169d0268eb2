// webhookpush.go
package datapush

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"FlightRiskPricing/src/config"
)

const (
	TokenLifetime = 7200 * time.Second // gateway default token lifetime
	tokenSafety   = 60 * time.Second   // refresh this early
	RetryTimes    = 5
	RetryInterval = 2 * time.Second
)

// apiResponse is the gateway's error envelope.
type apiResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type tokenResponse struct {
	apiResponse
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Pusher delivers report messages through the corporate message
// gateway. Access tokens are cached until shortly before expiry.
type Pusher struct {
	baseURL   string
	appKey    string
	appSecret string
	agentID   string
	receivers []string
	client    *http.Client

	retryTimes    int
	retryInterval time.Duration

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewPusher builds a pusher from the webhook section of the config.
// An empty base URL disables pushing; callers get nil.
func NewPusher(cfg *config.Config) *Pusher {
	if cfg.Webhook.BaseURL == "" {
		return nil
	}
	return &Pusher{
		baseURL:       strings.TrimRight(cfg.Webhook.BaseURL, "/"),
		appKey:        cfg.Webhook.AppKey,
		appSecret:     cfg.Webhook.AppSecret,
		agentID:       cfg.Webhook.AgentID,
		receivers:     cfg.Webhook.ReceiverIDs,
		client:        &http.Client{Timeout: 10 * time.Second},
		retryTimes:    RetryTimes,
		retryInterval: RetryInterval,
	}
}

// getAccessToken returns the cached token or requests a fresh one.
func (p *Pusher) getAccessToken() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && time.Now().Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	url := fmt.Sprintf("%s/gettoken?appkey=%s&appsecret=%s", p.baseURL, p.appKey, p.appSecret)
	resp, err := p.client.Get(url)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.ErrCode != 0 {
		return "", fmt.Errorf("token request rejected: %s", tokenResp.ErrMsg)
	}

	lifetime := TokenLifetime
	if tokenResp.ExpiresIn > 0 {
		lifetime = time.Duration(tokenResp.ExpiresIn) * time.Second
	}

	p.accessToken = tokenResp.AccessToken
	p.tokenExpiry = time.Now().Add(lifetime - tokenSafety)
	return p.accessToken, nil
}

// sendMessage pushes one text message to the configured receivers.
func (p *Pusher) sendMessage(content string) error {
	token, err := p.getAccessToken()
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"agent_id":    p.agentID,
		"userid_list": p.receivers,
		"msg": map[string]interface{}{
			"msgtype": "text",
			"text": map[string]string{
				"content": content,
			},
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost,
		p.baseURL+"/topapi/message/corpconversation/asyncsend_v2",
		bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to build message request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-acs-dingtalk-access-token", token)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("message request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read message response: %w", err)
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to parse message response: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("message rejected: %s", result.ErrMsg)
	}

	return nil
}

// PushReport delivers the report text, retrying transient failures.
func (p *Pusher) PushReport(content string) error {
	return retry(func() error {
		return p.sendMessage(content)
	}, p.retryTimes, p.retryInterval)
}

func retry(fn func() error, times int, interval time.Duration) error {
	var err error
	for i := 0; i < times; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < times-1 {
			time.Sleep(interval)
		}
	}
	return fmt.Errorf("still failing after %d attempts: %w", times, err)
}
