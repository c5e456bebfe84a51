package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dkurilov/boardpass/internal/client/credential"
	"github.com/dkurilov/boardpass/internal/common"
	"github.com/dkurilov/boardpass/internal/logging"
	"github.com/go-webauthn/webauthn/protocol"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPClient talks to the boardpass backend over REST.
type HTTPClient struct {
	base   string
	client *http.Client
	log    logging.Logger
}

// NewHTTPClient builds a client for the backend at base (e.g.
// "http://127.0.0.1:8080").
func NewHTTPClient(base string, log logging.Logger) *HTTPClient {
	if log == nil {
		log = logging.Nop()
	}
	return &HTTPClient{
		base:   base,
		client: &http.Client{Timeout: defaultHTTPTimeout},
		log:    log,
	}
}

func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

type usernameRequest struct {
	Username string `json:"username"`
}

type usernameResponse struct {
	Username string `json:"username"`
}

func (c *HTTPClient) SubmitUsername(ctx context.Context, username string) (string, error) {
	var out usernameResponse
	if err := c.post(ctx, "/auth/username", "", usernameRequest{Username: username}, &out); err != nil {
		return "", err
	}
	return out.Username, nil
}

type passwordRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type passwordResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (c *HTTPClient) SubmitPassword(ctx context.Context, username, password string) (string, string, error) {
	var out passwordResponse
	if err := c.post(ctx, "/auth/password", "", passwordRequest{Username: username, Password: password}, &out); err != nil {
		return "", "", err
	}
	return out.Token, out.Username, nil
}

func (c *HTTPClient) RequestRegistration(ctx context.Context, token, username string) (*protocol.CredentialCreation, string, error) {
	var out protocol.CredentialCreation
	if err := c.post(ctx, "/auth/registerRequest", token, usernameRequest{Username: username}, &out); err != nil {
		return nil, "", err
	}
	return &out, encodeChallenge(out.Response.Challenge), nil
}

type confirmRegistrationRequest struct {
	Challenge   string          `json:"challenge"`
	Attestation json.RawMessage `json:"attestation"`
}

type credentialsResponse struct {
	Credentials []credential.Credential `json:"credentials"`
}

func (c *HTTPClient) ConfirmRegistration(ctx context.Context, token, challenge string, attestation []byte) ([]credential.Credential, error) {
	in := confirmRegistrationRequest{Challenge: challenge, Attestation: attestation}
	var out credentialsResponse
	if err := c.post(ctx, "/auth/registerResponse", token, in, &out); err != nil {
		return nil, err
	}
	return out.Credentials, nil
}

type signInRequest struct {
	Username     string `json:"username"`
	CredentialID string `json:"credentialId,omitempty"`
}

func (c *HTTPClient) RequestSignIn(ctx context.Context, username, localCredentialID string) (*protocol.CredentialAssertion, string, error) {
	in := signInRequest{Username: username, CredentialID: localCredentialID}
	var out protocol.CredentialAssertion
	if err := c.post(ctx, "/auth/signinRequest", "", in, &out); err != nil {
		return nil, "", err
	}
	return &out, encodeChallenge(out.Response.Challenge), nil
}

type confirmSignInRequest struct {
	Username  string          `json:"username"`
	Challenge string          `json:"challenge"`
	Assertion json.RawMessage `json:"assertion"`
}

type signInResponse struct {
	Token       string                  `json:"token"`
	Credentials []credential.Credential `json:"credentials"`
}

func (c *HTTPClient) ConfirmSignIn(ctx context.Context, username, challenge string, assertion []byte) ([]credential.Credential, string, error) {
	in := confirmSignInRequest{Username: username, Challenge: challenge, Assertion: assertion}
	var out signInResponse
	if err := c.post(ctx, "/auth/signinResponse", "", in, &out); err != nil {
		return nil, "", err
	}
	return out.Credentials, out.Token, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// post sends a JSON request and decodes a JSON response. Non-2xx responses
// decode into *Error with the server-supplied message when present.
func (c *HTTPClient) post(ctx context.Context, path, token string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		_ = json.Unmarshal(data, &er)
		c.log.Debug(ctx, "api request rejected", "path", path, "status", resp.StatusCode, "message", er.Error)
		return &Error{Status: resp.StatusCode, Message: er.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", path, err)
	}
	return nil
}

func encodeChallenge(challenge protocol.URLEncodedBase64) string {
	return base64.RawURLEncoding.EncodeToString(challenge)
}
