package api

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/safewatch/internal/common"
)

type requestCodeRequest struct {
	Phone string `json:"phone"`
}

type verifyCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type verifyCodeResponse struct {
	Token string `json:"token"`
}

// RequestCode asks the server to deliver a verification code to the given
// phone number out of band.
func (c *Client) RequestCode(ctx context.Context, phone string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/code", requestCodeRequest{Phone: phone}, nil)
}

// validCode reports whether code is exactly CodeLength decimal digits.
func validCode(code string) bool {
	if len(code) != common.CodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// VerifyCode exchanges the phone and verification code for an access token.
// Malformed codes are rejected locally with ErrInvalidCode; no network call
// is made. On success the token is retained for subsequent requests.
func (c *Client) VerifyCode(ctx context.Context, phone, code string) error {
	if !validCode(code) {
		return common.ErrInvalidCode
	}

	var resp verifyCodeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/verify", verifyCodeRequest{Phone: phone, Code: code}, &resp); err != nil {
		return err
	}

	c.setToken(resp.Token)
	return nil
}

// SignOut revokes the server-side session and discards the local token. The
// token is dropped even when the server call fails: the owner identity is
// gone either way.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/signout", nil, nil)
	c.setToken("")
	return err
}
