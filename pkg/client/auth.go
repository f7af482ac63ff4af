package client

import (
	"context"
	"fmt"
	"net/http"

	"milovat/pkg/model"
)

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token and stores it on the client.
func (c *HttpClient) Login(ctx context.Context, username, password string) error {
	resp, err := c.POST(ctx, "/auth/login", model.Credentials{Username: username, Password: password})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	var body loginResponse
	if err := resp.DecodeJSON(&body); err != nil || body.Token == "" {
		return fmt.Errorf("could not decode login response: %s", resp)
	}
	c.Token = body.Token
	return nil
}

// NewBookingClientFromHTTP shares an authenticated HttpClient.
func NewBookingClientFromHTTP(hc *HttpClient) *BookingClient {
	return &BookingClient{httpClient: hc}
}
