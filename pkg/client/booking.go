package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	apperrors "milovat/pkg/errors"
	"milovat/pkg/model"
)

const bookingsPath = "/bookings"

// BookingClient is a typed client for the bookings API, used by tooling and end-to-end checks.
type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseURL, token string) *BookingClient {
	hc := NewHttpClient(baseURL)
	hc.Token = token
	return &BookingClient{httpClient: hc}
}

func (c *BookingClient) Create(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	resp, err := c.httpClient.POST(ctx, bookingsPath, req)
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp, http.StatusCreated)
}

func (c *BookingClient) Get(ctx context.Context, id string) (*model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, bookingsPath+"/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp, http.StatusOK)
}

func (c *BookingClient) List(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.FormatInt(offset, 10))
	}
	path := bookingsPath
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, decodeError(resp)
	}

	var bookings []*model.Booking
	if err := resp.DecodeJSON(&bookings); err != nil {
		return nil, 0, fmt.Errorf("could not decode booking list: %s: %w", resp, err)
	}
	total, _ := strconv.ParseInt(resp.Header.Get("X-Total-Count"), 10, 64)
	return bookings, total, nil
}

func (c *BookingClient) Update(ctx context.Context, id string, req model.BookingRequest) (*model.Booking, error) {
	resp, err := c.httpClient.PATCH(ctx, bookingsPath+"/"+url.PathEscape(id), req)
	if err != nil {
		return nil, err
	}
	return decodeBooking(resp, http.StatusOK)
}

func (c *BookingClient) Delete(ctx context.Context, id string) error {
	resp, err := c.httpClient.DELETE(ctx, bookingsPath+"/"+url.PathEscape(id))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return decodeError(resp)
	}
	return nil
}

func (c *BookingClient) OccupiedHours(ctx context.Context, facility, date string) ([]model.OccupiedSlot, error) {
	q := url.Values{}
	q.Set("facility", facility)
	q.Set("date", date)

	resp, err := c.httpClient.GET(ctx, bookingsPath+"/horarios?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var slots []model.OccupiedSlot
	if err := resp.DecodeJSON(&slots); err != nil {
		return nil, fmt.Errorf("could not decode occupied hours: %s: %w", resp, err)
	}
	return slots, nil
}

func decodeBooking(resp *Response, want int) (*model.Booking, error) {
	if resp.StatusCode != want {
		return nil, decodeError(resp)
	}
	var booking model.Booking
	if err := resp.DecodeJSON(&booking); err != nil {
		return nil, fmt.Errorf("could not decode booking: %s: %w", resp, err)
	}
	return &booking, nil
}

// decodeError turns an error body back into an AppError so callers can branch on its code.
func decodeError(resp *Response) error {
	var body apperrors.ErrorResponse
	if err := resp.DecodeJSON(&body); err != nil || body.Code == "" {
		return apperrors.New(apperrors.CodeInternal, fmt.Sprintf("unexpected response: %s", resp), resp.StatusCode)
	}
	return apperrors.New(body.Code, body.Message, resp.StatusCode).WithDetails(body.Details)
}
