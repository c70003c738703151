package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sandipan-das-sd/lms/internal/apierr"
	"github.com/sandipan-das-sd/lms/internal/models"
)

// The public collection endpoints wrap their list in a second data field:
// {success, data: {data: [...], ...}}.
type listPayload[T any] struct {
	Data []T `json:"data"`
}

func decodeList[T any](raw json.RawMessage) ([]T, error) {
	var p listPayload[T]
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", apierr.ErrMalformedResponse, err)
	}
	return p.Data, nil
}

// RandomUsers fetches the instructor pool. No auth required.
func (c *Client) RandomUsers(ctx context.Context) ([]models.Instructor, error) {
	data, err := c.getJSON(ctx, "/public/randomusers")
	if err != nil {
		return nil, err
	}
	return decodeList[models.Instructor](data)
}

// RandomProducts fetches the course/product pool. No auth required.
func (c *Client) RandomProducts(ctx context.Context) ([]models.Product, error) {
	data, err := c.getJSON(ctx, "/public/randomproducts")
	if err != nil {
		return nil, err
	}
	return decodeList[models.Product](data)
}
