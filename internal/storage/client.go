// Package storage uploads category images to the object store and builds
// their public URLs.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client is an object storage client bound to one bucket.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	bucket     string
	logger     *zap.Logger
}

// NewClient builds a client for bucket at baseURL.
func NewClient(baseURL, serviceKey, bucket string, logger *zap.Logger) *Client {
	base := strings.TrimRight(baseURL, "/")
	httpClient := resty.New().
		SetBaseURL(base).
		SetTimeout(30*time.Second).
		SetHeader("apikey", serviceKey).
		SetAuthToken(serviceKey)
	return &Client{httpClient: httpClient, baseURL: base, bucket: bucket, logger: logger}
}

// Upload stores data at objectPath, replacing whatever was there.
func (c *Client) Upload(ctx context.Context, objectPath, contentType string, data []byte) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("x-upsert", "true").
		SetBody(data).
		Post("/object/" + c.bucket + "/" + strings.TrimLeft(objectPath, "/"))
	if err != nil {
		c.logger.Error("storage upload failed", zap.String("path", objectPath), zap.Error(err))
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("upload %s: storage returned %s", objectPath, resp.Status())
	}
	return nil
}

// PublicURL is the unauthenticated URL of an object. An empty path yields
// an empty URL.
func (c *Client) PublicURL(objectPath string) string {
	if objectPath == "" {
		return ""
	}
	return c.baseURL + "/object/public/" + path.Join(c.bucket, strings.TrimLeft(objectPath, "/"))
}

// CategoryImagePath is where the image of a device category lives. The
// extension defaults to png.
func CategoryImagePath(categoryID, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = "png"
	}
	return "device-categories/" + categoryID + "." + ext
}
