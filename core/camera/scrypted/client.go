// Package scrypted talks to a Scrypted server's REST and websocket
// surfaces: device listing, per-camera snapshots, arming, and the event
// stream that drives proactive announcements.
package scrypted

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/novahome/nova-core/core/camera"
	"github.com/novahome/nova-core/internal/httpc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const snapshotTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	// freshFor is stamped onto returned snapshots.
	freshFor time.Duration
}

type ClientConfig struct {
	// BaseURL is the Scrypted API base, from SCRYPTED_URL.
	BaseURL string
	// Token is the bearer credential, from SCRYPTED_TOKEN.
	Token string
	// SnapshotFreshness overrides the default freshness deadline.
	SnapshotFreshness time.Duration
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("scrypted base url is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("scrypted token is required")
	}

	freshFor := cfg.SnapshotFreshness
	if freshFor == 0 {
		freshFor = camera.DefaultFreshness
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: httpc.NewClient(snapshotTimeout),
		freshFor:   freshFor,
	}, nil
}

func (c *Client) Devices(ctx context.Context) ([]camera.Device, error) {
	body, err := c.get(ctx, "/api/devices")
	if err != nil {
		return nil, err
	}

	var devices []camera.Device
	if err := json.Unmarshal(body, &devices); err != nil {
		return nil, fmt.Errorf("failed to decode device list: %w", err)
	}
	return devices, nil
}

func (c *Client) Snapshot(ctx context.Context, deviceID string) (*camera.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "fetch snapshot")
	defer span.End()
	span.SetAttributes(attribute.String("camera.device_id", deviceID))

	image, err := c.get(ctx, "/api/devices/"+deviceID+"/snapshot")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %w", camera.ErrSnapshotUnavailable, err)
	}
	if len(image) == 0 {
		return nil, camera.ErrSnapshotUnavailable
	}

	return &camera.Snapshot{
		Camera:     deviceID,
		Image:      image,
		CapturedAt: time.Now(),
		FreshFor:   c.freshFor,
	}, nil
}

// Arm attempts to arm the device. Devices without arming support answer
// 404; that reads as unsupported, not as an error.
func (c *Client) Arm(ctx context.Context, deviceID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/devices/"+deviceID+"/arm", nil)
	if err != nil {
		return false, fmt.Errorf("failed to build arm request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach camera platform: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("camera platform returned status %d", resp.StatusCode)
	}
	return true, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach camera platform: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("camera platform returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
