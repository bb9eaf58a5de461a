package sonos

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/huin/goupnp"
)

const (
	descriptionPath = "/xml/device_description.xml"

	_maxResponseSize = 1 << 20 // 1 MB
	_userAgent       = "amogusSonosConnector/1.0"
)

// deviceDescription is the UPnP device description plus the Sonos room name
type deviceDescription struct {
	Device struct {
		goupnp.Device
		RoomName string `xml:"roomName"`
	} `xml:"device"`
}

// ID returns the device UID without the uuid: prefix
func (d *deviceDescription) ID() string {
	return strings.TrimPrefix(d.Device.UDN, "uuid:")
}

// fetchDescription downloads and decodes the device description document
func fetchDescription(ctx context.Context, client *http.Client, baseURL string) (*deviceDescription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+descriptionPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", _userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, _maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	var desc deviceDescription
	if err := xml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse device description: %w", err)
	}
	if desc.ID() == "" {
		return nil, fmt.Errorf("device description has no UDN")
	}
	return &desc, nil
}
