package sonos

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/huin/goupnp"
	"github.com/huin/goupnp/dcps/av1"
	"github.com/huin/goupnp/soap"
	"github.com/siacavazzi/amogus-sonos-connector/internal/domain"
	"go.uber.org/zap"
)

const (
	// DefaultPort is the UPnP port every Sonos player listens on
	DefaultPort = 1400

	rinconScheme = "x-rincon:"

	avTransportPath = "/MediaRenderer/AVTransport/Control"
	renderingPath   = "/MediaRenderer/RenderingControl/Control"

	masterChannel = "Master"
)

// NewHTTPClient returns the client used for all device traffic
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
	}
}

// Player controls a single Sonos speaker over UPnP
type Player struct {
	logger *zap.Logger
	host   string

	id    string
	name  string
	model string

	av *av1.AVTransport1
	rc *av1.RenderingControl1
}

var _ domain.Device = (*Player)(nil)

// NewPlayer loads the device description at baseURL (e.g. http://10.0.0.5:1400).
// A device whose description cannot be loaded is treated as unreachable.
func NewPlayer(ctx context.Context, logger *zap.Logger, client *http.Client, baseURL string) (*Player, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid speaker url %q", baseURL)
	}

	desc, err := fetchDescription(ctx, client, baseURL)
	if err != nil {
		return nil, fmt.Errorf("speaker %s unreachable: %w", baseURL, err)
	}

	p := &Player{
		logger: logger,
		host:   base.Host,
		id:     desc.ID(),
		name:   desc.Device.RoomName,
		model:  desc.Device.ModelName,
		av:     &av1.AVTransport1{ServiceClient: serviceClient(client, base, avTransportPath)},
		rc:     &av1.RenderingControl1{ServiceClient: serviceClient(client, base, renderingPath)},
	}
	if p.name == "" {
		p.name = p.host
	}

	logger.Debug("Speaker description loaded",
		zap.String("speaker", p.name),
		zap.String("id", p.id),
		zap.String("model", p.model))
	return p, nil
}

func serviceClient(client *http.Client, base *url.URL, path string) goupnp.ServiceClient {
	sc := soap.NewSOAPClient(*base.JoinPath(path))
	sc.HTTPClient = *client
	return goupnp.ServiceClient{SOAPClient: sc}
}

// ID returns the player UID, e.g. RINCON_000E58A0000101400
func (p *Player) ID() string { return p.id }

// Name returns the room name
func (p *Player) Name() string { return p.name }

// Address returns the host:port of the UPnP endpoint
func (p *Player) Address() string { return p.host }

// Model returns the hardware model name
func (p *Player) Model() string { return p.model }

// Volume reads the master volume
func (p *Player) Volume(ctx context.Context) (int, error) {
	v, err := p.rc.GetVolumeCtx(ctx, 0, masterChannel)
	if err != nil {
		return 0, p.failed(ctx, "GetVolume", err)
	}
	return int(v), nil
}

// SetVolume sets the master volume, clamped to 0-100
func (p *Player) SetVolume(ctx context.Context, volume int) error {
	volume = max(0, min(volume, 100))
	if err := p.rc.SetVolumeCtx(ctx, 0, masterChannel, uint16(volume)); err != nil {
		return p.failed(ctx, "SetVolume", err)
	}
	return nil
}

// IsFollower reports whether the current transport URI points at another player
func (p *Player) IsFollower(ctx context.Context) (bool, error) {
	_, _, uri, _, _, _, _, _, _, err := p.av.GetMediaInfoCtx(ctx, 0)
	if err != nil {
		return false, p.failed(ctx, "GetMediaInfo", err)
	}
	return strings.HasPrefix(uri, rinconScheme) && uri != rinconScheme+p.id, nil
}

// Join makes this player a follower of leader
func (p *Player) Join(ctx context.Context, leader domain.Device) error {
	return p.setURI(ctx, rinconScheme+leader.ID())
}

// Leave detaches this player from its group
func (p *Player) Leave(ctx context.Context) error {
	in := &struct{ InstanceID string }{InstanceID: "0"}
	if err := p.av.SOAPClient.PerformActionCtx(ctx, av1.URN_AVTransport_1, "BecomeCoordinatorOfStandaloneGroup", in, nil); err != nil {
		return p.failed(ctx, "BecomeCoordinatorOfStandaloneGroup", err)
	}
	return nil
}

// PlayURI loads uri as the transport source and starts playback
func (p *Player) PlayURI(ctx context.Context, uri string) error {
	if err := p.setURI(ctx, uri); err != nil {
		return err
	}
	if err := p.av.PlayCtx(ctx, 0, "1"); err != nil {
		return p.failed(ctx, "Play", err)
	}
	return nil
}

// Stop stops playback
func (p *Player) Stop(ctx context.Context) error {
	if err := p.av.StopCtx(ctx, 0); err != nil {
		return p.failed(ctx, "Stop", err)
	}
	return nil
}

// TransportState returns the current transport state
func (p *Player) TransportState(ctx context.Context) (domain.TransportState, error) {
	state, _, _, err := p.av.GetTransportInfoCtx(ctx, 0)
	if err != nil {
		return domain.TransportUnknown, p.failed(ctx, "GetTransportInfo", err)
	}
	return domain.ParseTransportState(state), nil
}

func (p *Player) setURI(ctx context.Context, uri string) error {
	if err := p.av.SetAVTransportURICtx(ctx, 0, uri, ""); err != nil {
		return p.failed(ctx, "SetAVTransportURI", err)
	}
	return nil
}

// failed names the speaker and action in err. Transport errors from the SOAP
// client do not wrap the context error, so it is attached here.
func (p *Player) failed(ctx context.Context, action string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %s: %w", p.name, action, ctxErr)
	}
	return fmt.Errorf("%s: %s: %w", p.name, action, err)
}
