package sonos

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/huin/goupnp"
	"github.com/siacavazzi/amogus-sonos-connector/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	serviceType    = "_sonos._tcp"
	zonePlayerType = "urn:schemas-upnp-org:device:ZonePlayer:1"
)

// ErrNoSpeakers is returned when discovery finds no usable speaker
var ErrNoSpeakers = errors.New("no speakers found")

// DiscoveryConfig is the configuration discovery depends on
type DiscoveryConfig interface {
	SpeakerHosts() []string
	ExcludeNames() []string
	DiscoveryTimeout() time.Duration
}

type browseFunc func(ctx context.Context) ([]string, error)

// Discovery finds Sonos players either from a static host list or over
// mDNS and SSDP
type Discovery struct {
	logger  *zap.Logger
	client  *http.Client
	hosts   []string
	exclude []string
	timeout time.Duration

	// browse returns candidate host:port pairs; replaced in tests
	browse browseFunc
	// browsers are the network lookups merged by browseAll
	browsers []browseFunc
}

var _ domain.Discoverer = (*Discovery)(nil)

// NewDiscovery creates a discoverer for the configured hosts or the local network
func NewDiscovery(logger *zap.Logger, client *http.Client, cfg DiscoveryConfig) *Discovery {
	d := &Discovery{
		logger:  logger,
		client:  client,
		hosts:   cfg.SpeakerHosts(),
		exclude: cfg.ExcludeNames(),
		timeout: cfg.DiscoveryTimeout(),
	}
	d.browsers = []browseFunc{d.browseMDNS, d.browseSSDP}
	d.browse = d.browseAll
	return d
}

// Discover returns every reachable, non-excluded player sorted by room name
func (d *Discovery) Discover(ctx context.Context) ([]domain.Device, error) {
	hosts := d.hosts
	if len(hosts) == 0 {
		d.logger.Info("Discovering speakers", zap.Duration("timeout", d.timeout))

		found, err := d.browse(ctx)
		if err != nil {
			return nil, fmt.Errorf("speaker discovery failed: %w", err)
		}
		hosts = found
	} else {
		d.logger.Info("Using configured speakers", zap.Strings("hosts", hosts))
	}

	seen := make(map[string]bool)
	var players []*Player
	for _, host := range hosts {
		p, err := NewPlayer(ctx, d.logger, d.client, baseURL(host))
		if err != nil {
			d.logger.Warn("Skipping unreachable speaker", zap.String("host", host), zap.Error(err))
			continue
		}
		if seen[p.ID()] {
			continue
		}
		seen[p.ID()] = true

		if d.excluded(p.Name()) {
			d.logger.Info("Excluding speaker", zap.String("speaker", p.Name()))
			continue
		}
		players = append(players, p)
	}

	if len(players) == 0 {
		return nil, ErrNoSpeakers
	}

	sort.Slice(players, func(i, j int) bool { return players[i].Name() < players[j].Name() })

	devices := make([]domain.Device, 0, len(players))
	names := make([]string, 0, len(players))
	for _, p := range players {
		devices = append(devices, p)
		names = append(names, p.Name())
	}
	d.logger.Info("Speakers found", zap.Strings("speakers", names))
	return devices, nil
}

func (d *Discovery) excluded(name string) bool {
	lower := strings.ToLower(name)
	for _, ex := range d.exclude {
		if ex != "" && strings.Contains(lower, strings.ToLower(ex)) {
			return true
		}
	}
	return false
}

// browseAll runs every lookup concurrently and merges their hosts. It fails
// only when every lookup failed.
func (d *Discovery) browseAll(ctx context.Context) ([]string, error) {
	results := make([][]string, len(d.browsers))
	errs := make([]error, len(d.browsers))

	var wg sync.WaitGroup
	for i, browse := range d.browsers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = browse(ctx)
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	var hosts []string
	failed := 0
	for i, found := range results {
		if errs[i] != nil {
			failed++
			d.logger.Warn("Speaker lookup failed", zap.Error(errs[i]))
			continue
		}
		for _, host := range found {
			if !seen[host] {
				seen[host] = true
				hosts = append(hosts, host)
			}
		}
	}
	if failed > 0 && failed == len(d.browsers) {
		return nil, multierr.Combine(errs...)
	}
	return hosts, nil
}

// browseSSDP searches for ZonePlayer root devices
func (d *Discovery) browseSSDP(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	found, err := goupnp.DiscoverDevicesCtx(ctx, zonePlayerType)
	if err != nil {
		return nil, fmt.Errorf("failed to search for speakers: %w", err)
	}

	var hosts []string
	for _, dev := range found {
		if dev.Location == nil {
			continue
		}
		d.logger.Debug("Discovered speaker", zap.String("usn", dev.USN), zap.String("host", dev.Location.Host))
		hosts = append(hosts, dev.Location.Host)
	}
	return hosts, nil
}

// browseMDNS collects _sonos._tcp instances until the discovery timeout elapses
func (d *Discovery) browseMDNS(ctx context.Context) ([]string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	collected := make(chan []string, 1)
	go func() {
		seen := make(map[string]bool)
		var hosts []string
		for entry := range entries {
			if entry == nil || len(entry.AddrIPv4) == 0 {
				continue
			}
			// Sonos advertises its secure port; UPnP control is always on 1400
			host := net.JoinHostPort(entry.AddrIPv4[0].String(), strconv.Itoa(DefaultPort))
			if seen[host] {
				continue
			}
			seen[host] = true
			d.logger.Debug("Discovered speaker", zap.String("instance", entry.Instance), zap.String("host", host))
			hosts = append(hosts, host)
		}
		collected <- hosts
	}()

	if err := resolver.Browse(ctx, serviceType, "local.", entries); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to browse for speakers: %w", err)
	}

	// The resolver closes entries once ctx is done
	<-ctx.Done()
	return <-collected, nil
}

// baseURL turns a host or host:port into the player's UPnP base URL
func baseURL(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return strings.TrimSuffix(host, "/")
	}
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, strconv.Itoa(DefaultPort))
	}
	return "http://" + host
}
