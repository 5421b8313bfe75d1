package docker

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"fleetwatch/internal/status"
)

const defaultDialTimeout = 2 * time.Second

var _ status.Prober = (*Prober)(nil)

// Prober implements status.Prober against the Docker Engine API. The
// unit id is the container name or id. Reachability is judged by a TCP
// dial to the first published tcp port.
type Prober struct {
	cli         *client.Client
	dialHost    string
	dialTimeout time.Duration
}

// NewProber creates a Prober with a new Docker client from the environment.
func NewProber() (*Prober, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return NewProberFromClient(cli), nil
}

// NewProberFromClient wraps an existing Docker client.
func NewProberFromClient(cli *client.Client) *Prober {
	return &Prober{
		cli:         cli,
		dialHost:    "127.0.0.1",
		dialTimeout: defaultDialTimeout,
	}
}

// SetDialTimeout overrides the reachability dial timeout. Nonpositive
// values keep the default.
func (p *Prober) SetDialTimeout(d time.Duration) {
	if d > 0 {
		p.dialTimeout = d
	}
}

// WaitReady blocks until the Docker daemon answers pings.
func (p *Prober) WaitReady(ctx context.Context) error {
	return WaitReady(ctx, p.cli)
}

func (p *Prober) Probe(ctx context.Context, unitID string) (status.RawResult, error) {
	info, err := p.cli.ContainerInspect(ctx, unitID)
	if err != nil {
		if errdefs.IsNotFound(err) {
			// The unit is externally managed; absence means stopped,
			// not a probe failure.
			return status.RawResult{
				DisplayName:  unitID,
				Lifecycle:    status.LifecycleStopped,
				Reachability: status.ReachNotAccessible,
			}, nil
		}
		return status.RawResult{}, fmt.Errorf("inspect container %q: %w", unitID, err)
	}

	name := strings.TrimPrefix(info.Name, "/")
	if name == "" {
		name = unitID
	}

	if info.State == nil || !info.State.Running {
		lifecycle := status.LifecycleStopped
		if info.State != nil && info.State.Status == "dead" {
			lifecycle = status.LifecycleError
		}
		return status.RawResult{
			DisplayName:  name,
			Lifecycle:    lifecycle,
			Reachability: status.ReachNotAccessible,
		}, nil
	}

	var ports []status.PortMapping
	if info.NetworkSettings != nil {
		ports = portMappings(info.NetworkSettings.Ports)
	}
	reach, endpoint := p.checkReachable(ctx, ports)

	return status.RawResult{
		DisplayName:  name,
		Lifecycle:    status.LifecycleRunning,
		Reachability: reach,
		Endpoint:     endpoint,
		Ports:        ports,
	}, nil
}

// checkReachable dials the first published tcp port. No published tcp
// port means reachability cannot be judged.
func (p *Prober) checkReachable(ctx context.Context, ports []status.PortMapping) (status.Reachability, string) {
	var external uint16
	for _, pm := range ports {
		if pm.Transport == "tcp" && pm.External != 0 {
			external = pm.External
			break
		}
	}
	if external == 0 {
		return status.ReachUnknown, ""
	}

	addr := net.JoinHostPort(p.dialHost, strconv.Itoa(int(external)))
	d := net.Dialer{Timeout: p.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return status.ReachNotAccessible, ""
	}
	_ = conn.Close()
	return status.ReachAccessible, "http://" + addr
}

// portMappings flattens a docker port map into an ordered mapping list.
// Ordering is by internal port, then transport, then external port, so
// two probes of an unchanged container always compare equal.
func portMappings(pm nat.PortMap) []status.PortMapping {
	var out []status.PortMapping
	for port, bindings := range pm {
		for _, b := range bindings {
			external, err := strconv.ParseUint(b.HostPort, 10, 16)
			if err != nil {
				continue
			}
			out = append(out, status.PortMapping{
				Internal:  uint16(port.Int()),
				External:  uint16(external),
				Transport: port.Proto(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Internal != out[j].Internal {
			return out[i].Internal < out[j].Internal
		}
		if out[i].Transport != out[j].Transport {
			return out[i].Transport < out[j].Transport
		}
		return out[i].External < out[j].External
	})
	return out
}

// Close releases the underlying Docker client.
func (p *Prober) Close() error {
	return p.cli.Close()
}
