package ndfc

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

////////////////////////////////////////////////////////////
// Reachability and discovery
////////////////////////////////////////////////////////////

const DefaultCdpSecondTimeout = 5

// SwitchReachability : one switch seen from a seed IP
type SwitchReachability struct {
	json         JSON
	IPAddr       string
	SysName      string
	SerialNumber string
	Platform     string
	Version      string
	DeviceIndex  string
	VdcID        int64
	VdcMac       string
	SwitchRole   string
	StatusReason string
	HopCount     int64
	Reachable    bool
	Auth         bool
	Valid        bool
	Known        bool
	Selectable   bool
}

func newSwitchReachability(json JSON) SwitchReachability {
	return SwitchReachability{
		json:         json,
		IPAddr:       json.Get("ipaddr").Str,
		SysName:      json.Get("sysName").Str,
		SerialNumber: json.Get("serialNumber").Str,
		Platform:     json.Get("platform").Str,
		Version:      json.Get("version").Str,
		DeviceIndex:  json.Get("deviceIndex").Str,
		VdcID:        json.Get("vdcId").Int(),
		VdcMac:       json.Get("vdcMac").Str,
		SwitchRole:   json.Get("switchRole").Str,
		StatusReason: json.Get("statusReason").Str,
		HopCount:     json.Get("hopCount").Int(),
		Reachable:    json.Get("reachable").Bool(),
		Auth:         json.Get("auth").Bool(),
		Valid:        json.Get("valid").Bool(),
		Known:        json.Get("known").Bool(),
		Selectable:   json.Get("selectable").Bool(),
	}
}

// Ready reports whether the switch can be discovered with these credentials.
func (s SwitchReachability) Ready() bool {
	return s.Reachable && s.Auth && s.Valid
}

// MarshalJSON : marshal switch reachability
func (s SwitchReachability) MarshalJSON() ([]byte, error) {
	return []byte(s.json.Raw), nil
}

// Reachability : seed switch and the credentials used to probe it
type Reachability struct {
	FabricName          string `mapstructure:"fabric_name" validate:"required,fabricname"`
	SeedIP              string `mapstructure:"seed_ip" validate:"required,ipv4"`
	Username            string `mapstructure:"username" validate:"required"`
	Password            string `mapstructure:"password" validate:"required"`
	MaxHops             int    `mapstructure:"max_hops" validate:"min=0,max=10"`
	PreserveConfig      bool   `mapstructure:"preserve_config"`
	CdpSecondTimeout    int    `mapstructure:"cdp_second_timeout" validate:"min=1,max=60"`
	SnmpV3AuthProtocol  int    `mapstructure:"snmp_v3_auth_protocol" validate:"min=0,max=5"`
	DiscoveryCredForLan bool   `mapstructure:"discovery_cred_for_lan"`
}

func (r *Reachability) setDefaults() {
	if r.CdpSecondTimeout == 0 {
		r.CdpSecondTimeout = DefaultCdpSecondTimeout
	}
}

func (r Reachability) body() *body {
	return newBody().
		set("seedIP", r.SeedIP).
		set("snmpV3AuthProtocol", r.SnmpV3AuthProtocol).
		set("username", r.Username).
		set("password", r.Password).
		set("maxHops", strconv.Itoa(r.MaxHops)).
		set("cdpSecondTimeout", strconv.Itoa(r.CdpSecondTimeout)).
		set("preserveConfig", r.PreserveConfig).
		set("discoveryCredForLan", r.DiscoveryCredForLan)
}

func (r Reachability) path(op string) string {
	return pathOf(controlPath+"/fabrics", r.FabricName) + "/inventory/" + op
}

func (c *Client) TestReachability(ctx context.Context, r Reachability) (res []SwitchReachability, err error) {
	r.setDefaults()
	if err = check(r); err != nil {
		return
	}
	payload, err := r.body().String()
	if err != nil {
		return
	}
	reply, err := c.send(ctx, http.MethodPost, r.path("test-reachability"), payload)
	if err != nil {
		return
	}
	if reply.CheckMode {
		// Nothing was probed; report the seed as ready.
		reply.Data = checkModeSeed(r.SeedIP)
	}
	for _, record := range reply.Data.Array() {
		res = append(res, newSwitchReachability(record))
	}
	c.log.WithFields(logrus.Fields{
		"fabric":   r.FabricName,
		"seed ip":  r.SeedIP,
		"switches": len(res),
	}).Debug("Tested reachability")
	return
}

func checkModeSeed(ip string) JSON {
	raw, _ := newList().add(newBody().
		set("ipaddr", ip).
		set("reachable", true).
		set("auth", true).
		set("valid", true).
		set("selectable", true)).
		String()
	return gjson.Parse(raw)
}

// seed picks the entry for the seed IP. Neighbors found through CDP never
// stand in for it.
func seed(switches []SwitchReachability, ip string) (SwitchReachability, bool) {
	for _, s := range switches {
		if s.IPAddr == ip {
			return s, true
		}
	}
	return SwitchReachability{}, false
}

// WaitReachable polls TestReachability until the seed switch is ready,
// at most PollAttempts times, PollInterval apart.
func (c *Client) WaitReachable(ctx context.Context, r Reachability) (SwitchReachability, error) {
	attempts := c.PollAttempts
	if attempts < 1 {
		attempts = 1
	}
	reason := "no reply"
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return SwitchReachability{}, ctx.Err()
			case <-time.After(c.PollInterval):
			}
		}
		switches, err := c.TestReachability(ctx, r)
		if err != nil {
			return SwitchReachability{}, err
		}
		s, ok := seed(switches, r.SeedIP)
		switch {
		case !ok:
			reason = "seed not in reply"
		case s.Ready():
			return s, nil
		default:
			reason = s.StatusReason
		}
		c.log.WithFields(logrus.Fields{
			"seed ip": r.SeedIP,
			"attempt": i + 1,
			"reason":  reason,
		}).Debug("Switch not ready")
	}
	return SwitchReachability{}, errors.Wrapf(ErrNotReachable, "%s: %s", r.SeedIP, reason)
}

// DiscoverSwitch : a seed switch to add to a fabric
type DiscoverSwitch struct {
	Reachability `mapstructure:",squash"`
	Role         string `mapstructure:"role" validate:"omitempty,switchrole"`
}

func (c *Client) Discover(ctx context.Context, d DiscoverSwitch) (SwitchReachability, error) {
	d.setDefaults()
	if err := check(d); err != nil {
		return SwitchReachability{}, err
	}
	s, err := c.WaitReachable(ctx, d.Reachability)
	if err != nil {
		return SwitchReachability{}, err
	}
	if s.Known && !s.Selectable {
		return SwitchReachability{}, errors.Wrapf(ErrAlreadyExists, "switch %s (%s)", s.SerialNumber, s.IPAddr)
	}
	sw := newBody().
		set("ipaddr", s.IPAddr).
		set("sysName", s.SysName).
		set("deviceIndex", s.DeviceIndex).
		set("platform", s.Platform).
		set("version", s.Version).
		set("serialNumber", s.SerialNumber).
		set("vdcId", s.VdcID).
		set("vdcMac", s.VdcMac)
	payload, err := d.body().setList("switches", newList().add(sw)).String()
	if err != nil {
		return SwitchReachability{}, err
	}
	if _, err := c.send(ctx, http.MethodPost, d.path("discover"), payload); err != nil {
		return SwitchReachability{}, err
	}
	c.log.WithFields(logrus.Fields{
		"fabric":   d.FabricName,
		"switch":   s.SerialNumber,
		"ip":       s.IPAddr,
		"platform": s.Platform,
	}).Info("Discovered switch")
	if d.Role != "" && !c.rs.CheckMode {
		if err := c.SetSwitchRole(ctx, SwitchRole{SerialNumber: s.SerialNumber, Role: d.Role}); err != nil {
			return s, err
		}
	}
	return s, nil
}
