package ndfc

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

////////////////////////////////////////////////////////////
// Network
////////////////////////////////////////////////////////////

const (
	DefaultNetworkTemplate          = "Default_Network_Universal"
	DefaultNetworkExtensionTemplate = "Default_Network_Extension_Universal"
	// Layer-2 only networks are created against this placeholder VRF.
	layer2Vrf = "NA"
)

type Network struct {
	json      JSON
	Fabric    string
	Name      string
	ID        int64
	Vrf       string
	VlanID    int64
	GatewayIP string
	Status    string
}

func newNetwork(json JSON) Network {
	cfg := gjson.Parse(json.Get("networkTemplateConfig").Str)
	return Network{
		json:      json,
		Fabric:    json.Get("fabric").Str,
		Name:      json.Get("networkName").Str,
		ID:        json.Get("networkId").Int(),
		Vrf:       json.Get("vrf").Str,
		VlanID:    cfg.Get("vlanId").Int(),
		GatewayIP: cfg.Get("gatewayIpAddress").Str,
		Status:    json.Get("networkStatus").Str,
	}
}

// MarshalJSON : marshal network
func (n Network) MarshalJSON() ([]byte, error) {
	return []byte(n.json.Raw), nil
}

func networksPath(fabric string) string {
	return pathOf(topDownPath, fabric) + "/networks"
}

func (c *Client) ListNetworks(ctx context.Context, fabric string) (res []Network, err error) {
	json, err := c.get(ctx, networksPath(fabric), "fabric "+fabric)
	if err != nil {
		return
	}
	for _, record := range json.Array() {
		res = append(res, newNetwork(record))
	}
	return
}

func (c *Client) NetworkExists(ctx context.Context, fabric, name string) (bool, error) {
	networks, err := c.ListNetworks(ctx, fabric)
	if err != nil {
		return false, err
	}
	for _, network := range networks {
		if network.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// NetworkCreate : fields for a new network
type NetworkCreate struct {
	FabricName               string `mapstructure:"fabric_name" validate:"required,fabricname"`
	NetworkName              string `mapstructure:"network_name" validate:"required,objname,max=64"`
	NetworkID                int    `mapstructure:"network_id" validate:"required,min=1,max=16777214"`
	VrfName                  string `mapstructure:"vrf_name" validate:"required_unless=IsLayer2Only true,objname"`
	IsLayer2Only             bool   `mapstructure:"is_layer2_only"`
	VlanID                   int    `mapstructure:"vlan_id" validate:"omitempty,min=2,max=4094"`
	VlanName                 string `mapstructure:"vlan_name" validate:"max=128"`
	GatewayIPAddress         string `mapstructure:"gateway_ip_address" validate:"gatewayv4"`
	GatewayIpv6Address       string `mapstructure:"gateway_ipv6_address" validate:"omitempty,cidrv6"`
	IntfDescription          string `mapstructure:"intf_description" validate:"max=254"`
	Mtu                      int    `mapstructure:"mtu" validate:"min=68,max=9216"`
	SuppressArp              bool   `mapstructure:"suppress_arp"`
	McastGroup               string `mapstructure:"mcast_group" validate:"omitempty,ipv4"`
	NetworkTemplate          string `mapstructure:"network_template"`
	NetworkExtensionTemplate string `mapstructure:"network_extension_template"`
}

func (n *NetworkCreate) setDefaults() {
	if n.Mtu == 0 {
		n.Mtu = DefaultMtu
	}
	if n.NetworkTemplate == "" {
		n.NetworkTemplate = DefaultNetworkTemplate
	}
	if n.NetworkExtensionTemplate == "" {
		n.NetworkExtensionTemplate = DefaultNetworkExtensionTemplate
	}
}

func (n NetworkCreate) vrf() string {
	if n.IsLayer2Only {
		return layer2Vrf
	}
	return n.VrfName
}

func (n NetworkCreate) templateConfig() (string, error) {
	vlan := ""
	if n.VlanID != 0 {
		vlan = strconv.Itoa(n.VlanID)
	}
	return newBody().
		set("networkName", n.NetworkName).
		set("segmentId", strconv.Itoa(n.NetworkID)).
		set("vrfName", n.vrf()).
		set("vlanId", vlan).
		set("vlanName", n.VlanName).
		set("gatewayIpAddress", n.GatewayIPAddress).
		set("gatewayIpV6Address", n.GatewayIpv6Address).
		set("intfDescription", n.IntfDescription).
		set("mtu", strconv.Itoa(n.Mtu)).
		set("isLayer2Only", strconv.FormatBool(n.IsLayer2Only)).
		set("suppressArp", strconv.FormatBool(n.SuppressArp)).
		set("mcastGroup", n.McastGroup).
		set("tag", "12345").
		String()
}

func (n NetworkCreate) payload() (string, error) {
	cfg, err := n.templateConfig()
	if err != nil {
		return "", err
	}
	return newBody().
		set("fabric", n.FabricName).
		set("networkName", n.NetworkName).
		set("networkId", n.NetworkID).
		set("vrf", n.vrf()).
		set("networkTemplate", n.NetworkTemplate).
		set("networkExtensionTemplate", n.NetworkExtensionTemplate).
		set("networkTemplateConfig", cfg).
		String()
}

func (c *Client) CreateNetwork(ctx context.Context, n NetworkCreate) error {
	n.setDefaults()
	if err := check(n); err != nil {
		return err
	}
	if err := c.requireFabric(ctx, n.FabricName); err != nil {
		return err
	}
	if !n.IsLayer2Only {
		exists, err := c.VrfExists(ctx, n.FabricName, n.VrfName)
		if err != nil {
			return err
		}
		if !exists {
			return errors.Wrapf(ErrNotFound, "vrf %s in fabric %s", n.VrfName, n.FabricName)
		}
	}
	payload, err := n.payload()
	if err != nil {
		return err
	}
	if _, err := c.send(ctx, http.MethodPost, networksPath(n.FabricName), payload); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"fabric":     n.FabricName,
		"network":    n.NetworkName,
		"network id": n.NetworkID,
		"vrf":        n.vrf(),
	}).Info("Created network")
	return nil
}

// NetworkDelete : networks to remove from a fabric
type NetworkDelete struct {
	FabricName   string   `mapstructure:"fabric_name" validate:"required,fabricname"`
	NetworkNames []string `mapstructure:"network_names" validate:"required,min=1,dive,required,objname"`
}

func (c *Client) DeleteNetworks(ctx context.Context, d NetworkDelete) error {
	if err := check(d); err != nil {
		return err
	}
	if err := c.requireFabric(ctx, d.FabricName); err != nil {
		return err
	}
	path := pathOf(topDownPath, d.FabricName) + "/bulk-delete/networks?network-names=" + strings.Join(d.NetworkNames, ",")
	if _, err := c.send(ctx, http.MethodDelete, path, ""); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"fabric":   d.FabricName,
		"networks": strings.Join(d.NetworkNames, ","),
	}).Info("Deleted network(s)")
	return nil
}

// NetworkAttach : switch ports a network is extended to
type NetworkAttach struct {
	FabricName    string   `mapstructure:"fabric_name" validate:"required,fabricname"`
	NetworkName   string   `mapstructure:"network_name" validate:"required,objname"`
	SerialNumbers []string `mapstructure:"serial_numbers" validate:"required,min=1,dive,serialnumber"`
	SwitchPorts   []string `mapstructure:"switch_ports"`
	VlanID        int      `mapstructure:"vlan_id" validate:"omitempty,min=2,max=4094"`
	Untagged      bool     `mapstructure:"untagged"`
	Deploy        bool     `mapstructure:"deploy"`
}

func (a NetworkAttach) payload() (string, error) {
	attachments := newList()
	for _, serial := range a.SerialNumbers {
		attachments.add(newBody().
			set("fabric", a.FabricName).
			set("networkName", a.NetworkName).
			set("serialNumber", serial).
			set("switchPorts", strings.Join(a.SwitchPorts, ",")).
			set("detachSwitchPorts", "").
			set("vlan", a.VlanID).
			set("dot1QVlan", 1).
			set("untagged", a.Untagged).
			set("freeformConfig", "").
			set("deployment", true).
			set("extensionValues", "").
			set("instanceValues", ""))
	}
	return newList().add(newBody().
		set("networkName", a.NetworkName).
		setList("lanAttachList", attachments)).
		String()
}

func (c *Client) AttachNetwork(ctx context.Context, a NetworkAttach) error {
	if err := check(a); err != nil {
		return err
	}
	exists, err := c.NetworkExists(ctx, a.FabricName, a.NetworkName)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrapf(ErrNotFound, "network %s in fabric %s", a.NetworkName, a.FabricName)
	}
	payload, err := a.payload()
	if err != nil {
		return err
	}
	if _, err := c.send(ctx, http.MethodPost, networksPath(a.FabricName)+"/attachments", payload); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"fabric":   a.FabricName,
		"network":  a.NetworkName,
		"switches": strings.Join(a.SerialNumbers, ","),
		"ports":    strings.Join(a.SwitchPorts, ","),
	}).Info("Attached network")
	if a.Deploy {
		return c.DeployNetworks(ctx, a.FabricName, a.NetworkName)
	}
	return nil
}

func (c *Client) DeployNetworks(ctx context.Context, fabric string, names ...string) error {
	if len(names) == 0 {
		return &ValidationError{Problems: []string{"network_names is required"}}
	}
	payload, err := newBody().set("networkNames", strings.Join(names, ",")).String()
	if err != nil {
		return err
	}
	if _, err := c.send(ctx, http.MethodPost, networksPath(fabric)+"/deployments", payload); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"fabric":   fabric,
		"networks": strings.Join(names, ","),
	}).Info("Deployed network(s)")
	return nil
}
