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
// VRF
////////////////////////////////////////////////////////////

const (
	DefaultVrfTemplate          = "Default_VRF_Universal"
	DefaultVrfExtensionTemplate = "Default_VRF_Extension_Universal"
	DefaultMtu                  = 9216
)

type Vrf struct {
	json        JSON
	Fabric      string
	Name        string
	ID          int64
	VlanID      int64
	Status      string
	Description string
}

func newVrf(json JSON) Vrf {
	// vrfTemplateConfig is a JSON document encoded as a string.
	cfg := gjson.Parse(json.Get("vrfTemplateConfig").Str)
	return Vrf{
		json:        json,
		Fabric:      json.Get("fabric").Str,
		Name:        json.Get("vrfName").Str,
		ID:          json.Get("vrfId").Int(),
		VlanID:      cfg.Get("vrfVlanId").Int(),
		Status:      json.Get("vrfStatus").Str,
		Description: cfg.Get("vrfDescription").Str,
	}
}

// MarshalJSON : marshal vrf
func (v Vrf) MarshalJSON() ([]byte, error) {
	return []byte(v.json.Raw), nil
}

func vrfsPath(fabric string) string {
	return pathOf(topDownPath, fabric) + "/vrfs"
}

func (c *Client) ListVrfs(ctx context.Context, fabric string) (res []Vrf, err error) {
	json, err := c.get(ctx, vrfsPath(fabric), "fabric "+fabric)
	if err != nil {
		return
	}
	for _, record := range json.Array() {
		res = append(res, newVrf(record))
	}
	return
}

func (c *Client) VrfExists(ctx context.Context, fabric, name string) (bool, error) {
	vrfs, err := c.ListVrfs(ctx, fabric)
	if err != nil {
		return false, err
	}
	for _, vrf := range vrfs {
		if vrf.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// VrfCreate : fields for a new VRF
type VrfCreate struct {
	FabricName           string `mapstructure:"fabric_name" validate:"required,fabricname"`
	VrfName              string `mapstructure:"vrf_name" validate:"required,objname,max=32"`
	VrfID                int    `mapstructure:"vrf_id" validate:"required,min=1,max=16777214"`
	VlanID               int    `mapstructure:"vlan_id" validate:"omitempty,min=2,max=4094"`
	VrfDescription       string `mapstructure:"vrf_description" validate:"max=254"`
	VrfIntfDescription   string `mapstructure:"vrf_intf_description" validate:"max=254"`
	Mtu                  int    `mapstructure:"mtu" validate:"min=68,max=9216"`
	MaxBgpPaths          int    `mapstructure:"max_bgp_paths" validate:"min=1,max=64"`
	MaxIbgpPaths         int    `mapstructure:"max_ibgp_paths" validate:"min=1,max=64"`
	VrfTemplate          string `mapstructure:"vrf_template"`
	VrfExtensionTemplate string `mapstructure:"vrf_extension_template"`
}

func (v *VrfCreate) setDefaults() {
	if v.Mtu == 0 {
		v.Mtu = DefaultMtu
	}
	if v.MaxBgpPaths == 0 {
		v.MaxBgpPaths = 1
	}
	if v.MaxIbgpPaths == 0 {
		v.MaxIbgpPaths = 2
	}
	if v.VrfTemplate == "" {
		v.VrfTemplate = DefaultVrfTemplate
	}
	if v.VrfExtensionTemplate == "" {
		v.VrfExtensionTemplate = DefaultVrfExtensionTemplate
	}
}

// templateConfig values are all strings; the controller template expects that.
func (v VrfCreate) templateConfig() (string, error) {
	b := newBody().
		set("vrfSegmentId", strconv.Itoa(v.VrfID)).
		set("vrfName", v.VrfName).
		set("vrfDescription", v.VrfDescription).
		set("vrfIntfDescription", v.VrfIntfDescription).
		set("mtu", strconv.Itoa(v.Mtu)).
		set("maxBgpPaths", strconv.Itoa(v.MaxBgpPaths)).
		set("maxIbgpPaths", strconv.Itoa(v.MaxIbgpPaths)).
		set("tag", "12345").
		set("advertiseHostRouteFlag", "false").
		set("advertiseDefaultRouteFlag", "true").
		set("configureStaticDefaultRouteFlag", "true").
		set("ipv6LinkLocalFlag", "true")
	if v.VlanID != 0 {
		b.set("vrfVlanId", strconv.Itoa(v.VlanID))
	} else {
		b.set("vrfVlanId", "")
	}
	return b.String()
}

func (v VrfCreate) payload() (string, error) {
	cfg, err := v.templateConfig()
	if err != nil {
		return "", err
	}
	return newBody().
		set("fabric", v.FabricName).
		set("vrfName", v.VrfName).
		set("vrfId", v.VrfID).
		set("vrfTemplate", v.VrfTemplate).
		set("vrfExtensionTemplate", v.VrfExtensionTemplate).
		set("vrfTemplateConfig", cfg).
		set("serviceVrfTemplate", nil).
		set("source", nil).
		String()
}

func (c *Client) CreateVrf(ctx context.Context, v VrfCreate) error {
	v.setDefaults()
	if err := check(v); err != nil {
		return err
	}
	if err := c.requireFabric(ctx, v.FabricName); err != nil {
		return err
	}
	payload, err := v.payload()
	if err != nil {
		return err
	}
	if _, err := c.send(ctx, http.MethodPost, vrfsPath(v.FabricName), payload); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"fabric": v.FabricName,
		"vrf":    v.VrfName,
		"vrf id": v.VrfID,
	}).Info("Created VRF")
	return nil
}

// VrfDelete : VRFs to remove from a fabric
type VrfDelete struct {
	FabricName string   `mapstructure:"fabric_name" validate:"required,fabricname"`
	VrfNames   []string `mapstructure:"vrf_names" validate:"required,min=1,dive,required,objname"`
}

func (c *Client) DeleteVrfs(ctx context.Context, d VrfDelete) error {
	if err := check(d); err != nil {
		return err
	}
	if err := c.requireFabric(ctx, d.FabricName); err != nil {
		return err
	}
	path := pathOf(topDownPath, d.FabricName) + "/bulk-delete/vrfs?vrf-names=" + strings.Join(d.VrfNames, ",")
	if _, err := c.send(ctx, http.MethodDelete, path, ""); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"fabric": d.FabricName,
		"vrfs":   strings.Join(d.VrfNames, ","),
	}).Info("Deleted VRF(s)")
	return nil
}

// VrfAttach : switches a VRF is extended to
type VrfAttach struct {
	FabricName    string   `mapstructure:"fabric_name" validate:"required,fabricname"`
	VrfName       string   `mapstructure:"vrf_name" validate:"required,objname"`
	SerialNumbers []string `mapstructure:"serial_numbers" validate:"required,min=1,dive,serialnumber"`
	VlanID        int      `mapstructure:"vlan_id" validate:"omitempty,min=2,max=4094"`
	Deploy        bool     `mapstructure:"deploy"`
}

func (a VrfAttach) payload() (string, error) {
	attachments := newList()
	for _, serial := range a.SerialNumbers {
		attachments.add(newBody().
			set("fabric", a.FabricName).
			set("vrfName", a.VrfName).
			set("serialNumber", serial).
			set("vlan", a.VlanID).
			set("deployment", true).
			set("extensionValues", "").
			set("instanceValues", "").
			set("freeformConfig", ""))
	}
	raw, err := newList().add(newBody().
		set("vrfName", a.VrfName).
		setList("lanAttachList", attachments)).
		String()
	return raw, err
}

func (c *Client) AttachVrf(ctx context.Context, a VrfAttach) error {
	if err := check(a); err != nil {
		return err
	}
	exists, err := c.VrfExists(ctx, a.FabricName, a.VrfName)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrapf(ErrNotFound, "vrf %s in fabric %s", a.VrfName, a.FabricName)
	}
	payload, err := a.payload()
	if err != nil {
		return err
	}
	if _, err := c.send(ctx, http.MethodPost, vrfsPath(a.FabricName)+"/attachments", payload); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"fabric":   a.FabricName,
		"vrf":      a.VrfName,
		"switches": strings.Join(a.SerialNumbers, ","),
	}).Info("Attached VRF")
	if a.Deploy {
		return c.DeployVrfs(ctx, a.FabricName, a.VrfName)
	}
	return nil
}

func (c *Client) DeployVrfs(ctx context.Context, fabric string, names ...string) error {
	if len(names) == 0 {
		return &ValidationError{Problems: []string{"vrf_names is required"}}
	}
	payload, err := newBody().set("vrfNames", strings.Join(names, ",")).String()
	if err != nil {
		return err
	}
	if _, err := c.send(ctx, http.MethodPost, vrfsPath(fabric)+"/deployments", payload); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"fabric": fabric,
		"vrfs":   strings.Join(names, ","),
	}).Info("Deployed VRF(s)")
	return nil
}
