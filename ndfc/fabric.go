package ndfc

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

////////////////////////////////////////////////////////////
// Fabric
////////////////////////////////////////////////////////////

// Fabric types and the controller template each one is created from.
var fabricTemplates = map[string]string{
	"VXLAN_EVPN":     "Easy_Fabric",
	"VXLAN_EVPN_MSD": "MSD_Fabric",
	"LAN_CLASSIC":    "LAN_Classic",
	"ISN":            "External_Fabric",
	"IPFM":           "Easy_Fabric_IPFM",
}

// Fabric types whose template needs BGP_AS.
var fabricNeedsAsn = map[string]bool{
	"VXLAN_EVPN": true,
	"ISN":        true,
}

type Fabric struct {
	json            JSON
	Name            string
	ID              int64
	Template        string
	Technology      string
	Asn             string
	ReplicationMode string
}

func newFabric(json JSON) Fabric {
	asn := json.Get("nvPairs.BGP_AS").Str
	if asn == "" {
		asn = json.Get("asn").String()
	}
	return Fabric{
		json:            json,
		Name:            json.Get("fabricName").Str,
		ID:              json.Get("id").Int(),
		Template:        json.Get("templateName").Str,
		Technology:      json.Get("fabricTechnology").Str,
		Asn:             asn,
		ReplicationMode: json.Get("nvPairs.REPLICATION_MODE").Str,
	}
}

// MarshalJSON : marshal fabric
func (f Fabric) MarshalJSON() ([]byte, error) {
	return []byte(f.json.Raw), nil
}

func (c *Client) ListFabrics(ctx context.Context) (res []Fabric, err error) {
	json, err := c.get(ctx, controlPath+"/fabrics", "fabrics")
	if err != nil {
		return
	}
	for _, record := range json.Array() {
		res = append(res, newFabric(record))
	}
	return
}

func (c *Client) GetFabric(ctx context.Context, name string) (Fabric, error) {
	json, err := c.get(ctx, pathOf(controlPath+"/fabrics", name), "fabric "+name)
	if err != nil {
		return Fabric{}, err
	}
	return newFabric(json), nil
}

func (c *Client) FabricExists(ctx context.Context, name string) (bool, error) {
	fabrics, err := c.ListFabrics(ctx)
	if err != nil {
		return false, err
	}
	for _, fabric := range fabrics {
		if fabric.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) requireFabric(ctx context.Context, name string) error {
	ok, err := c.FabricExists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrNotFound, "fabric %s", name)
	}
	return nil
}

// FabricCreate : fields for a new fabric
type FabricCreate struct {
	FabricName      string            `mapstructure:"fabric_name" validate:"required,fabricname"`
	FabricType      string            `mapstructure:"fabric_type" validate:"required,oneof=VXLAN_EVPN VXLAN_EVPN_MSD LAN_CLASSIC ISN IPFM"`
	BgpAs           string            `mapstructure:"bgp_as" validate:"omitempty,bgpasn"`
	ReplicationMode string            `mapstructure:"replication_mode" validate:"omitempty,oneof=Multicast Ingress"`
	AnycastGwMac    string            `mapstructure:"anycast_gw_mac" validate:"omitempty,ciscomac"`
	UnderlayIsV6    bool              `mapstructure:"underlay_is_v6"`
	NvPairs         map[string]string `mapstructure:"nv_pairs"`
}

// Template is the controller template behind FabricType.
func (f FabricCreate) Template() string {
	return fabricTemplates[f.FabricType]
}

func (f FabricCreate) validate() error {
	if err := check(f); err != nil {
		return err
	}
	if fabricNeedsAsn[f.FabricType] && f.BgpAs == "" {
		return &ValidationError{Problems: []string{
			fmt.Sprintf("bgp_as is required for fabric_type %s", f.FabricType),
		}}
	}
	return nil
}

// payload is the flat nvPairs object the fabric templates take.
// Typed fields win over nv_pairs entries of the same name.
func (f FabricCreate) payload() (string, error) {
	b := newBody().setMap("", f.NvPairs)
	b.set("FABRIC_NAME", f.FabricName)
	if f.BgpAs != "" {
		b.set("BGP_AS", f.BgpAs)
	}
	if f.ReplicationMode != "" {
		b.set("REPLICATION_MODE", f.ReplicationMode)
	}
	if f.AnycastGwMac != "" {
		b.set("ANYCAST_GW_MAC", f.AnycastGwMac)
	}
	if f.FabricType == "VXLAN_EVPN" {
		b.set("UNDERLAY_IS_V6", strconv.FormatBool(f.UnderlayIsV6))
	}
	return b.String()
}

func (c *Client) CreateFabric(ctx context.Context, f FabricCreate) error {
	if err := f.validate(); err != nil {
		return err
	}
	exists, err := c.FabricExists(ctx, f.FabricName)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(ErrAlreadyExists, "fabric %s", f.FabricName)
	}
	payload, err := f.payload()
	if err != nil {
		return err
	}
	path := pathOf(controlPath+"/fabrics", f.FabricName, f.Template())
	if _, err := c.send(ctx, http.MethodPost, path, payload); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"fabric":   f.FabricName,
		"type":     f.FabricType,
		"template": f.Template(),
	}).Info("Created fabric")
	return nil
}

func (c *Client) DeleteFabric(ctx context.Context, name string) error {
	if err := c.requireFabric(ctx, name); err != nil {
		return err
	}
	if _, err := c.send(ctx, http.MethodDelete, pathOf(controlPath+"/fabrics", name), ""); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"fabric": name,
	}).Info("Deleted fabric")
	return nil
}

// SaveFabricConfig recalculates the fabric's intended configuration.
func (c *Client) SaveFabricConfig(ctx context.Context, name string) error {
	if err := c.requireFabric(ctx, name); err != nil {
		return err
	}
	path := pathOf(controlPath+"/fabrics", name) + "/config-save"
	if _, err := c.send(ctx, http.MethodPost, path, ""); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"fabric": name,
	}).Info("Saved fabric config")
	return nil
}

// DeployFabricConfig pushes pending configuration to every switch in the fabric.
func (c *Client) DeployFabricConfig(ctx context.Context, name string, forceShowRun bool) error {
	if err := c.requireFabric(ctx, name); err != nil {
		return err
	}
	path := fmt.Sprintf("%s/config-deploy?forceShowRun=%t", pathOf(controlPath+"/fabrics", name), forceShowRun)
	if _, err := c.send(ctx, http.MethodPost, path, ""); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"fabric": name,
	}).Info("Deployed fabric config")
	return nil
}
