package ndfc

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

////////////////////////////////////////////////////////////
// Inventory
////////////////////////////////////////////////////////////

// Switch roles accepted by the controller.
var switchRoles = []string{
	"leaf",
	"spine",
	"border",
	"border_spine",
	"border_gateway",
	"border_gateway_spine",
	"super_spine",
	"border_super_spine",
	"border_gateway_super_spine",
	"access",
	"aggregation",
	"edge_router",
	"core_router",
	"tor",
}

type Switch struct {
	json         JSON
	SerialNumber string
	Name         string
	IPAddress    string
	Model        string
	Release      string
	Role         string
	Fabric       string
	Mode         string
	Status       string
	Managable    bool
}

func newSwitch(json JSON) Switch {
	name := json.Get("logicalName").Str
	if name == "" {
		name = json.Get("hostName").Str
	}
	return Switch{
		json:         json,
		SerialNumber: json.Get("serialNumber").Str,
		Name:         name,
		IPAddress:    json.Get("ipAddress").Str,
		Model:        json.Get("model").Str,
		Release:      json.Get("release").Str,
		Role:         json.Get("switchRole").Str,
		Fabric:       json.Get("fabricName").Str,
		Mode:         json.Get("mode").Str,
		Status:       json.Get("status").Str,
		Managable:    json.Get("managable").Bool(),
	}
}

// MarshalJSON : marshal switch
func (s Switch) MarshalJSON() ([]byte, error) {
	return []byte(s.json.Raw), nil
}

func switches(json JSON) (res []Switch) {
	for _, record := range json.Array() {
		res = append(res, newSwitch(record))
	}
	return
}

func (c *Client) ListSwitches(ctx context.Context, fabric string) ([]Switch, error) {
	path := pathOf(controlPath+"/fabrics", fabric) + "/inventory/switchesByFabric"
	json, err := c.get(ctx, path, "fabric "+fabric)
	if err != nil {
		return nil, err
	}
	return switches(json), nil
}

func (c *Client) ListAllSwitches(ctx context.Context) ([]Switch, error) {
	json, err := c.get(ctx, inventoryPath+"/allswitches", "inventory")
	if err != nil {
		return nil, err
	}
	return switches(json), nil
}

func (c *Client) findSwitch(ctx context.Context, fabric, what string, match func(Switch) bool) (Switch, error) {
	all, err := c.ListSwitches(ctx, fabric)
	if err != nil {
		return Switch{}, err
	}
	for _, s := range all {
		if match(s) {
			return s, nil
		}
	}
	return Switch{}, errors.Wrapf(ErrNotFound, "switch %s in fabric %s", what, fabric)
}

func (c *Client) SwitchBySerial(ctx context.Context, fabric, serial string) (Switch, error) {
	return c.findSwitch(ctx, fabric, serial, func(s Switch) bool {
		return s.SerialNumber == serial
	})
}

func (c *Client) SwitchByIP(ctx context.Context, fabric, ip string) (Switch, error) {
	return c.findSwitch(ctx, fabric, ip, func(s Switch) bool {
		return s.IPAddress == ip
	})
}

// SwitchFabric returns the name of the fabric the switch belongs to.
func (c *Client) SwitchFabric(ctx context.Context, serial string) (string, error) {
	json, err := c.get(ctx, pathOf(controlPath+"/switches", serial)+"/fabric-name", "switch "+serial)
	if err != nil {
		return "", err
	}
	return json.Get("fabricName").Str, nil
}

// SwitchRole : role to assign to a switch
type SwitchRole struct {
	SerialNumber string `mapstructure:"serial_number" validate:"required,serialnumber"`
	Role         string `mapstructure:"role" validate:"required,switchrole"`
}

func (c *Client) SetSwitchRole(ctx context.Context, r SwitchRole) error {
	if err := check(r); err != nil {
		return err
	}
	payload, err := newList().add(newBody().
		set("serialNumber", r.SerialNumber).
		set("role", r.Role)).
		String()
	if err != nil {
		return err
	}
	if _, err := c.send(ctx, http.MethodPost, controlPath+"/switches/roles", payload); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"switch": r.SerialNumber,
		"role":   r.Role,
	}).Info("Set switch role")
	return nil
}

// MaintenanceMode : switch to move into or out of maintenance mode
type MaintenanceMode struct {
	FabricName   string `mapstructure:"fabric_name" validate:"required,fabricname"`
	SerialNumber string `mapstructure:"serial_number" validate:"required,serialnumber"`
	Enable       bool   `mapstructure:"enable"`
}

func (c *Client) SetMaintenanceMode(ctx context.Context, m MaintenanceMode) error {
	if err := check(m); err != nil {
		return err
	}
	verb := http.MethodDelete
	if m.Enable {
		verb = http.MethodPost
	}
	path := pathOf(controlPath+"/fabrics", m.FabricName, "switches", m.SerialNumber) + "/maintenance-mode"
	if _, err := c.send(ctx, verb, path, ""); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"fabric":      m.FabricName,
		"switch":      m.SerialNumber,
		"maintenance": m.Enable,
	}).Info("Set maintenance mode")
	return nil
}

// SwitchRemove : switches to remove from a fabric
type SwitchRemove struct {
	FabricName    string   `mapstructure:"fabric_name" validate:"required,fabricname"`
	SerialNumbers []string `mapstructure:"serial_numbers" validate:"required,min=1,dive,serialnumber"`
}

func (c *Client) RemoveSwitches(ctx context.Context, r SwitchRemove) error {
	if err := check(r); err != nil {
		return err
	}
	for _, serial := range r.SerialNumbers {
		if _, err := c.SwitchBySerial(ctx, r.FabricName, serial); err != nil {
			return err
		}
		path := pathOf(controlPath+"/fabrics", r.FabricName, "switches", serial)
		if _, err := c.send(ctx, http.MethodDelete, path, ""); err != nil {
			return err
		}
		c.log.WithFields(logrus.Fields{
			"fabric": r.FabricName,
			"switch": serial,
		}).Info("Removed switch")
	}
	return nil
}
