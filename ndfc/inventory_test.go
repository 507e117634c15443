package ndfc_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ndfcctl/ndfc"
	"ndfcctl/rest"
	"ndfcctl/rest/resttest"
)

const switchesJSON = `[
	{"serialNumber": "FDO1111", "logicalName": "leaf-11", "ipAddress": "10.1.1.11", "model": "N9K-C93180YC-EX",
	 "release": "10.2(5)", "switchRole": "leaf", "fabricName": "f1", "mode": "Normal", "status": "ok", "managable": true},
	{"serialNumber": "FDO2222", "hostName": "spine-21", "ipAddress": "10.1.1.21", "switchRole": "spine",
	 "fabricName": "f1", "mode": "Maintenance", "status": "ok", "managable": true}
]`

func withSwitches(sender *resttest.Sender) *resttest.Sender {
	return sender.On(http.MethodGet, control+"/fabrics/f1/inventory/switchesByFabric", resttest.OK(switchesJSON))
}

func TestListSwitches(t *testing.T) {
	c, _ := newClient(withSwitches(resttest.NewSender()))

	switches, err := c.ListSwitches(context.Background(), "f1")
	require.NoError(t, err)
	require.Len(t, switches, 2)
	assert.Equal(t, "leaf-11", switches[0].Name)
	assert.Equal(t, "spine-21", switches[1].Name)
	assert.Equal(t, "Maintenance", switches[1].Mode)
	assert.True(t, switches[0].Managable)
}

func TestListAllSwitches(t *testing.T) {
	sender := resttest.NewSender().On(http.MethodGet, inventory+"/allswitches", resttest.OK(switchesJSON))
	c, _ := newClient(sender)

	switches, err := c.ListAllSwitches(context.Background())
	require.NoError(t, err)
	assert.Len(t, switches, 2)
}

func TestFindSwitch(t *testing.T) {
	c, _ := newClient(withSwitches(resttest.NewSender()))

	s, err := c.SwitchBySerial(context.Background(), "f1", "FDO2222")
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.21", s.IPAddress)

	s, err = c.SwitchByIP(context.Background(), "f1", "10.1.1.11")
	require.NoError(t, err)
	assert.Equal(t, "FDO1111", s.SerialNumber)

	_, err = c.SwitchByIP(context.Background(), "f1", "10.1.1.99")
	assert.True(t, errors.Is(err, ndfc.ErrNotFound))
	assert.EqualError(t, err, "switch 10.1.1.99 in fabric f1: not found")
}

func TestSwitchFabric(t *testing.T) {
	sender := resttest.NewSender().
		On(http.MethodGet, control+"/switches/FDO1111/fabric-name", resttest.OK(`{"fabricName": "f1"}`))
	c, _ := newClient(sender)

	name, err := c.SwitchFabric(context.Background(), "FDO1111")
	require.NoError(t, err)
	assert.Equal(t, "f1", name)
}

func TestSetSwitchRole(t *testing.T) {
	sender := resttest.NewSender().On(http.MethodPost, control+"/switches/roles", resttest.OK(""))
	c, _ := newClient(sender)

	require.NoError(t, c.SetSwitchRole(context.Background(), ndfc.SwitchRole{SerialNumber: "FDO1111", Role: "border_gateway"}))
	assert.Equal(t, "border_gateway", sender.Payload(http.MethodPost, control+"/switches/roles").Get("0.role").Str)

	err := c.SetSwitchRole(context.Background(), ndfc.SwitchRole{SerialNumber: "FDO1111"})
	assert.EqualError(t, err, "invalid fields: role is required")
}

func TestSetMaintenanceMode(t *testing.T) {
	path := control + "/fabrics/f1/switches/FDO1111/maintenance-mode"
	sender := resttest.NewSender().
		On(http.MethodPost, path, resttest.OK("")).
		On(http.MethodDelete, path, resttest.OK(""))
	c, _ := newClient(sender)

	require.NoError(t, c.SetMaintenanceMode(context.Background(), ndfc.MaintenanceMode{FabricName: "f1", SerialNumber: "FDO1111", Enable: true}))
	require.NoError(t, c.SetMaintenanceMode(context.Background(), ndfc.MaintenanceMode{FabricName: "f1", SerialNumber: "FDO1111"}))
	assert.Len(t, sender.Sent(http.MethodPost, path), 1)
	assert.Len(t, sender.Sent(http.MethodDelete, path), 1)
}

func TestRemoveSwitches(t *testing.T) {
	sender := withSwitches(resttest.NewSender()).
		On(http.MethodDelete, control+"/fabrics/f1/switches/FDO2222", resttest.OK(""))
	c, _ := newClient(sender)

	require.NoError(t, c.RemoveSwitches(context.Background(), ndfc.SwitchRemove{FabricName: "f1", SerialNumbers: []string{"FDO2222"}}))

	err := c.RemoveSwitches(context.Background(), ndfc.SwitchRemove{FabricName: "f1", SerialNumbers: []string{"FDO9999"}})
	assert.True(t, errors.Is(err, ndfc.ErrNotFound))
}

func TestRemoveSwitchesLogsEachRemoval(t *testing.T) {
	sender := withSwitches(resttest.NewSender()).
		On(http.MethodDelete, control+"/fabrics/f1/switches/FDO1111", resttest.OK("")).
		On(http.MethodDelete, control+"/fabrics/f1/switches/FDO2222", resttest.Status(http.StatusInternalServerError, `{"message": "switch busy"}`))
	logger, hook := test.NewNullLogger()
	rs := rest.NewRestSend(sender, logger)
	rs.Timeout = time.Millisecond
	rs.SendInterval = time.Millisecond
	c := ndfc.New(rs, logger)

	err := c.RemoveSwitches(context.Background(), ndfc.SwitchRemove{FabricName: "f1", SerialNumbers: []string{"FDO1111", "FDO2222"}})
	require.Error(t, err)

	var removed []string
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Removed switch" {
			removed = append(removed, entry.Data["switch"].(string))
		}
	}
	assert.Equal(t, []string{"FDO1111"}, removed)
	assert.Len(t, sender.Sent(http.MethodDelete, control+"/fabrics/f1/switches/FDO2222"), 1)
}
