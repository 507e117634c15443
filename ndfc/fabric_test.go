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

const (
	control   = "/appcenter/cisco/ndfc/api/v1/lan-fabric/rest/control"
	topDown   = "/appcenter/cisco/ndfc/api/v1/lan-fabric/rest/top-down/fabrics"
	inventory = "/appcenter/cisco/ndfc/api/v1/lan-fabric/rest/inventory"
	policyMgt = "/appcenter/cisco/ndfc/api/v1/imagemanagement/rest/policymgnt"

	fabricsJSON = `[
		{"fabricName": "f1", "id": 3, "templateName": "Easy_Fabric", "fabricTechnology": "VXLANFabric",
		 "nvPairs": {"BGP_AS": "65001", "REPLICATION_MODE": "Multicast"}},
		{"fabricName": "f2", "id": 4, "templateName": "LAN_Classic", "asn": 65002, "nvPairs": {}}
	]`
)

// newClient returns a client that makes one attempt per request.
func newClient(sender *resttest.Sender) (*ndfc.Client, *rest.RestSend) {
	logger, _ := test.NewNullLogger()
	rs := rest.NewRestSend(sender, logger)
	rs.Timeout = time.Millisecond
	rs.SendInterval = time.Millisecond
	c := ndfc.New(rs, logger)
	c.PollInterval = time.Millisecond
	return c, rs
}

func withFabrics(sender *resttest.Sender) *resttest.Sender {
	return sender.On(http.MethodGet, control+"/fabrics", resttest.OK(fabricsJSON))
}

func TestVersion(t *testing.T) {
	sender := resttest.NewSender().On(http.MethodGet, "/appcenter/cisco/ndfc/api/about/version",
		resttest.OK(`{"version": "12.1.3b", "mode": "LAN", "isHaEnabled": false, "isMediaController": false}`))
	c, _ := newClient(sender)

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12.1.3b", v.Version)
	assert.Equal(t, "LAN", v.Mode)
	assert.False(t, v.IsHaEnabled)
}

func TestListFabrics(t *testing.T) {
	c, _ := newClient(withFabrics(resttest.NewSender()))

	fabrics, err := c.ListFabrics(context.Background())
	require.NoError(t, err)
	require.Len(t, fabrics, 2)
	assert.Equal(t, "f1", fabrics[0].Name)
	assert.Equal(t, int64(3), fabrics[0].ID)
	assert.Equal(t, "65001", fabrics[0].Asn)
	assert.Equal(t, "Multicast", fabrics[0].ReplicationMode)
	assert.Equal(t, "65002", fabrics[1].Asn)

	exists, err := c.FabricExists(context.Background(), "f2")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = c.FabricExists(context.Background(), "f9")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetFabricNotFound(t *testing.T) {
	sender := resttest.NewSender().On(http.MethodGet, control+"/fabrics/f9", resttest.Status(404, ""))
	c, _ := newClient(sender)

	_, err := c.GetFabric(context.Background(), "f9")
	assert.True(t, errors.Is(err, ndfc.ErrNotFound))
	assert.EqualError(t, err, "fabric f9: not found")
}

func TestCreateFabric(t *testing.T) {
	path := control + "/fabrics/f3/Easy_Fabric"
	sender := withFabrics(resttest.NewSender()).On(http.MethodPost, path, resttest.OK(`{}`))
	c, _ := newClient(sender)

	err := c.CreateFabric(context.Background(), ndfc.FabricCreate{
		FabricName:      "f3",
		FabricType:      "VXLAN_EVPN",
		BgpAs:           "65000.1",
		ReplicationMode: "Ingress",
		AnycastGwMac:    "2020.0000.00aa",
		NvPairs:         map[string]string{"ENABLE_NXAPI": "true", "FABRIC_NAME": "ignored"},
	})
	require.NoError(t, err)

	payload := sender.Payload(http.MethodPost, path)
	assert.Equal(t, "f3", payload.Get("FABRIC_NAME").Str)
	assert.Equal(t, "65000.1", payload.Get("BGP_AS").Str)
	assert.Equal(t, "Ingress", payload.Get("REPLICATION_MODE").Str)
	assert.Equal(t, "2020.0000.00aa", payload.Get("ANYCAST_GW_MAC").Str)
	assert.Equal(t, "false", payload.Get("UNDERLAY_IS_V6").Str)
	assert.Equal(t, "true", payload.Get("ENABLE_NXAPI").Str)
}

func TestCreateFabricTemplates(t *testing.T) {
	tests := []struct {
		fabricType string
		template   string
	}{
		{"VXLAN_EVPN_MSD", "MSD_Fabric"},
		{"LAN_CLASSIC", "LAN_Classic"},
		{"IPFM", "Easy_Fabric_IPFM"},
	}
	for _, tt := range tests {
		path := control + "/fabrics/f3/" + tt.template
		sender := withFabrics(resttest.NewSender()).On(http.MethodPost, path, resttest.OK(""))
		c, _ := newClient(sender)

		f := ndfc.FabricCreate{FabricName: "f3", FabricType: tt.fabricType, UnderlayIsV6: true}
		assert.Equal(t, tt.template, f.Template())
		require.NoError(t, c.CreateFabric(context.Background(), f), tt.fabricType)
		payload := sender.Payload(http.MethodPost, path)
		assert.False(t, payload.Get("UNDERLAY_IS_V6").Exists(), tt.fabricType)
		assert.False(t, payload.Get("BGP_AS").Exists(), tt.fabricType)
	}
}

func TestCreateFabricExists(t *testing.T) {
	sender := withFabrics(resttest.NewSender())
	c, _ := newClient(sender)

	err := c.CreateFabric(context.Background(), ndfc.FabricCreate{FabricName: "f1", FabricType: "LAN_CLASSIC"})
	assert.True(t, errors.Is(err, ndfc.ErrAlreadyExists))
	assert.Len(t, sender.Requests(), 1)
}

func TestCreateFabricInvalid(t *testing.T) {
	c, _ := newClient(resttest.NewSender())

	tests := []struct {
		fabric ndfc.FabricCreate
		want   string
	}{
		{
			ndfc.FabricCreate{FabricName: "f1", FabricType: "VXLAN_EVPN"},
			"invalid fields: bgp_as is required for fabric_type VXLAN_EVPN",
		},
		{
			ndfc.FabricCreate{FabricName: "1f", FabricType: "LAN_CLASSIC"},
			"invalid fields: fabric_name: 1f is not a valid fabricname",
		},
		{
			ndfc.FabricCreate{FabricName: "f1", FabricType: "FOO"},
			"invalid fields: fabric_type must be one of [VXLAN_EVPN VXLAN_EVPN_MSD LAN_CLASSIC ISN IPFM], got FOO",
		},
		{
			ndfc.FabricCreate{FabricName: "f1", FabricType: "ISN", BgpAs: "0"},
			"invalid fields: bgp_as: 0 is not a valid bgpasn",
		},
		{
			ndfc.FabricCreate{FabricName: "f1", FabricType: "LAN_CLASSIC", AnycastGwMac: "20:20:00:00:00:aa"},
			"invalid fields: anycast_gw_mac: 20:20:00:00:00:aa is not a valid ciscomac",
		},
	}
	for _, tt := range tests {
		err := c.CreateFabric(context.Background(), tt.fabric)
		assert.True(t, errors.Is(err, ndfc.ErrInvalid), tt.want)
		assert.EqualError(t, err, tt.want)
	}
}

func TestCreateFabricControllerError(t *testing.T) {
	path := control + "/fabrics/f3/LAN_Classic"
	sender := withFabrics(resttest.NewSender()).
		On(http.MethodPost, path, resttest.Status(500, `{"message": "Invalid template"}`))
	c, _ := newClient(sender)

	err := c.CreateFabric(context.Background(), ndfc.FabricCreate{FabricName: "f3", FabricType: "LAN_CLASSIC"})
	var cerr *rest.ControllerError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 500, cerr.ReturnCode)
	assert.EqualError(t, err, "POST "+path+": 500 Internal Server Error: Invalid template")
}

func TestCreateFabricCheckMode(t *testing.T) {
	sender := withFabrics(resttest.NewSender())
	c, rs := newClient(sender)
	rs.CheckMode = true

	err := c.CreateFabric(context.Background(), ndfc.FabricCreate{FabricName: "f3", FabricType: "LAN_CLASSIC"})
	require.NoError(t, err)
	assert.Empty(t, sender.Sent(http.MethodPost, control+"/fabrics/f3/LAN_Classic"))
}

func TestDeleteFabric(t *testing.T) {
	sender := withFabrics(resttest.NewSender()).
		On(http.MethodDelete, control+"/fabrics/f1", resttest.OK(""))
	c, _ := newClient(sender)

	require.NoError(t, c.DeleteFabric(context.Background(), "f1"))
	assert.Len(t, sender.Sent(http.MethodDelete, control+"/fabrics/f1"), 1)

	err := c.DeleteFabric(context.Background(), "f9")
	assert.True(t, errors.Is(err, ndfc.ErrNotFound))
	assert.EqualError(t, err, "fabric f9: not found")
}

func TestSaveAndDeployFabric(t *testing.T) {
	sender := withFabrics(resttest.NewSender()).
		On(http.MethodPost, control+"/fabrics/f1/config-save", resttest.OK(`{"status": "Config save is completed"}`)).
		On(http.MethodPost, control+"/fabrics/f1/config-deploy?forceShowRun=true", resttest.OK(`{"status": "Configuration deployment completed."}`))
	c, _ := newClient(sender)

	require.NoError(t, c.SaveFabricConfig(context.Background(), "f1"))
	require.NoError(t, c.DeployFabricConfig(context.Background(), "f1", true))
	assert.Len(t, sender.Sent(http.MethodPost, control+"/fabrics/f1/config-deploy?forceShowRun=true"), 1)
}

func TestDeployFabricBodyError(t *testing.T) {
	sender := withFabrics(resttest.NewSender()).
		On(http.MethodPost, control+"/fabrics/f1/config-deploy?forceShowRun=false",
			resttest.OK(`{"ERROR": "Switch 10.1.1.1 is unreachable"}`))
	c, _ := newClient(sender)

	err := c.DeployFabricConfig(context.Background(), "f1", false)
	var cerr *rest.ControllerError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "Switch 10.1.1.1 is unreachable", cerr.Detail)
}
