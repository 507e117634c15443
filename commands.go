package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"ndfcctl/config"
	"ndfcctl/ndfc"
)

type app struct {
	args   Args
	log    logrus.FieldLogger
	client *ndfc.Client
	out    io.Writer
}

type command func(ctx context.Context, a *app) error

var commands = map[string]command{
	"version": showVersion,

	"fabric-create": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.FabricCreate.Config, a.client.CreateFabric)
	},
	"fabric-delete": func(ctx context.Context, a *app) error {
		return a.client.DeleteFabric(ctx, a.args.FabricDelete.Fabric)
	},
	"fabric-list": listFabrics,
	"fabric-save": func(ctx context.Context, a *app) error {
		return a.client.SaveFabricConfig(ctx, a.args.FabricSave.Fabric)
	},
	"fabric-deploy": func(ctx context.Context, a *app) error {
		return a.client.DeployFabricConfig(ctx, a.args.FabricDeploy.Fabric, a.args.FabricDeploy.ForceShowRun)
	},

	"vrf-create": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.VrfCreate.Config, a.client.CreateVrf)
	},
	"vrf-delete": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.VrfDelete.Config, a.client.DeleteVrfs)
	},
	"vrf-list": listVrfs,
	"vrf-attach": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.VrfAttach.Config, a.client.AttachVrf)
	},

	"network-create": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.NetworkCreate.Config, a.client.CreateNetwork)
	},
	"network-delete": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.NetworkDelete.Config, a.client.DeleteNetworks)
	},
	"network-list": listNetworks,
	"network-attach": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.NetworkAttach.Config, a.client.AttachNetwork)
	},

	"policy-create": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.PolicyCreate.Config, func(ctx context.Context, p ndfc.PolicyCreate) error {
			policy, err := a.client.CreatePolicy(ctx, p)
			if err != nil {
				return err
			}
			return a.print(policy)
		})
	},
	"policy-update": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.PolicyUpdate.Config, a.client.UpdatePolicy)
	},
	"policy-get":  getPolicy,
	"policy-list": listPolicies,
	"policy-delete": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.PolicyDelete.Config, a.client.DeletePolicies)
	},

	"reachability": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.Reachability.Config, func(ctx context.Context, r ndfc.Reachability) error {
			switches, err := a.client.TestReachability(ctx, r)
			if err != nil {
				return err
			}
			if a.args.JSON {
				return a.print(switches)
			}
			for _, s := range switches {
				a.log.WithFields(logrus.Fields{
					"ip":         s.IPAddr,
					"name":       s.SysName,
					"serial":     s.SerialNumber,
					"reachable":  s.Reachable,
					"auth":       s.Auth,
					"valid":      s.Valid,
					"known":      s.Known,
					"selectable": s.Selectable,
					"reason":     s.StatusReason,
				}).Info("Switch")
			}
			return nil
		})
	},
	"discover": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.Discover.Config, func(ctx context.Context, d ndfc.DiscoverSwitch) error {
			_, err := a.client.Discover(ctx, d)
			return err
		})
	},

	"inventory": listSwitches,
	"switch-role": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.SwitchRole.Config, a.client.SetSwitchRole)
	},
	"maintenance-mode": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.MaintenanceMode.Config, a.client.SetMaintenanceMode)
	},
	"switch-remove": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.SwitchRemove.Config, a.client.RemoveSwitches)
	},

	"image-policy-create": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.ImagePolicyCreate.Config, a.client.CreateImagePolicy)
	},
	"image-policy-delete": func(ctx context.Context, a *app) error {
		return runItems(ctx, a, a.args.ImagePolicyDelete.Config, a.client.DeleteImagePolicies)
	},
	"image-policy-list": listImagePolicies,
}

func (a *app) run(ctx context.Context, name string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown subcommand %q", name)
	}
	return cmd(ctx, a)
}

// runItems applies op to every item of the file in order and stops at the
// first failure.
func runItems[T any](ctx context.Context, a *app, path string, op func(context.Context, T) error) error {
	items, err := config.LoadItems[T](path)
	if err != nil {
		return err
	}
	for i, item := range items {
		if err := op(ctx, item); err != nil {
			return errors.Wrapf(err, "item %d of %d", i+1, len(items))
		}
	}
	a.log.Info(fmt.Sprintf("Completed %d item(s) from %s", len(items), path))
	return nil
}

func (a *app) print(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}

////////////////////////////////////////////////////////////
// Queries
////////////////////////////////////////////////////////////

func showVersion(ctx context.Context, a *app) error {
	v, err := a.client.Version(ctx)
	if err != nil {
		return err
	}
	if a.args.JSON {
		return a.print(v)
	}
	a.log.WithFields(logrus.Fields{
		"version": v.Version,
		"mode":    v.Mode,
		"ha":      v.IsHaEnabled,
	}).Info("Controller")
	return nil
}

func listFabrics(ctx context.Context, a *app) error {
	fabrics, err := a.client.ListFabrics(ctx)
	if err != nil {
		return err
	}
	if a.args.JSON {
		return a.print(fabrics)
	}
	for _, f := range fabrics {
		a.log.WithFields(logrus.Fields{
			"name":     f.Name,
			"template": f.Template,
			"asn":      f.Asn,
		}).Info("Fabric")
	}
	a.log.Info(fmt.Sprintf("%d fabric(s)", len(fabrics)))
	return nil
}

func listVrfs(ctx context.Context, a *app) error {
	vrfs, err := a.client.ListVrfs(ctx, a.args.VrfList.Fabric)
	if err != nil {
		return err
	}
	if a.args.JSON {
		return a.print(vrfs)
	}
	for _, v := range vrfs {
		a.log.WithFields(logrus.Fields{
			"name":   v.Name,
			"vrf id": v.ID,
			"vlan":   v.VlanID,
			"status": v.Status,
		}).Info("VRF")
	}
	return nil
}

func listNetworks(ctx context.Context, a *app) error {
	networks, err := a.client.ListNetworks(ctx, a.args.NetworkList.Fabric)
	if err != nil {
		return err
	}
	if a.args.JSON {
		return a.print(networks)
	}
	for _, n := range networks {
		a.log.WithFields(logrus.Fields{
			"name":       n.Name,
			"network id": n.ID,
			"vrf":        n.Vrf,
			"vlan":       n.VlanID,
			"gateway":    n.GatewayIP,
			"status":     n.Status,
		}).Info("Network")
	}
	return nil
}

func getPolicy(ctx context.Context, a *app) error {
	policy, err := a.client.GetPolicy(ctx, a.args.PolicyGet.PolicyID)
	if err != nil {
		return err
	}
	return a.print(policy)
}

func listPolicies(ctx context.Context, a *app) error {
	policies, err := a.client.ListSwitchPolicies(ctx, a.args.PolicyList.Serial)
	if err != nil {
		return err
	}
	if a.args.JSON {
		return a.print(policies)
	}
	for _, p := range policies {
		a.log.WithFields(logrus.Fields{
			"policy id":   p.ID,
			"template":    p.TemplateName,
			"priority":    p.Priority,
			"description": p.Description,
		}).Info("Policy")
	}
	return nil
}

func listSwitches(ctx context.Context, a *app) error {
	var (
		switches []ndfc.Switch
		err      error
	)
	if fabric := a.args.Inventory.Fabric; fabric != "" {
		switches, err = a.client.ListSwitches(ctx, fabric)
	} else {
		switches, err = a.client.ListAllSwitches(ctx)
	}
	if err != nil {
		return err
	}
	if a.args.JSON {
		return a.print(switches)
	}
	for _, s := range switches {
		a.log.WithFields(logrus.Fields{
			"name":   s.Name,
			"serial": s.SerialNumber,
			"ip":     s.IPAddress,
			"role":   s.Role,
			"fabric": s.Fabric,
			"mode":   s.Mode,
		}).Info("Switch")
	}
	return nil
}

func listImagePolicies(ctx context.Context, a *app) error {
	policies, err := a.client.ListImagePolicies(ctx)
	if err != nil {
		return err
	}
	if a.args.JSON {
		return a.print(policies)
	}
	for _, p := range policies {
		a.log.WithFields(logrus.Fields{
			"name":     p.Name,
			"platform": p.Platform,
			"nxos":     p.NxosVersion,
		}).Info("Image policy")
	}
	return nil
}
