package ndfc

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

////////////////////////////////////////////////////////////
// Image policy
////////////////////////////////////////////////////////////

const policyMgmtPath = imagePath + "/policymgnt"

type ImagePolicy struct {
	json        JSON
	Name        string
	Type        string
	Platform    string
	NxosVersion string
	Packages    []string
	EpldImage   string
	Description string
}

func newImagePolicy(json JSON) ImagePolicy {
	var packages []string
	if names := json.Get("packageName").Str; names != "" {
		packages = strings.Split(names, ",")
	}
	return ImagePolicy{
		json:        json,
		Name:        json.Get("policyName").Str,
		Type:        json.Get("policyType").Str,
		Platform:    json.Get("platform").Str,
		NxosVersion: json.Get("nxosVersion").Str,
		Packages:    packages,
		EpldImage:   json.Get("epldImgName").Str,
		Description: json.Get("policyDescr").Str,
	}
}

// MarshalJSON : marshal image policy
func (p ImagePolicy) MarshalJSON() ([]byte, error) {
	return []byte(p.json.Raw), nil
}

func (c *Client) ListImagePolicies(ctx context.Context) (res []ImagePolicy, err error) {
	json, err := c.get(ctx, policyMgmtPath+"/policies", "image policies")
	if err != nil {
		return
	}
	for _, record := range json.Get("lastOperDataObject").Array() {
		res = append(res, newImagePolicy(record))
	}
	return
}

func (c *Client) ImagePolicyExists(ctx context.Context, name string) (bool, error) {
	policies, err := c.ListImagePolicies(ctx)
	if err != nil {
		return false, err
	}
	for _, policy := range policies {
		if policy.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// ImagePolicyCreate : fields for a new platform image policy
type ImagePolicyCreate struct {
	PolicyName   string   `mapstructure:"policy_name" validate:"required,max=64"`
	Platform     string   `mapstructure:"platform" validate:"required,oneof=N9K N6K N7K N77 N3K"`
	NxosVersion  string   `mapstructure:"nxos_version" validate:"required"`
	PackageNames []string `mapstructure:"package_names"`
	EpldImage    string   `mapstructure:"epld_image"`
	Description  string   `mapstructure:"description" validate:"max=254"`
	DisableRpm   []string `mapstructure:"disable_rpm"`
}

func (p ImagePolicyCreate) payload() (string, error) {
	return newBody().
		set("policyName", p.PolicyName).
		set("policyType", "PLATFORM").
		set("nxosVersion", p.NxosVersion).
		set("packageName", strings.Join(p.PackageNames, ",")).
		set("platform", p.Platform).
		set("policyDescr", p.Description).
		set("rpmimages", strings.Join(p.DisableRpm, ",")).
		set("epldImgName", p.EpldImage).
		set("agnostic", false).
		String()
}

func (c *Client) CreateImagePolicy(ctx context.Context, p ImagePolicyCreate) error {
	if err := check(p); err != nil {
		return err
	}
	exists, err := c.ImagePolicyExists(ctx, p.PolicyName)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(ErrAlreadyExists, "image policy %s", p.PolicyName)
	}
	payload, err := p.payload()
	if err != nil {
		return err
	}
	if _, err := c.send(ctx, http.MethodPost, policyMgmtPath+"/platform-policy", payload); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"image policy": p.PolicyName,
		"platform":     p.Platform,
		"nxos":         p.NxosVersion,
	}).Info("Created image policy")
	return nil
}

// ImagePolicyDelete : image policies to remove, by name
type ImagePolicyDelete struct {
	PolicyNames []string `mapstructure:"policy_names" validate:"required,min=1,dive,required"`
}

func (c *Client) DeleteImagePolicies(ctx context.Context, d ImagePolicyDelete) error {
	if err := check(d); err != nil {
		return err
	}
	payload, err := newBody().set("policyNames", d.PolicyNames).String()
	if err != nil {
		return err
	}
	if _, err := c.send(ctx, http.MethodDelete, policyMgmtPath+"/policy", payload); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"image policies": strings.Join(d.PolicyNames, ","),
	}).Info("Deleted image policy(s)")
	return nil
}
