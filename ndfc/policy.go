package ndfc

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

////////////////////////////////////////////////////////////
// Policy
////////////////////////////////////////////////////////////

const (
	DefaultPolicyEntity   = "SWITCH"
	DefaultPolicyPriority = 500
)

type Policy struct {
	json         JSON
	ID           string
	SerialNumber string
	TemplateName string
	EntityType   string
	EntityName   string
	Priority     int64
	Description  string
	Source       string
	Deleted      bool
}

func newPolicy(json JSON) Policy {
	return Policy{
		json:         json,
		ID:           json.Get("policyId").Str,
		SerialNumber: json.Get("serialNumber").Str,
		TemplateName: json.Get("templateName").Str,
		EntityType:   json.Get("entityType").Str,
		EntityName:   json.Get("entityName").Str,
		Priority:     json.Get("priority").Int(),
		Description:  json.Get("description").Str,
		Source:       json.Get("source").Str,
		Deleted:      json.Get("deleted").Bool(),
	}
}

// NvPair returns a template variable of the policy.
func (p Policy) NvPair(key string) string {
	return p.json.Get("nvPairs." + escapeKey(key)).String()
}

// MarshalJSON : marshal policy
func (p Policy) MarshalJSON() ([]byte, error) {
	return []byte(p.json.Raw), nil
}

// PolicyCreate : fields for a new switch policy
type PolicyCreate struct {
	SerialNumber string            `mapstructure:"serial_number" validate:"required,serialnumber"`
	TemplateName string            `mapstructure:"template_name" validate:"required,max=200"`
	EntityType   string            `mapstructure:"entity_type" validate:"required"`
	EntityName   string            `mapstructure:"entity_name" validate:"required"`
	Priority     int               `mapstructure:"priority" validate:"min=1,max=2000"`
	Description  string            `mapstructure:"description" validate:"max=254"`
	Source       string            `mapstructure:"source"`
	NvPairs      map[string]string `mapstructure:"nv_pairs"`
}

func (p *PolicyCreate) setDefaults() {
	if p.EntityType == "" {
		p.EntityType = DefaultPolicyEntity
	}
	if p.EntityName == "" {
		p.EntityName = DefaultPolicyEntity
	}
	if p.Priority == 0 {
		p.Priority = DefaultPolicyPriority
	}
}

func (p PolicyCreate) body() *body {
	return newBody().
		set("serialNumber", p.SerialNumber).
		set("templateName", p.TemplateName).
		set("entityType", p.EntityType).
		set("entityName", p.EntityName).
		set("priority", p.Priority).
		set("description", p.Description).
		set("source", p.Source).
		setMap("nvPairs", p.NvPairs)
}

func (c *Client) CreatePolicy(ctx context.Context, p PolicyCreate) (Policy, error) {
	p.setDefaults()
	if err := check(p); err != nil {
		return Policy{}, err
	}
	payload, err := p.body().String()
	if err != nil {
		return Policy{}, err
	}
	res, err := c.send(ctx, http.MethodPost, controlPath+"/policies", payload)
	if err != nil {
		return Policy{}, err
	}
	policy := newPolicy(res.Data)
	c.log.WithFields(logrus.Fields{
		"policy id": policy.ID,
		"switch":    p.SerialNumber,
		"template":  p.TemplateName,
	}).Info("Created policy")
	return policy, nil
}

func (c *Client) GetPolicy(ctx context.Context, id string) (Policy, error) {
	if err := check(policyRef{PolicyID: id}); err != nil {
		return Policy{}, err
	}
	json, err := c.get(ctx, pathOf(controlPath+"/policies", id), "policy "+id)
	if err != nil {
		return Policy{}, err
	}
	return newPolicy(json), nil
}

// ListSwitchPolicies returns every policy applied to the switch.
func (c *Client) ListSwitchPolicies(ctx context.Context, serial string) (res []Policy, err error) {
	path := controlPath + "/policies/switches?serialNumber=" + url.QueryEscape(serial)
	json, err := c.get(ctx, path, "switch "+serial)
	if err != nil {
		return
	}
	for _, record := range json.Array() {
		res = append(res, newPolicy(record))
	}
	return
}

type policyRef struct {
	PolicyID string `mapstructure:"policy_id" validate:"required,policyid"`
}

// PolicyUpdate : a policy to replace, by id
type PolicyUpdate struct {
	PolicyID     string `mapstructure:"policy_id" validate:"required,policyid"`
	PolicyCreate `mapstructure:",squash"`
}

func (c *Client) UpdatePolicy(ctx context.Context, u PolicyUpdate) error {
	u.setDefaults()
	if err := check(u); err != nil {
		return err
	}
	if _, err := c.GetPolicy(ctx, u.PolicyID); err != nil {
		return err
	}
	payload, err := u.body().set("policyId", u.PolicyID).String()
	if err != nil {
		return err
	}
	if _, err := c.send(ctx, http.MethodPut, pathOf(controlPath+"/policies", u.PolicyID), payload); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"policy id": u.PolicyID,
		"switch":    u.SerialNumber,
		"template":  u.TemplateName,
	}).Info("Updated policy")
	return nil
}

// PolicyDelete : policies to remove, by id
type PolicyDelete struct {
	PolicyIDs []string `mapstructure:"policy_ids" validate:"required,min=1,dive,policyid"`
}

func (c *Client) DeletePolicies(ctx context.Context, d PolicyDelete) error {
	if err := check(d); err != nil {
		return err
	}
	ids := strings.Join(d.PolicyIDs, ",")
	path := controlPath + "/policies/policyIds?policyIds=" + ids
	if _, err := c.send(ctx, http.MethodDelete, path, ""); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"policy ids": ids,
	}).Info("Deleted policy(s)")
	return nil
}
