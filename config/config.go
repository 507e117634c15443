// Package config loads controller credentials (profile file and environment)
// and operation items from YAML files.
package config

import (
	"fmt"
	"os"
	"reflect"

	"github.com/caarlos0/env/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Credentials : controller login details
type Credentials struct {
	Host     string `mapstructure:"host" env:"ND_IP4"`
	Username string `mapstructure:"username" env:"ND_USERNAME"`
	Password string `mapstructure:"password" env:"ND_PASSWORD"`
	Domain   string `mapstructure:"domain" env:"ND_DOMAIN"`
	Insecure bool   `mapstructure:"insecure" env:"ND_INSECURE"`
}

// LoadCredentials reads the optional profile file, then lets ND_* environment
// variables override it.
func LoadCredentials(profile string) (Credentials, error) {
	v := viper.New()
	v.SetDefault("domain", "local")
	v.SetDefault("insecure", true)
	if profile != "" {
		v.SetConfigFile(profile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Credentials{}, errors.Wrapf(err, "error reading profile %s", profile)
		}
	}
	var creds Credentials
	if err := v.Unmarshal(&creds); err != nil {
		return Credentials{}, errors.Wrap(err, "error unmarshaling profile")
	}
	if err := env.Parse(&creds); err != nil {
		return Credentials{}, errors.Wrap(err, "error reading credentials from environment")
	}
	return creds, nil
}

// Missing names the settings still needed to log in.
func (c Credentials) Missing() []string {
	var res []string
	if c.Host == "" {
		res = append(res, "ND_IP4")
	}
	if c.Username == "" {
		res = append(res, "ND_USERNAME")
	}
	if c.Password == "" {
		res = append(res, "ND_PASSWORD")
	}
	return res
}

// ItemFile is the layout shared by every operation file:
//
//	config:
//	  - fabric_name: f1
//	    ...
type ItemFile[T any] struct {
	Config []T `mapstructure:"config"`
}

// LoadItems reads the YAML file at path and decodes its config list into T.
// Keys are kept as written; nvPair names on the controller are case sensitive.
// Scalars reach the decoder as their source text, so an unquoted asdot ASN
// such as 65001.100 is not rounded through a float.
func LoadItems[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", path)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "error reading config file %s", path)
	}
	raw := scalarText(&doc)
	var file ItemFile[T]
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       stringMapHook,
		Result:           &file,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrapf(err, "error unmarshaling config file %s", path)
	}
	if len(file.Config) == 0 {
		return nil, errors.Errorf("config file %s: no items under \"config\"", path)
	}
	return file.Config, nil
}

// scalarText turns a YAML node tree into maps, slices and the literal text of
// each scalar. Nulls become nil.
func scalarText(n *yaml.Node) interface{} {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return scalarText(n.Content[0])
	case yaml.AliasNode:
		return scalarText(n.Alias)
	case yaml.MappingNode:
		res := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			res[n.Content[i].Value] = scalarText(n.Content[i+1])
		}
		return res
	case yaml.SequenceNode:
		res := make([]interface{}, 0, len(n.Content))
		for _, c := range n.Content {
			res = append(res, scalarText(c))
		}
		return res
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return nil
		}
		return n.Value
	}
	return nil
}

// stringMapHook fills nv_pairs from the scalar text map; the controller wants
// every nvPair value as a string and an empty value for null.
func stringMapHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(map[string]string{}) || from.Kind() != reflect.Map {
		return data, nil
	}
	res := map[string]string{}
	iter := reflect.ValueOf(data).MapRange()
	for iter.Next() {
		k, ok := iter.Key().Interface().(string)
		if !ok {
			return data, nil
		}
		if v := iter.Value().Interface(); v != nil {
			res[k] = fmt.Sprint(v)
		} else {
			res[k] = ""
		}
	}
	return res, nil
}
