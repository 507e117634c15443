package ndfc

import "context"

// ControllerVersion : controller release and deployment mode
type ControllerVersion struct {
	json              JSON
	Version           string
	Mode              string
	IsHaEnabled       bool
	IsMediaController bool
}

// MarshalJSON : marshal version
func (v ControllerVersion) MarshalJSON() ([]byte, error) {
	return []byte(v.json.Raw), nil
}

func (c *Client) Version(ctx context.Context) (ControllerVersion, error) {
	json, err := c.get(ctx, aboutVersionPath, "controller version")
	if err != nil {
		return ControllerVersion{}, err
	}
	return ControllerVersion{
		json:              json,
		Version:           json.Get("version").Str,
		Mode:              json.Get("mode").Str,
		IsHaEnabled:       json.Get("isHaEnabled").Bool(),
		IsMediaController: json.Get("isMediaController").Bool(),
	}, nil
}
