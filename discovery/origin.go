package discovery

import "github.com/lone-faerie/smsgateway/internal/build"

// Origin implements the origin mapping for the discovery payload. This provides context to
// Home Assistant on the origin of the components.
type Origin struct {
	Name       string `json:"name"`
	SWVersion  string `json:"sw,omitempty"`
	SupportURL string `json:"url,omitempty"`
}

// NewOrigin returns the default Origin with the following values:
//   - Name: "smsgateway"
//   - SWVersion: [build.Version]
//   - SupportURL: "https://" + [build.Package]
func NewOrigin() *Origin {
	o := &Origin{
		Name:      "smsgateway",
		SWVersion: build.Version(),
	}
	if pkg := build.Package(); pkg != "" {
		o.SupportURL = "https://" + pkg
	}
	return o
}
