package shark

import (
	"context"
	"net/http"
	"net/url"
)

// Prefixes the API puts in front of a property name for reads and writes.
const (
	readPrefix  = "GET_"
	writePrefix = "SET_"
)

// Property names used by Shark robot vacuums.
const (
	PropertyOperatingMode = "Operating_Mode"
	PropertyFindDevice    = "Find_Device"
)

// GetDeviceProperty reads the current value of a named property.
// The name is given without the read prefix, e.g. "Operating_Mode".
func (c *Client) GetDeviceProperty(ctx context.Context, serialNumber, name string) (*Property, error) {
	if err := checkPropertyArgs(EndpointPropertyRead, serialNumber, name); err != nil {
		return nil, err
	}
	path := dsnPath(serialNumber) + "/properties/" + url.PathEscape(readPrefix+name) + ".json"
	raw, err := c.call(ctx, EndpointPropertyRead, request{path: path}, propertyReadSchema)
	if err != nil {
		return nil, err
	}
	return normalize(EndpointPropertyRead, func() (*Property, error) {
		return normalizeProperty(raw)
	})
}

// SetDeviceProperty writes value to a named property and returns the recorded
// datapoint. value must be a string, number or bool.
func (c *Client) SetDeviceProperty(ctx context.Context, serialNumber, name string, value any) (*Datapoint, error) {
	if err := checkPropertyArgs(EndpointPropertyWrite, serialNumber, name); err != nil {
		return nil, err
	}
	path := dsnPath(serialNumber) + "/properties/" + url.PathEscape(writePrefix+name) + "/datapoints.json"
	req := request{
		method: http.MethodPost,
		path:   path,
		body:   map[string]any{"datapoint": map[string]any{"value": value}},
	}
	raw, err := c.call(ctx, EndpointPropertyWrite, req, datapointSchema)
	if err != nil {
		return nil, err
	}
	return normalize(EndpointPropertyWrite, func() (*Datapoint, error) {
		return normalizeDatapoint(raw), nil
	})
}

func checkPropertyArgs(endpoint Endpoint, serialNumber, name string) error {
	if serialNumber == "" {
		return newPipelineError(string(endpoint), ErrEmptySerialNumber)
	}
	if name == "" {
		return newPipelineError(string(endpoint), ErrEmptyPropertyName)
	}
	return nil
}
