package shark

import (
	"context"
	"net/url"
)

// dsnPath returns the per-device path prefix for a serial number.
func dsnPath(serialNumber string) string {
	return "/apiv1/dsns/" + url.PathEscape(serialNumber)
}

// ListDevices returns all devices registered to the account, in server order.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	raw, err := c.call(ctx, EndpointDevices, request{path: "/apiv1/devices.json"}, deviceListSchema)
	if err != nil {
		return nil, err
	}
	return normalize(EndpointDevices, func() ([]Device, error) {
		return normalizeDevices(raw), nil
	})
}

// GetDeviceMetadata returns the metadata records stored for a device.
func (c *Client) GetDeviceMetadata(ctx context.Context, serialNumber string) ([]Record, error) {
	if serialNumber == "" {
		return nil, newPipelineError(string(EndpointDeviceMetadata), ErrEmptySerialNumber)
	}
	path := dsnPath(serialNumber) + "/data.json"
	raw, err := c.call(ctx, EndpointDeviceMetadata, request{path: path}, metadataListSchema)
	if err != nil {
		return nil, err
	}
	return normalize(EndpointDeviceMetadata, func() ([]Record, error) {
		return normalizeRecords(raw, "datum"), nil
	})
}

// GetDeviceProperties returns the raw property descriptors of a device.
// Use GetDeviceProperty for a typed read of a single property.
func (c *Client) GetDeviceProperties(ctx context.Context, serialNumber string) ([]Record, error) {
	if serialNumber == "" {
		return nil, newPipelineError(string(EndpointDeviceProperties), ErrEmptySerialNumber)
	}
	path := dsnPath(serialNumber) + "/properties.json"
	raw, err := c.call(ctx, EndpointDeviceProperties, request{path: path}, propertyListSchema)
	if err != nil {
		return nil, err
	}
	return normalize(EndpointDeviceProperties, func() ([]Record, error) {
		return normalizeRecords(raw, "property"), nil
	})
}
