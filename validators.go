package shark

import (
	"encoding/json"
	"fmt"
	"time"
)

// Endpoint names an API call in validation errors and logs.
type Endpoint string

// Endpoints consumed by the client.
const (
	EndpointSignIn           Endpoint = "sign_in"
	EndpointRefreshToken     Endpoint = "refresh_token"
	EndpointDevices          Endpoint = "devices"
	EndpointDeviceMetadata   Endpoint = "device_metadata"
	EndpointDeviceProperties Endpoint = "device_properties"
	EndpointPropertyRead     Endpoint = "property_read"
	EndpointPropertyWrite    Endpoint = "property_write"
)

// Response shapes. Each is paired with a normalize* function below that only
// runs on values these schemas accepted.
var (
	errorBodySchema = object(
		key("error", str()),
	)

	sessionSchema = object(
		key("access_token", str()),
		key("refresh_token", str()),
		key("expires_in", number()),
		key("role", str().opt()),
		key("role_tags", arrayOf(object(
			key("namespace", str()),
			key("key", str()),
			key("value", str()),
		)).opt()),
	)

	deviceListSchema = arrayOf(object(
		key("device", object(
			key("dsn", str()),
			key("product_name", str().opt()),
			key("model", str().opt()),
			key("sw_version", str().opt()),
			key("connection_status", enumOf(string(ConnectionOnline), string(ConnectionOffline))),
			key("id", number().opt()),
			key("oem", str().opt()),
			key("oem_model", str().opt()),
			key("mac", str().opt()),
			key("ip", str().opt()),
			key("lan_ip", str().opt()),
			key("ssid", str().opt()),
			key("connected_at", str().opt()),
			key("key", number().opt()),
			key("product_class", str().opt().null()),
			key("has_properties", boolean().opt()),
			key("lan_enabled", boolean().opt()),
			key("device_type", str().opt()),
		)),
	))

	metadataListSchema = arrayOf(object(
		key("datum", object(
			key("created_at", str().opt()),
			key("updated_at", str().opt()),
			key("from_template", boolean().opt()),
			key("key", str().opt()),
			key("value", anyValue().opt()),
			key("dsn", str().opt()),
		)),
	))

	propertyListSchema = arrayOf(object(
		key("property", object(
			key("name", str()),
			key("base_type", str()),
			key("type", str().opt()),
			key("display_name", str().opt()),
			key("read_only", boolean().opt()),
			key("direction", str().opt()),
			key("product_name", str().opt()),
			key("value", anyValue().opt()),
		)),
	))

	propertyReadSchema = object(
		key("property", object(
			key("name", str()),
			key("base_type", enumOf(string(BaseTypeInteger), string(BaseTypeString), string(BaseTypeBoolean))),
			key("product_name", str()),
			key("value", anyValue()),
			key("display_name", str().opt()),
			key("read_only", boolean().opt()),
			key("direction", str().opt()),
			key("data_updated_at", str().opt().null()),
			key("key", number().opt()),
		).refined(checkPropertyValue)),
	)

	datapointSchema = object(
		key("datapoint", object(
			key("value", union(str(), number(), boolean())),
			key("created_at", str().opt()),
			key("updated_at", str().opt()),
			key("echo", boolean().opt()),
		)),
	)
)

// checkPropertyValue enforces that the value matches the declared base type.
func checkPropertyValue(path string, v any) []FieldError {
	m := v.(map[string]any)
	var valueSchema schema
	switch BaseType(m["base_type"].(string)) {
	case BaseTypeInteger:
		valueSchema = integer()
	case BaseTypeString:
		valueSchema = str()
	default:
		valueSchema = boolean()
	}
	return valueSchema.check(joinPath(path, "value"), m["value"])
}

// parseResponse decodes and validates a success body.
func parseResponse(endpoint Endpoint, s schema, data []byte) (any, error) {
	raw, err := decodeJSON(data)
	if err != nil {
		return nil, newPipelineError(string(endpoint), err)
	}
	if errs := s.validate(raw); len(errs) > 0 {
		return nil, &ResponseValidationError{Endpoint: endpoint, Fields: errs}
	}
	return raw, nil
}

// parseErrorBody extracts the message of an {"error": "..."} body.
func parseErrorBody(data []byte) (string, error) {
	raw, err := decodeJSON(data)
	if err != nil {
		return "", err
	}
	if fields := errorBodySchema.validate(raw); len(fields) > 0 {
		return "", fmt.Errorf("unexpected error body: %s (body: %s)", fields[0], truncatePreview(data))
	}
	return raw.(map[string]any)["error"].(string), nil
}

func normalizeSession(raw any, issuedAt time.Time) Session {
	m := raw.(map[string]any)
	secs, _ := m["expires_in"].(json.Number).Float64()
	return Session{
		AccessToken:  m["access_token"].(string),
		RefreshToken: m["refresh_token"].(string),
		ExpiresAt:    issuedAt.Add(secondsToDuration(secs)),
	}
}

func normalizeDevices(raw any) []Device {
	items := raw.([]any)
	devices := make([]Device, 0, len(items))
	for _, item := range items {
		d := item.(map[string]any)["device"].(map[string]any)
		device := Device{
			SerialNumber:     d["dsn"].(string),
			ConnectionStatus: ConnectionStatus(d["connection_status"].(string)),
		}
		// Sparse entries leave these empty.
		device.Name, _ = d["product_name"].(string)
		device.Model, _ = d["model"].(string)
		device.SoftwareVersion, _ = d["sw_version"].(string)
		devices = append(devices, device)
	}
	return devices
}

// normalizeRecords unwraps list elements of the form {"<wrapper>": {...}}.
func normalizeRecords(raw any, wrapper string) []Record {
	items := raw.([]any)
	records := make([]Record, 0, len(items))
	for _, item := range items {
		records = append(records, Record(plainJSON(item.(map[string]any)[wrapper]).(map[string]any)))
	}
	return records
}

func normalizeProperty(raw any) (*Property, error) {
	p := raw.(map[string]any)["property"].(map[string]any)
	prop := &Property{
		Name:       p["name"].(string),
		BaseType:   BaseType(p["base_type"].(string)),
		DeviceName: p["product_name"].(string),
	}
	switch prop.BaseType {
	case BaseTypeInteger:
		n, err := p["value"].(json.Number).Int64()
		if err != nil {
			return nil, err
		}
		prop.IntValue = n
	case BaseTypeString:
		prop.StringValue = p["value"].(string)
	case BaseTypeBoolean:
		prop.BoolValue = p["value"].(bool)
	default:
		return nil, fmt.Errorf("unknown base type %q", prop.BaseType)
	}
	return prop, nil
}

func normalizeDatapoint(raw any) *Datapoint {
	d := raw.(map[string]any)["datapoint"].(map[string]any)
	dp := &Datapoint{Value: plainJSON(d["value"])}
	dp.CreatedAt, _ = d["created_at"].(string)
	dp.UpdatedAt, _ = d["updated_at"].(string)
	dp.Echo, _ = d["echo"].(bool)
	return dp
}

// plainJSON converts json.Number leaves to int64 when integral and to float64
// otherwise.
func plainJSON(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainJSON(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainJSON(e)
		}
		return out
	default:
		return v
	}
}
