package shark

import (
	"encoding/json"
	"time"
)

// MobileOS selects which mobile application identity the client signs in as.
type MobileOS string

// Supported mobile application identities.
const (
	MobileOSiOS     MobileOS = "Apple iOS"
	MobileOSAndroid MobileOS = "Android OS"
)

// appIdentity is the application id/secret pair baked into the official apps.
type appIdentity struct {
	ID     string
	Secret string
}

var appIdentities = map[MobileOS]appIdentity{
	MobileOSiOS: {
		ID:     "Shark-iOS-field-id",
		Secret: "Shark-iOS-field-_wW7SiwgrHN8dpU_ugCattOoDk8",
	},
	MobileOSAndroid: {
		ID:     "Shark-Android-field-id",
		Secret: "Shark-Android-field-Wv43MbdXRM297HUHotqe6lU1n-w",
	},
}

// Valid reports whether os is one of the two supported identities.
func (os MobileOS) Valid() bool {
	_, ok := appIdentities[os]
	return ok
}

// Credentials identify the account a Client signs in with.
type Credentials struct {
	Email    string
	Password string
	MobileOS MobileOS
}

// Session is the token state issued by sign-in or refresh.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ConnectionStatus is the cloud connectivity of a device.
type ConnectionStatus string

// Connection states reported by the device list.
const (
	ConnectionOnline  ConnectionStatus = "online"
	ConnectionOffline ConnectionStatus = "offline"
)

// Device is the normalized form of a device list entry.
type Device struct {
	SerialNumber     string           `json:"serial_number"`
	Name             string           `json:"name"`
	Model            string           `json:"model"`
	SoftwareVersion  string           `json:"software_version"`
	ConnectionStatus ConnectionStatus `json:"connection_status"`
}

// Online reports whether the device is connected to the cloud.
func (d Device) Online() bool {
	return d.ConnectionStatus == ConnectionOnline
}

// BaseType is the server-declared type of a property value.
type BaseType string

// Property base types.
const (
	BaseTypeInteger BaseType = "integer"
	BaseTypeString  BaseType = "string"
	BaseTypeBoolean BaseType = "boolean"
)

// Property is a typed property value read from a device. Exactly one of the
// value fields is meaningful, selected by BaseType.
type Property struct {
	Name        string   `json:"name"`
	BaseType    BaseType `json:"base_type"`
	DeviceName  string   `json:"device_name"`
	IntValue    int64    `json:"-"`
	StringValue string   `json:"-"`
	BoolValue   bool     `json:"-"`
}

// MarshalJSON renders the property with a single "value" key.
func (p *Property) MarshalJSON() ([]byte, error) {
	type plain Property
	return json.Marshal(struct {
		plain
		Value any `json:"value"`
	}{plain: plain(*p), Value: p.Value()})
}

// Value returns the property value as int64, string or bool.
func (p *Property) Value() any {
	switch p.BaseType {
	case BaseTypeInteger:
		return p.IntValue
	case BaseTypeString:
		return p.StringValue
	default:
		return p.BoolValue
	}
}

// Datapoint is the value recorded by a property write.
// Value is a string, int64, float64 or bool. Integral numbers are int64.
type Datapoint struct {
	Value     any    `json:"value"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	Echo      bool   `json:"echo,omitempty"`
}

// Record is an opaque JSON object returned by the discovery endpoints.
type Record map[string]any
