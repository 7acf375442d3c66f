package shark

import "context"

// SharkClient defines the Shark API operations.
// Client implements this interface, enabling mocking for tests.
type SharkClient interface {
	// ============================================================================
	// Session
	// ============================================================================

	Login(ctx context.Context) error
	RefreshAccessToken(ctx context.Context) error
	TokenStatus() TokenStatus

	// ============================================================================
	// Devices
	// ============================================================================

	ListDevices(ctx context.Context) ([]Device, error)
	GetDeviceMetadata(ctx context.Context, serialNumber string) ([]Record, error)
	GetDeviceProperties(ctx context.Context, serialNumber string) ([]Record, error)

	// ============================================================================
	// Properties
	// ============================================================================

	GetDeviceProperty(ctx context.Context, serialNumber, name string) (*Property, error)
	SetDeviceProperty(ctx context.Context, serialNumber, name string, value any) (*Datapoint, error)
}

// Ensure Client implements SharkClient.
var _ SharkClient = (*Client)(nil)
