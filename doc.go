// Package shark provides a Go client library for the Shark robot vacuum cloud API
// (the Ayla Networks "field" service used by the official Shark apps).
//
// The client signs in with an account's email and password, lists the account's
// devices and reads or writes named device properties such as the operating mode.
//
// # Authentication
//
// The client identifies itself as one of the two official mobile apps:
//
//	client, err := shark.NewClient(shark.Credentials{
//	    Email:    "me@example.com",
//	    Password: "secret",
//	    MobileOS: shark.MobileOSiOS,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Login(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Login must be called once. After that the client refreshes the access token
// on its own whenever less than 30 minutes of its lifetime remain; concurrent
// calls share a single refresh. Tokens are kept in memory only.
//
// # Basic Usage
//
// List devices:
//
//	devices, err := client.ListDevices(ctx)
//	for _, d := range devices {
//	    fmt.Printf("%s (%s) %s\n", d.Name, d.SerialNumber, d.ConnectionStatus)
//	}
//
// Read and write properties:
//
//	prop, err := client.GetDeviceProperty(ctx, dsn, shark.PropertyOperatingMode)
//	dp, err := client.SetDeviceProperty(ctx, dsn, shark.PropertyOperatingMode, 2)
//
// Or use the vacuum helpers:
//
//	vac := shark.NewVacuum(client, devices[0])
//	err := vac.Clean(ctx)
//
// # Error Handling
//
// Every call returns one of three error types, distinguished by KindOf:
//
//	_, err := client.ListDevices(ctx)
//	switch shark.KindOf(err) {
//	case shark.KindRequestRejected:
//	    // the server refused the call; see *RequestRejectedError.StatusCode
//	case shark.KindResponseValidation:
//	    // the server answered with an unexpected shape
//	case shark.KindPipeline:
//	    // network failure, unreadable body, cancelled context
//	}
//
// The client never retries a failed call.
package shark
