// Package device provides an HTTP client for the Kwal controller's local API.
//
// The controller exposes a small JSON API on the local network plus a few
// legacy query-string endpoints that predate it. This package wraps both
// behind typed methods and a consistent error taxonomy.
//
// # Write classes
//
// The API distinguishes three classes of writes, and the client treats
// them differently:
//
//   - Durable writes (select, save, delete, navigation): attempted once;
//     failures surface as *DeviceError so the caller can show them and
//     leave local state untouched for a retry.
//   - Speculative writes (PreviewPattern, PreviewColors): fire-and-forget
//     with a short timeout. Failures are swallowed - a later preview or a
//     push event corrects any drift.
//   - Reads (Patterns, Colors, Health): retried with exponential backoff,
//     since a momentarily busy device is the common case.
//
// # Usage Example
//
//	client := device.NewClient("192.168.1.40", 80)
//
//	list, err := client.Patterns()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := client.SelectPattern(list.Patterns[0].ID); err != nil {
//	    fmt.Println(device.ShortErrorMessage(err))
//	}
//
// # Thread Safety
//
// Client instances are safe for concurrent use.
package device
