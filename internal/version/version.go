// ABOUTME: Version information for pitchloop
// ABOUTME: Reported by the CLI banner, the TUI header and pitchtrace
package version

const (
	// Version is the release version
	Version = "0.3.0"

	// Product is the product name
	Product = "pitchloop"

	// Manufacturer is the publisher name
	Manufacturer = "pitchloop"
)

// String returns the product and version
func String() string {
	return Product + " " + Version
}
