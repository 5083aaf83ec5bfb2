// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// AppName is used in version output and the HTTP server header
const AppName = "zhl16"

// Version holds the application version information
const Version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH
