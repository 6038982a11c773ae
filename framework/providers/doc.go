// Package providers holds the service providers every application
// registers: configuration and the inspect server.
package providers
