// Package services holds the error taxonomy shared by pipeline components
// and the clients for external tools under its subpackages.
package services
