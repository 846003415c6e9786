// Package gib is a client for the GIB e-Fatura SOAP portal
package gib

import (
	"fmt"
	"time"
)

const (
	TestPortalURL       = "https://efaturatest.gib.gov.tr/EFaturaService"
	ProductionPortalURL = "https://efatura.gib.gov.tr/EFaturaService"
	DefaultTimeout      = 30 * time.Second
)

// Config holds the portal credentials for one taxpayer
type Config struct {
	Username  string
	Password  string
	TestMode  bool
	PortalURL string // overrides the test/production URL when set

	CertificatePath     string
	CertificatePassword string

	Timeout time.Duration
}

// ServiceURL is the SOAP service base URL
func (c Config) ServiceURL() string {
	switch {
	case c.PortalURL != "":
		return c.PortalURL
	case c.TestMode:
		return TestPortalURL
	default:
		return ProductionPortalURL
	}
}

// WSDLURL is where the service description is fetched from
func (c Config) WSDLURL() string {
	return c.ServiceURL() + "?wsdl"
}

// Validate reports missing credentials
func (c Config) Validate() error {
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("gib: username and password are required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("gib: timeout must not be negative")
	}
	return nil
}

// Merge returns c with every non-empty field of override applied. Used to
// layer per-business settings over the process-wide configuration.
// An override can always switch test mode on. It can only switch it off
// together with its own credentials.
func (c Config) Merge(override Config) Config {
	out := c
	if override.Username != "" {
		out.Username = override.Username
		out.Password = override.Password
		out.TestMode = override.TestMode
	}
	if override.TestMode {
		out.TestMode = true
	}
	if override.PortalURL != "" {
		out.PortalURL = override.PortalURL
	}
	if override.CertificatePath != "" {
		out.CertificatePath = override.CertificatePath
		out.CertificatePassword = override.CertificatePassword
	}
	if override.Timeout > 0 {
		out.Timeout = override.Timeout
	}
	return out
}
