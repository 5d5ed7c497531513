package config

import (
	"fmt"
	"os"
)

// Default configuration values (production)
const (
	DefaultDomain      = "snapgather.app"
	DefaultSTUN        = "stun:stun.l.google.com:19302"
	DefaultCatalogBase = "https://catalog.snapgather.app"
	DefaultTURN        = "" // Optional, empty by default
	DefaultTURNUser    = ""
	DefaultTURNPass    = ""
)

// Config holds application configuration
type Config struct {
	// Domain is the relay server domain
	Domain string

	// WebSocketURL is constructed from domain
	WebSocketURL string

	// CatalogBase is the sticker/emoji catalog service base URL
	CatalogBase string

	// ICE servers for WebRTC
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// Options for loading config with CLI flag overrides
type Options struct {
	Domain      string
	CatalogBase string
	STUNServer  string
	TURNServer  string
	TURNUser    string
	TURNPass    string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	domain := firstNonEmpty(opts.Domain, os.Getenv("SNAPGATHER_DOMAIN"), DefaultDomain)
	catalogBase := firstNonEmpty(opts.CatalogBase, os.Getenv("SNAPGATHER_CATALOG"), DefaultCatalogBase)
	stunServer := firstNonEmpty(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN)
	turnServer := firstNonEmpty(opts.TURNServer, os.Getenv("TURN_SERVER"), DefaultTURN)
	turnUser := firstNonEmpty(opts.TURNUser, os.Getenv("TURN_USERNAME"), DefaultTURNUser)
	turnPass := firstNonEmpty(opts.TURNPass, os.Getenv("TURN_PASSWORD"), DefaultTURNPass)

	wsURL := fmt.Sprintf("wss://%s/ws", domain)

	return &Config{
		Domain:       domain,
		WebSocketURL: wsURL,
		CatalogBase:  catalogBase,
		STUNServer:   stunServer,
		TURNServer:   turnServer,
		TURNUser:     turnUser,
		TURNPass:     turnPass,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetRoomLink returns the shareable URL for a room ID
func (c *Config) GetRoomLink(roomID string) string {
	return fmt.Sprintf("https://%s/r/%s", c.Domain, roomID)
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Config) GetSTUNServers() []string {
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}
