package models

import (
	"path"

	"github.com/kardianos/osext"
)

// AppConfig is the application's main configuration structure
type AppConfig struct {
	// The directory where the calendar stores its data - defaults to the /data subdirectory of the folder the
	// executable resides in
	DataDir string `json:"dataDir"`
	// The credentials for the default user account that is created on first startup
	DefaultUser *DefaultUserConfig `json:"defaultUser"`
	// The IP address to listen at - including the port number
	ListenAddress string `json:"listenAddress"`
}

// The DefaultUserConfig struct configures the default user that can log in when no other user exists, yet
type DefaultUserConfig struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// GetDefaultConfig returns the default configuration values for the application
func GetDefaultConfig() (*AppConfig, error) {
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		return nil, err
	}
	return &AppConfig{
		DataDir: path.Join(execDir, "data"),
		DefaultUser: &DefaultUserConfig{
			Email:    "admin@localhost",
			Name:     "Administrator",
			Password: "changeme",
		},
		ListenAddress: ":3000",
	}, nil
}
