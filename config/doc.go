// Package config loads runtime settings for the coordination layer from an
// optional YAML file and CROSSTALK_* environment variables, with sensible
// defaults applied for everything left unset.
package config
