// Package config provides configuration structures and utilities for sitelint.
// It defines the scan options, the .sitelint YAML file and where sitelint
// keeps its run history.
package config
