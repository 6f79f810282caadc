// Package config provides configuration structures and utilities for sitecrawl.
// It defines the crawl options, their defaults, validation rules, and the YAML
// configuration file that can supply them.
package config
