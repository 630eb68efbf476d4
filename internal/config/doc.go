// Package config handles configuration loading for the shopdesk console.
//
// # Overview
//
// Configuration is loaded from a YAML file (or TOML when the file name ends
// in .toml) with environment variable expansion. Every field has a default,
// except the database path.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from SHOPDESK_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/shopdesk/console.yaml
//  3. ~/.config/shopdesk/console.yaml
//
// # Environment Variable Expansion
//
//	session:
//	  secret: "${SHOPDESK_SESSION_SECRET}"
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//
//	api:
//	  base_url: "http://localhost:5000/api"
//	  request_timeout: "10s"   # list, create, update, delete, login
//	  verify_timeout: "5s"     # session checks
//
//	chat:
//	  webhook_url: "http://localhost:5006/webhooks/rest/webhook"
//	  status_url: "http://localhost:5006/status"
//	  default_sender: "html_user"
//	  timeout: "10s"
//	  status_timeout: "3s"
//	  status_interval: "30s"
//	  history_limit: 200
//
//	session:
//	  secret: "${SHOPDESK_SESSION_SECRET}"
//	  ttl: "24h"
//	  verify_interval: "1m"
//
//	database:
//	  path: "/var/lib/shopdesk/console.db"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
package config
