// Package config provides application configuration management from a YAML
// file and environment variables.
//
// # Overview
//
// Values are layered: built-in defaults, then the YAML file named by
// TENANTADMIN_CONFIG, then TENANTADMIN_* environment variables. Setting
// TENANTADMIN_ENV=dev also loads a .env file from the working directory.
//
// # Configuration Structure
//
// Tenant API:
//
//	TENANTADMIN_API_URL="https://crm.example.com/api"
//	TENANTADMIN_TENANT_ID="acme"
//	TENANTADMIN_TOKEN="..."                   # static bearer token
//	TENANTADMIN_OAUTH2_CLIENT_ID="..."        # or client credentials
//	TENANTADMIN_OAUTH2_CLIENT_SECRET="..."
//	TENANTADMIN_OAUTH2_TOKEN_URL="https://auth.example.com/token"
//	TENANTADMIN_OAUTH2_SCOPES="rbac.read,rbac.write"
//	TENANTADMIN_API_TIMEOUT="30s"
//	TENANTADMIN_ACTIVITY_RETRIES="2"
//	TENANTADMIN_DEFAULT_USER_STATUS="active"  # or unknown
//
// Caching:
//
//	TENANTADMIN_CACHE_SIZE="512"
//	TENANTADMIN_CACHE_TTL="5m"
//	TENANTADMIN_REFRESH_SCHEDULE="@every 5m"
//	TENANTADMIN_REDIS_ENABLED="true"
//	TENANTADMIN_REDIS_URL="redis://localhost:6379/0"
//	TENANTADMIN_REDIS_TTL="5m"
//
// Observability:
//
//	TENANTADMIN_LOG_LEVEL="info"
//	TENANTADMIN_METRICS_ENABLED="true"
//	TENANTADMIN_OTEL_ENABLED="false"
//	TENANTADMIN_OTEL_ENDPOINT="localhost:4317"
//
// The same settings in YAML:
//
//	api:
//	  base_url: https://crm.example.com/api
//	  tenant_id: acme
//	  timeout: 10s
//	cache:
//	  refresh_schedule: "@every 5m"
//	redis:
//	  enabled: true
//	  url: redis://localhost:6379/0
//	observability:
//	  log_level: debug
package config
