// Package constants holds identifiers shared between configuration and infrastructure wiring.
package constants

// Credential cache providers
const (
	CacheProviderMemory = "memory"
	CacheProviderRedis  = "redis"
)

// Mail providers
const (
	MailProviderSMTP = "smtp"
	MailProviderLog  = "log"
)

// Mail template names
const (
	MailTemplateVerification = "verification"
	MailTemplateReset        = "reset"
)
