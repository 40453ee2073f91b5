package api

// Authentication endpoints
const (
	AuthLogin    = "/auth/login"
	AuthMFA      = "/auth/mfa"
	AuthMFASetup = "/auth/mfa/setup"
	AuthQRCode   = "/auth/qr-code"
	AuthLogout   = "/auth/logout"
)

// Admin endpoints, all behind password + MFA + admin checks
const (
	AdminPrefix  = "/admin"
	AdminUploads = "/uploads"
)

const Health = "/health"
