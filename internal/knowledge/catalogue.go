package knowledge

import "github.com/resolvd-io/resolvd/pkg/protocol"

// builtin returns the default knowledge catalogue shipped with the daemon.
// Operators can extend it with YAML catalogue files (see LoadFile).
func builtin() map[protocol.Category][]Entry {
	return map[protocol.Category][]Entry{
		protocol.CategoryBilling: {
			{
				Content:  "For billing inquiries, customers can view their invoices in the account dashboard under 'Billing & Payments'. Payment methods can be updated in the same section.",
				Source:   "billing_faq.md",
				Keywords: []string{"invoice", "payment", "billing", "account", "dashboard"},
			},
			{
				Content:  "Refunds are processed within 5-7 business days. Customers must request refunds within 30 days of purchase. Contact billing@company.com for refund requests.",
				Source:   "refund_policy.md",
				Keywords: []string{"refund", "return", "money back", "cancel"},
			},
			{
				Content:  "Subscription changes take effect at the next billing cycle. Upgrades are prorated, downgrades take effect at cycle end to avoid partial charges.",
				Source:   "subscription_management.md",
				Keywords: []string{"subscription", "upgrade", "downgrade", "plan", "billing cycle"},
			},
			{
				Content:  "Failed payments will retry automatically after 3 days. Update payment method to avoid service interruption. Account may be suspended after 3 failed attempts.",
				Source:   "payment_failures.md",
				Keywords: []string{"failed payment", "declined", "card", "suspended", "retry"},
			},
		},

		protocol.CategoryTechnical: {
			{
				Content:  "For login issues, first try clearing browser cache and cookies. If problem persists, reset password using 'Forgot Password' link on login page.",
				Source:   "login_troubleshooting.md",
				Keywords: []string{"login", "password", "authentication", "cache", "cookies"},
			},
			{
				Content:  "API rate limits are 1000 requests per hour for standard accounts, 5000 for premium. Use exponential backoff for retry logic when hitting rate limits.",
				Source:   "api_documentation.md",
				Keywords: []string{"api", "rate limit", "requests", "429", "quota"},
			},
			{
				Content:  "Mobile app crashes can often be resolved by updating to the latest version. Force close the app and restart. Clear app cache if issues persist.",
				Source:   "mobile_troubleshooting.md",
				Keywords: []string{"mobile", "app", "crash", "update", "restart"},
			},
			{
				Content:  "Database connection timeouts indicate high server load. Wait 5-10 minutes and retry. Check status page for ongoing incidents at status.company.com",
				Source:   "server_status.md",
				Keywords: []string{"timeout", "database", "connection", "server", "status"},
			},
			{
				Content:  "Email notifications may be delayed up to 30 minutes during peak hours. Check spam folder if emails are missing. Verify email address in account settings.",
				Source:   "notification_issues.md",
				Keywords: []string{"email", "notification", "spam", "delayed", "missing"},
			},
		},

		protocol.CategorySecurity: {
			{
				Content:  "Enable two-factor authentication (2FA) in account security settings. Use authenticator app for best security. SMS backup is available but less secure.",
				Source:   "2fa_setup.md",
				Keywords: []string{"2fa", "two-factor", "authentication", "security", "authenticator"},
			},
			{
				Content:  "Suspicious account activity should be reported immediately. Change password and review recent login history in security settings. Contact security@company.com for urgent issues.",
				Source:   "security_incidents.md",
				Keywords: []string{"suspicious", "activity", "breach", "unauthorized", "security"},
			},
			{
				Content:  "Password requirements: minimum 12 characters, include uppercase, lowercase, numbers, and symbols. Avoid common passwords and personal information.",
				Source:   "password_policy.md",
				Keywords: []string{"password", "requirements", "strong", "secure", "policy"},
			},
			{
				Content:  "Data export requests are processed within 48 hours. Submit request through account settings > Privacy > Export Data. Files are available for 7 days.",
				Source:   "data_privacy.md",
				Keywords: []string{"data export", "gdpr", "privacy", "download", "personal data"},
			},
		},

		protocol.CategoryGeneral: {
			{
				Content:  "Account deletion is permanent and cannot be undone. Export your data first. Contact support to initiate deletion process. Allow 30 days for complete removal.",
				Source:   "account_deletion.md",
				Keywords: []string{"delete account", "close", "remove", "permanent", "export"},
			},
			{
				Content:  "Feature requests can be submitted through the feedback form in app settings. Popular requests are reviewed monthly by the product team.",
				Source:   "feature_requests.md",
				Keywords: []string{"feature", "request", "suggestion", "feedback", "product"},
			},
			{
				Content:  "Business hours support: Monday-Friday 9AM-6PM EST. Premium customers have 24/7 phone support. Response time: 4 hours for urgent, 24 hours for normal.",
				Source:   "support_hours.md",
				Keywords: []string{"support", "hours", "contact", "response time", "urgent"},
			},
			{
				Content:  "Account information updates (name, email, phone) can be made in profile settings. Email changes require verification. Some changes may require identity verification.",
				Source:   "profile_management.md",
				Keywords: []string{"profile", "update", "personal", "information", "verification"},
			},
		},
	}
}
