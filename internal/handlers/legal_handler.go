package handlers

import (
	"github.com/gofiber/fiber/v2"
)

const legalStyle = `<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>`

type LegalHandler struct {
	supportEmail string
}

func NewLegalHandler(supportEmail string) *LegalHandler {
	return &LegalHandler{supportEmail: supportEmail}
}

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Privacy Policy - Lynk</title>
` + legalStyle + `
</head><body>
<h1>Privacy Policy</h1>
<p>Last updated: October 2026</p>
<h2>Information We Collect</h2>
<p>Your name, email address, age, gender, profile text and the photos you upload. We also keep the likes, matches, reminders and messages you exchange with other members.</p>
<h2>Who Can See Your Profile</h2>
<p>Other members see your name, age, gender, about text, skills and photos. Your email address is never shown. A member you block, or who blocks you, can no longer see your profile or message you.</p>
<h2>Messages</h2>
<p>Chats are only possible between matched members and are screened for abusive content before delivery.</p>
<h2>Data Storage</h2>
<p>Profiles and messages are stored on encrypted servers and photos in private object storage. We do not sell your personal information.</p>
<h2>Account Deletion</h2>
<p>Deleting your account removes your profile, photos, matches, chats and messages immediately.</p>
<h2>Contact</h2>
<p>For questions about this policy, contact us at ` + h.supportEmail + `</p>
</body></html>`)
}

func (h *LegalHandler) TermsOfService(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Terms of Service - Lynk</title>
` + legalStyle + `
</head><body>
<h1>Terms of Service</h1>
<p>Last updated: October 2026</p>
<h2>Eligibility</h2>
<p>You must be at least 18 years old and verify your email address before sending likes, chatting or uploading photos.</p>
<h2>Fair Use</h2>
<p>Each member has a daily allowance of likes and special likes. Automated liking, fake profiles and harassment lead to removal.</p>
<h2>Content</h2>
<p>You are responsible for the photos and messages you share. Report anything that breaks these terms from the profile or chat screen.</p>
<h2>Termination</h2>
<p>We may suspend accounts that violate these terms. You can delete your account at any time.</p>
<h2>Contact</h2>
<p>Questions about these terms: ` + h.supportEmail + `</p>
</body></html>`)
}
