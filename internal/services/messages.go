package services

import (
	"fmt"
	"html"
	"math/rand"
	"strings"
)

// Roasts is the built-in pool used when no generated roast is available
var Roasts = []string{
	"Abe gadhe, DSA kar varna Swiggy pe delivery karega zindagi bhar! 🛵",
	"Oye nikamme! Netflix band kar, LeetCode khol! Nahi toh jobless marega! 💀",
	"Tere dost Google join kar rahe, tu abhi bhi Two Sum mein atka hai ullu! 😭",
	"DSA nahi aati? Koi baat nahi, Chai Ka Thela khol le nalayak! ☕",
	"Array reverse karna nahi aata? Teri life reverse ho jayegi bekaar! 🔄",
	"Recursion samajh nahi aata? Tu khud ek infinite loop hai! 🔁",
	"Tere resume mein sirf WhatsApp forward karne ka experience hai kya? 📱",
	"Did you solve anything today or just scrolling?",
	"Your competitors are grinding right now. What are you doing?",
	"That 0 points is making recruiters cry!",
	"Sitting idle? Try that graph question!",
	"Can't even do Two Sum? Maybe engineering isn't for you!",
}

// Insults is the built-in pool of one-line reality checks
var Insults = []string{
	"You're not just behind, you're in a completely different race.",
	"Your LinkedIn says 'Open to Work' but your LeetCode says 'Never Worked'.",
	"Even ChatGPT can't help someone who doesn't try.",
	"Your future self will be very disappointed.",
	"The only thing consistent about you is your inconsistency.",
	"Your competition thanks you for not showing up.",
	"Dreams don't work unless you do.",
	"You're not lazy, you're just on energy-saving mode... permanently.",
}

// NamePlaceholder is replaced by the recipient's first name in generated content
const NamePlaceholder = "[NAME]"

const messageSignature = "— DSA Grinders Team"

// RandomRoast picks one entry of Roasts
func RandomRoast() string {
	return Roasts[rand.Intn(len(Roasts))]
}

// RandomInsult picks one entry of Insults
func RandomInsult() string {
	return Insults[rand.Intn(len(Insults))]
}

// Personalize replaces every [NAME] token with firstName
func Personalize(content, firstName string) string {
	return strings.ReplaceAll(content, NamePlaceholder, firstName)
}

// DefaultEmailSubject is used when no active email template exists
func DefaultEmailSubject(userName string) string {
	return fmt.Sprintf("🚨 Wake Up %s! Time to Grind DSA", userName)
}

// DefaultWhatsappMessage builds the chat body when no active template exists.
// A non-empty fullMessage replaces the built-in body.
func DefaultWhatsappMessage(userName, roast, insult, fullMessage string) string {
	if fullMessage != "" {
		return fullMessage + "\n\n" + messageSignature
	}
	return fmt.Sprintf(`🔥 *Wake up, %s!*

%s

%s

Stop scrolling. Start coding. Your competitors aren't waiting.

*Goal:* 2+ Medium problems today 💪

%s`, userName, roast, insult, messageSignature)
}

// DefaultEmailHTML builds the email body when no active template exists.
// A non-empty fullMessage replaces the greeting and reality check.
func DefaultEmailHTML(userName, roast, insult, fullMessage, dashboardURL string) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 24px; background: #f9fafb; color: #111827;">`)
	b.WriteString(`<h2 style="text-align: center;">DSA Grinders</h2>`)
	if fullMessage == "" {
		fmt.Fprintf(&b, `<h1>Hey %s 👋</h1>`, html.EscapeString(userName))
		fmt.Fprintf(&b, `<p style="font-size: 18px; font-weight: bold;">%s</p>`, html.EscapeString(roast))
		b.WriteString(`<p>Your competitors are grinding right now. Every minute counts when you're preparing for your dream job.</p>`)
		fmt.Fprintf(&b, `<p><strong>Reality Check:</strong> %s</p>`, html.EscapeString(insult))
	} else {
		fmt.Fprintf(&b, `<p style="font-size: 18px; font-weight: bold;">%s</p>`, html.EscapeString(fullMessage))
	}
	b.WriteString(`<p style="text-align: center;"><a href="https://leetcode.com/problemset/">Start Solving</a>`)
	if dashboardURL != "" {
		fmt.Fprintf(&b, ` | <a href="%s">View Dashboard</a>`, html.EscapeString(dashboardURL))
	}
	b.WriteString(`</p><p style="color: #6b7280; text-align: center;">Keep grinding. Your future self will thank you.</p></div>`)
	return b.String()
}
