package mailer

import (
	"fmt"
	"html"

	"github.com/nexly/go-shop-api/internal/model"
)

func WelcomeHTML(firstName string) string {
	return fmt.Sprintf(
		`<h1>Welcome, %s!</h1><p>Your account is ready. Happy shopping.</p>`,
		html.EscapeString(firstName),
	)
}

func PasswordResetHTML(firstName, resetURL string) string {
	return fmt.Sprintf(
		`<p>Hi %s,</p><p>Forgot your password? Submit a new one here (valid for 10 minutes):</p><p><a href="%s">%s</a></p><p>If you didn't request this, ignore this email.</p>`,
		html.EscapeString(firstName), resetURL, resetURL,
	)
}

func OrderConfirmationHTML(order *model.Order) string {
	lines := ""
	for _, l := range order.Products {
		lines += fmt.Sprintf(`<li>%s &times; %d: %s</li>`, html.EscapeString(l.NameSnapshot), l.Quantity, l.Subtotal().StringFixed(2))
	}
	return fmt.Sprintf(
		`<h1>Order confirmed</h1><p>Order %s</p><ul>%s</ul><p>Total: %s</p>`,
		order.ID.Hex(), lines, order.TotalPrice.StringFixed(2),
	)
}
