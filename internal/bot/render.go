package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"smsrent/internal/activation"
	"smsrent/internal/provider"
)

const (
	menuText = "🎯 *SMS Rental*\n\nWhat do you want to do?"

	orderText = "🔍 *Service search*\n\n" +
		"Type the name of the service you need:\n\n" +
		"💡 Examples:\n" +
		"• `telegram`\n" +
		"• `whatsapp`\n" +
		"• `google`\n" +
		"• `instagram`"

	unavailableText = "⚠️ The provider did not respond. Try again in a moment."
	restartText     = "❌ Nothing selected. Start over with /start"
)

func renderBalance(amount decimal.Decimal) string {
	return fmt.Sprintf("💰 *Your balance:* %s USD", amount.String())
}

func renderSearchResults(query string, n int) string {
	if n == 0 {
		return fmt.Sprintf("❌ No service found for `%s`\n\nTry another name, e.g. `telegram` or `google`.", query)
	}
	return fmt.Sprintf("🔍 *%d service(s) found*\n\nPick one:", n)
}

func renderCountriesHeader(service string) string {
	return fmt.Sprintf("🌍 *Countries available for %s*\n\nPick a country:", service)
}

func renderNoCountries(service string) string {
	return fmt.Sprintf("❌ No country available for `%s`\n\nThe service may be out of stock right now.", service)
}

func countryLabel(name string, entry provider.CountryAvailability) string {
	return fmt.Sprintf("%s • %d nums • $%s", name, entry.Count, entry.Price.StringFixed(3))
}

func renderNumber(act *activation.Activation) string {
	return fmt.Sprintf(
		"✅ *Number rented for %s!*\n\n"+
			"📞 Number: `%s`\n"+
			"🆔 ID: `%s`\n\n"+
			"📝 Use this number to sign up, then tap 'Check SMS'.",
		act.Service, act.PhoneNumber, act.ID,
	)
}

func renderCode(code string) string {
	return fmt.Sprintf("✅ *Code received!*\n\n🔢 Code: `%s`\n\n✔️ Activation completed.", code)
}

func renderUnexpectedStatus(raw string) string {
	return fmt.Sprintf("⚠️ Status: `%s`", raw)
}

func renderProviderError(raw string) string {
	return fmt.Sprintf("❌ *Order failed*\n\nDetails: `%s`", raw)
}

func renderActivations(list []provider.ActiveActivation) string {
	if len(list) == 0 {
		return "📋 No active activations."
	}
	var b strings.Builder
	b.WriteString("📋 *Active activations*\n")
	for _, a := range list {
		fmt.Fprintf(&b, "\n• `%s` %s — `%s` (%s)", a.ID, a.Service, a.Phone, provider.ActivationStatusLabel(a.Status))
	}
	return b.String()
}

func renderHistory(entries []provider.HistoryEntry) string {
	if len(entries) == 0 {
		return "🗂 History is empty."
	}
	var b strings.Builder
	b.WriteString("🗂 *Recent rentals*\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n• %s %s — `%s` $%s (%s)", e.Date, e.Service, e.Phone, e.Cost.StringFixed(2), provider.HistoryStatusLabel(e.Status))
	}
	return b.String()
}
