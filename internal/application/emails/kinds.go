package emails

import (
	"fmt"
	"strconv"

	"anticair-backend/internal/pricing"
)

// Kind identifies one of the transactional mails the workflow sends.
type Kind int

const (
	KindListingValidated Kind = iota + 1
	KindCommissionApplied
	KindListingRejected
	KindRedistributionDeparting
	KindRedistributionNew
	KindAccountStatus
	KindCommissionPaid
	KindNewListing
	KindDataDeleted
)

// Payload carries the per-mail template values. Keys depend on the Kind.
type Payload map[string]string

// Subject returns the mail subject line for the kind.
func (k Kind) Subject() string {
	switch k {
	case KindListingValidated:
		return "Validation of your antiquity"
	case KindCommissionApplied:
		return "Confirmation of the commission application"
	case KindListingRejected:
		return "Refusal to validate your antique"
	case KindRedistributionDeparting:
		return "Redistribution of your antiquity"
	case KindRedistributionNew:
		return "A new antiquity to be checked"
	case KindAccountStatus:
		return "Your account has been updated"
	case KindCommissionPaid:
		return "You received a payment"
	case KindNewListing:
		return "A new antiquity"
	case KindDataDeleted:
		return "Your data has been deleted"
	default:
		return ""
	}
}

func listingBlock(p Payload) string {
	return fmt.Sprintf(`
    <table role="presentation" width="100%%" style="background-color:#FAF6EF;border-radius:6px;">
      <tr><td style="padding:16px;">
        <p style="margin:0 0 8px 0;"><strong>%s</strong></p>
        <p style="margin:0 0 8px 0;">%s</p>
        <p style="margin:0;">Price: <strong>%s &euro;</strong></p>
      </td></tr>
    </table>
`, EscapeHTML(p["title"]), EscapeHTML(p["description"]), EscapeHTML(p["price"]))
}

// content renders the body fragment for the kind, before layout wrapping.
func content(k Kind, p Payload) (string, error) {
	switch k {
	case KindListingValidated:
		return fmt.Sprintf(`
    <h1>Your antiquity has been validated</h1>
    <p>Good news, an antiquarian reviewed your antiquity and accepted it for sale.</p>
    %s
    <p>It is now visible to buyers on Anticair'App.</p>
`, listingBlock(p)), nil
	case KindCommissionApplied:
		commission, err := portionOf(p["price"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`
    <h1>Commission applied</h1>
    <p>The antiquity below has been accepted and the sale commission was applied to its price.</p>
    %s
    <p>Your commission on this sale will be <strong>%s &euro;</strong>.</p>
`, listingBlock(p), commission), nil
	case KindListingRejected:
		return fmt.Sprintf(`
    <h1>Your antiquity was not accepted</h1>
    <p>An antiquarian reviewed your antiquity and could not accept it as submitted.</p>
    %s
    <h2>Antiquarian notes</h2>
    <p>Title: %s</p>
    <p>Description: %s</p>
    <p>Price: %s</p>
    <p>Photos: %s</p>
    <p>You can edit the antiquity and submit it again.</p>
`, listingBlock(p),
			EscapeHTML(p["note_title"]), EscapeHTML(p["note_description"]),
			EscapeHTML(p["note_price"]), EscapeHTML(p["note_photo"])), nil
	case KindRedistributionDeparting:
		return `
    <h1>Your antiquities have been redistributed</h1>
    <p>The antiquities that were awaiting your review have been handed over to another antiquarian.</p>
`, nil
	case KindRedistributionNew:
		return fmt.Sprintf(`
    <h1>A new antiquity needs your review</h1>
    <p>The following antiquity has been assigned to you:</p>
    %s
`, listingBlock(p)), nil
	case KindAccountStatus:
		return fmt.Sprintf(`
    <h1>Your account has been updated</h1>
    <p>The status of your Anticair'App account changed. Your account is now <strong>%s</strong>.</p>
    <p>If you believe this is a mistake, please contact an administrator.</p>
`, EscapeHTML(p["account_newstatus"])), nil
	case KindCommissionPaid:
		commission, err := commissionOf(p["price"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`
    <h1>You received a payment</h1>
    <p>The antiquity below has been sold and your commission was credited to your balance.</p>
    %s
    <p>Commission received: <strong>%s &euro;</strong>.</p>
`, listingBlock(p), commission), nil
	case KindNewListing:
		return fmt.Sprintf(`
    <h1>A new antiquity awaits your review</h1>
    <p>A seller submitted the following antiquity and you were chosen to review it:</p>
    %s
`, listingBlock(p)), nil
	case KindDataDeleted:
		return `
    <h1>Your data has been deleted</h1>
    <p>As requested, your personal data has been removed from Anticair'App.</p>
    <p>Your account is now disabled and your profile anonymized.</p>
`, nil
	default:
		return "", fmt.Errorf("unknown mail kind %d", k)
	}
}

// portionOf extracts the commission share from a commissioned price.
// The displayed price already includes the commission, so the share is
// price minus its pre-commission base.
func portionOf(price string) (string, error) {
	v, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return "", fmt.Errorf("mail payload price %q: %w", price, err)
	}
	return pricing.FormatAmount(pricing.New(0.20).Portion(v)), nil
}

// commissionOf computes the flat 20% share of the listed price for payout display.
func commissionOf(price string) (string, error) {
	v, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return "", fmt.Errorf("mail payload price %q: %w", price, err)
	}
	return pricing.FormatAmount(pricing.Round2(v * 0.20)), nil
}
