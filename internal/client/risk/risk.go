// Package risk maps event fields to the category shown next to each feed
// entry. Classification is pure and deterministic; the underlying scores are
// computed upstream, this package only decides how they surface.
package risk

import "github.com/dmitrijs2005/safewatch/internal/events"

// Variant is the visual weight of a badge, mirroring the display variants
// the dashboard uses.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantSecondary   Variant = "secondary"
	VariantDestructive Variant = "destructive"
	VariantOutline     Variant = "outline"
)

// OtpCategory is the displayed trust category of an OTP event.
type OtpCategory string

const (
	OtpSuspicious OtpCategory = "suspicious"
	OtpHighRisk   OtpCategory = "high risk"
	OtpMediumRisk OtpCategory = "medium risk"
	OtpLowRisk    OtpCategory = "low risk"
)

// ClassifyOtp applies the OTP decision table: the suspicious flag wins over
// any risk level; otherwise the precomputed level decides, with unknown or
// absent levels degrading to low.
func ClassifyOtp(e events.OtpEvent) OtpCategory {
	if e.Suspicious {
		return OtpSuspicious
	}
	switch e.RiskLevel {
	case events.RiskHigh:
		return OtpHighRisk
	case events.RiskMedium:
		return OtpMediumRisk
	default:
		return OtpLowRisk
	}
}

// OtpVariant maps an OTP category to its badge variant.
func OtpVariant(c OtpCategory) Variant {
	switch c {
	case OtpSuspicious, OtpHighRisk:
		return VariantDestructive
	case OtpMediumRisk:
		return VariantOutline
	default:
		return VariantSecondary
	}
}

// CallBadge is the displayed category of a call event. Blocked is reported
// separately because it can co-occur with every category.
type CallBadge struct {
	Label   string
	Variant Variant
	Blocked bool
}

// ClassifyCall applies the call decision table: the spam flag overrides the
// caller type entirely; otherwise the type picks the variant, and an absent
// type falls back to outline.
func ClassifyCall(e events.CallEvent) CallBadge {
	b := CallBadge{Blocked: e.Blocked}

	if e.Spam {
		b.Label = "spam"
		b.Variant = VariantDestructive
		return b
	}

	if e.CallerType == nil {
		b.Label = string(events.CallerUnknown)
		b.Variant = VariantOutline
		return b
	}

	switch *e.CallerType {
	case events.CallerBusiness:
		b.Label = string(events.CallerBusiness)
		b.Variant = VariantSecondary
	case events.CallerPersonal:
		b.Label = string(events.CallerPersonal)
		b.Variant = VariantDefault
	case events.CallerSpam:
		b.Label = string(events.CallerSpam)
		b.Variant = VariantDestructive
	default:
		b.Label = string(*e.CallerType)
		b.Variant = VariantOutline
	}
	return b
}
