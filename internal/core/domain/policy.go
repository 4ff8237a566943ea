package domain

// MethodPolicy is the capability record of one payment method, resolved once
// at registration. Every optional reconciliation or checkout behavior is
// gated on these flags instead of inspecting method types at runtime.
type MethodPolicy struct {
	Method              string
	Capturable          bool
	IPRestricted        bool
	CountryRestricted   bool
	IdentificationBased bool

	// ManualCapture marks methods whose completed orders may be held as an
	// authorization and captured or voided later, behind the admin toggle.
	ManualCapture bool
}

var methodPolicies = map[string]MethodPolicy{
	"ideal":               {Method: "ideal"},
	"bancontact":          {Method: "bancontact"},
	"paypal":              {Method: "paypal"},
	"sofort":              {Method: "sofort"},
	"apple-pay":           {Method: "apple-pay"},
	"credit-card":         {Method: "credit-card", ManualCapture: true},
	"bank-transfer":       {Method: "bank-transfer", IdentificationBased: true},
	"afterpay":            {Method: "afterpay", Capturable: true, IPRestricted: true, CountryRestricted: true},
	"klarna-pay-later":    {Method: "klarna-pay-later", Capturable: true, IPRestricted: true, CountryRestricted: true},
	"klarna-direct-debit": {Method: "klarna-direct-debit", Capturable: true},
}

// PolicyFor returns the capability record of a payment method. Unknown
// methods get a zero-capability policy so nothing optional ever fires for
// them.
func PolicyFor(method string) (MethodPolicy, bool) {
	p, ok := methodPolicies[method]
	if !ok {
		return MethodPolicy{Method: method}, false
	}
	return p, true
}

// Methods lists every registered payment method identifier.
func Methods() []string {
	out := make([]string, 0, len(methodPolicies))
	for m := range methodPolicies {
		out = append(out, m)
	}
	return out
}
