package types

// PaymentMethodKind tags the variant of a stored payment method.
type PaymentMethodKind string

const (
	PaymentMethodKindCreditCard     PaymentMethodKind = "credit_card"
	PaymentMethodKindPayPalAccount  PaymentMethodKind = "paypal_account"
	PaymentMethodKindApplePayCard   PaymentMethodKind = "apple_pay_card"
	PaymentMethodKindAndroidPayCard PaymentMethodKind = "android_pay_card"
)

func (k PaymentMethodKind) IsCard() bool {
	return k == PaymentMethodKindCreditCard || k == PaymentMethodKindApplePayCard || k == PaymentMethodKindAndroidPayCard
}
