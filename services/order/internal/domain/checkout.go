package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

type Step int

const (
	StepService Step = iota
	StepDetails
	StepPayment
)

var steps = []Step{StepService, StepDetails, StepPayment}

var stepNames = map[Step]string{
	StepService: "service",
	StepDetails: "details",
	StepPayment: "payment",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return fmt.Sprintf("step(%d)", int(s))
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Step) UnmarshalText(b []byte) error {
	for k, v := range stepNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown checkout step %q", b)
}

const (
	maxNameLen  = 255
	maxPhoneLen = 20
)

var ErrNotAtPaymentStep = fmt.Errorf("%w: checkout can only be submitted from the payment step", ErrValidation)

// CardDetails references a card tokenized by the payment processor's client SDK.
type CardDetails struct {
	Token string `json:"token"`
	Brand string `json:"brand,omitempty"`
	Last4 string `json:"last4,omitempty"`
}

type CardValidator interface {
	ValidateCard(card CardDetails) error
}

type CardValidatorFunc func(card CardDetails) error

func (f CardValidatorFunc) ValidateCard(card CardDetails) error { return f(card) }

type CheckoutForm struct {
	CustomerName   string         `json:"customer_name"`
	Phone          string         `json:"phone"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	Address        string         `json:"address,omitempty"`
	PaymentMethod  PaymentMethod  `json:"payment_method"`
	Card           *CardDetails   `json:"card,omitempty"`
}

func NewCheckoutForm() CheckoutForm {
	return CheckoutForm{
		DeliveryMethod: DeliveryMethodDelivery,
		PaymentMethod:  PaymentMethodCash,
	}
}

// FormPatch is a partial update; nil fields are left untouched.
type FormPatch struct {
	CustomerName   *string         `json:"customer_name,omitempty"`
	Phone          *string         `json:"phone,omitempty"`
	DeliveryMethod *DeliveryMethod `json:"delivery_method,omitempty"`
	Address        *string         `json:"address,omitempty"`
	PaymentMethod  *PaymentMethod  `json:"payment_method,omitempty"`
	Card           *CardDetails    `json:"card,omitempty"`
}

type stepRule func(f CheckoutForm, cards CardValidator) map[string]string

// stepRules maps each step to the validation of the fields it owns.
var stepRules = map[Step]stepRule{
	StepService: validateService,
	StepDetails: validateDetails,
	StepPayment: validatePayment,
}

func validateService(f CheckoutForm, _ CardValidator) map[string]string {
	fields := map[string]string{}
	if !f.DeliveryMethod.Valid() {
		fields["delivery_method"] = "choose delivery or pickup"
	}
	return fields
}

func validateDetails(f CheckoutForm, _ CardValidator) map[string]string {
	fields := map[string]string{}

	name := strings.TrimSpace(f.CustomerName)
	switch {
	case name == "":
		fields["customer_name"] = "name is required"
	case utf8.RuneCountInString(name) > maxNameLen:
		fields["customer_name"] = fmt.Sprintf("name must be at most %d characters", maxNameLen)
	}

	phone := strings.TrimSpace(f.Phone)
	switch {
	case phone == "":
		fields["phone"] = "phone is required"
	case utf8.RuneCountInString(phone) > maxPhoneLen:
		fields["phone"] = fmt.Sprintf("phone must be at most %d characters", maxPhoneLen)
	}

	if f.DeliveryMethod == DeliveryMethodDelivery && strings.TrimSpace(f.Address) == "" {
		fields["address"] = "address is required for delivery"
	}
	return fields
}

func validatePayment(f CheckoutForm, cards CardValidator) map[string]string {
	fields := map[string]string{}
	switch f.PaymentMethod {
	case PaymentMethodCash:
	case PaymentMethodCard:
		switch {
		case f.Card == nil:
			fields["card"] = "card details are required"
		case cards != nil:
			if err := cards.ValidateCard(*f.Card); err != nil {
				fields["card"] = err.Error()
			}
		}
	default:
		fields["payment_method"] = "choose cash or card"
	}
	return fields
}

// CheckoutState is the persisted form of a Checkout.
type CheckoutState struct {
	Step Step         `json:"step"`
	Form CheckoutForm `json:"form"`
}

// Checkout walks the Service -> Details -> Payment wizard. Each step gates
// only the fields it owns; going back never discards input.
type Checkout struct {
	step  Step
	form  CheckoutForm
	cards CardValidator
}

func NewCheckout(cards CardValidator) *Checkout {
	return &Checkout{step: StepService, form: NewCheckoutForm(), cards: cards}
}

func RestoreCheckout(state CheckoutState, cards CardValidator) *Checkout {
	step := state.Step
	if step < StepService || step > StepPayment {
		step = StepService
	}
	return &Checkout{step: step, form: state.Form, cards: cards}
}

func (c *Checkout) State() CheckoutState {
	return CheckoutState{Step: c.step, Form: c.form}
}

func (c *Checkout) Step() Step { return c.step }

func (c *Checkout) Form() CheckoutForm { return c.form }

func (c *Checkout) AtPaymentStep() bool { return c.step == StepPayment }

func (c *Checkout) SetCustomerName(v string) { c.form.CustomerName = v }

func (c *Checkout) SetPhone(v string) { c.form.Phone = v }

func (c *Checkout) SetAddress(v string) { c.form.Address = v }

// SetDeliveryMethod keeps any entered address so switching back restores it.
func (c *Checkout) SetDeliveryMethod(m DeliveryMethod) error {
	if !m.Valid() {
		return &ValidationError{Step: c.step, Fields: map[string]string{"delivery_method": "choose delivery or pickup"}}
	}
	c.form.DeliveryMethod = m
	return nil
}

// SetPaymentMethod keeps card details; they are dropped at submission when unused.
func (c *Checkout) SetPaymentMethod(m PaymentMethod) error {
	if !m.Valid() {
		return &ValidationError{Step: c.step, Fields: map[string]string{"payment_method": "choose cash or card"}}
	}
	c.form.PaymentMethod = m
	return nil
}

func (c *Checkout) SetCard(card CardDetails) { c.form.Card = &card }

// Apply is all-or-nothing: an invalid method leaves the form untouched.
func (c *Checkout) Apply(p FormPatch) error {
	fields := map[string]string{}
	if p.DeliveryMethod != nil && !p.DeliveryMethod.Valid() {
		fields["delivery_method"] = "choose delivery or pickup"
	}
	if p.PaymentMethod != nil && !p.PaymentMethod.Valid() {
		fields["payment_method"] = "choose cash or card"
	}
	if len(fields) > 0 {
		return &ValidationError{Step: c.step, Fields: fields}
	}

	if p.DeliveryMethod != nil {
		c.form.DeliveryMethod = *p.DeliveryMethod
	}
	if p.PaymentMethod != nil {
		c.form.PaymentMethod = *p.PaymentMethod
	}
	if p.CustomerName != nil {
		c.SetCustomerName(*p.CustomerName)
	}
	if p.Phone != nil {
		c.SetPhone(*p.Phone)
	}
	if p.Address != nil {
		c.SetAddress(*p.Address)
	}
	if p.Card != nil {
		c.SetCard(*p.Card)
	}
	return nil
}

// Validate checks the fields owned by step. It returns nil when they are valid.
func (c *Checkout) Validate(step Step) *ValidationError {
	rule, ok := stepRules[step]
	if !ok {
		return nil
	}
	if fields := rule(c.form, c.cards); len(fields) > 0 {
		return &ValidationError{Step: step, Fields: fields}
	}
	return nil
}

// Advance validates the current step and moves forward on success. On the
// payment step it only validates.
func (c *Checkout) Advance() error {
	if verr := c.Validate(c.step); verr != nil {
		return verr
	}
	if c.step < StepPayment {
		c.step++
	}
	return nil
}

func (c *Checkout) Retreat() {
	if c.step > StepService {
		c.step--
	}
}

// Submittable reports whether SubmissionForm would succeed.
func (c *Checkout) Submittable() bool {
	if c.step != StepPayment {
		return false
	}
	for _, s := range steps {
		if c.Validate(s) != nil {
			return false
		}
	}
	return true
}

// SubmissionForm validates every step and returns the cleaned form to submit.
// When a step fails the pointer moves back to it.
func (c *Checkout) SubmissionForm() (CheckoutForm, error) {
	if c.step != StepPayment {
		return CheckoutForm{}, ErrNotAtPaymentStep
	}
	for _, s := range steps {
		if verr := c.Validate(s); verr != nil {
			c.step = s
			return CheckoutForm{}, verr
		}
	}

	f := c.form
	f.CustomerName = strings.TrimSpace(f.CustomerName)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	if f.DeliveryMethod != DeliveryMethodDelivery {
		f.Address = ""
	}
	if f.PaymentMethod != PaymentMethodCard {
		f.Card = nil
	} else {
		card := *f.Card
		f.Card = &card
	}
	return f, nil
}

// IsValidationError reports whether err carries field errors.
func IsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
