package customers

import "github.com/shopspring/decimal"

type CreateCustomerRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Email       string          `json:"email" validate:"required,email,max=200"`
	Phone       string          `json:"phone" validate:"required,max=50"`
	Address     string          `json:"address" validate:"required,max=500"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}
