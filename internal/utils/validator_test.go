package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type companyForm struct {
	BusinessID  string `json:"business_id" validate:"business_id"`
	Postcode    string `json:"postcode" validate:"omitempty,postcode"`
	BankAccount string `json:"bank_account" validate:"omitempty,fi_bank_account"`
}

func TestBusinessIDValidation(t *testing.T) {
	valid := []string{"0201256-6", "1572860-0"}
	for _, id := range valid {
		assert.NoError(t, ValidateStruct(companyForm{BusinessID: id}), id)
	}

	invalid := []string{"0201256-5", "0201256", "020125-66", "abcdefg-h", ""}
	for _, id := range invalid {
		assert.Error(t, ValidateStruct(companyForm{BusinessID: id}), id)
	}
}

func TestValidationErrorsUseJSONPaths(t *testing.T) {
	err := ValidateStruct(companyForm{BusinessID: "0201256-6", Postcode: "001", BankAccount: "DE89370400440532013000"})
	require.Error(t, err)

	errs := GetValidationErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "postcode", errs[0].Field)
	assert.Equal(t, "Postcode must be five digits", errs[0].Message)
	assert.Equal(t, "bank_account", errs[1].Field)
	assert.Equal(t, "fi_bank_account", errs[1].Tag)
}

func TestBankAccountAllowsSpaces(t *testing.T) {
	assert.NoError(t, ValidateStruct(companyForm{BusinessID: "0201256-6", BankAccount: "FI21 1234 5600 0007 85"}))
}

type contactForm struct {
	Postcode    *string `json:"postcode" validate:"omitempty,postcode"`
	BankAccount *string `json:"bank_account" validate:"omitempty,fi_bank_account"`
	Email       *string `json:"email" validate:"omitempty,blank_or_email"`
	Kind        *string `json:"kind" validate:"omitempty,blank_or_oneof=a b"`
}

func TestOptionalRulesAcceptBlankPointers(t *testing.T) {
	blank := ""
	assert.NoError(t, ValidateStruct(contactForm{Postcode: &blank, BankAccount: &blank, Email: &blank, Kind: &blank}))
	assert.NoError(t, ValidateStruct(contactForm{}))

	badEmail, badKind := "nobody", "c"
	err := ValidateStruct(contactForm{Email: &badEmail, Kind: &badKind})
	require.Error(t, err)

	errs := GetValidationErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "email", errs[0].Field)
	assert.Equal(t, "Invalid email format", errs[0].Message)
	assert.Equal(t, "kind", errs[1].Field)

	good := "matti@example.com"
	assert.NoError(t, ValidateStruct(contactForm{Email: &good}))
}
