package service

import (
	"fmt"
	"strconv"

	"github.com/fhic/bankcore/internal/models"
)

// Converter supplies FX conversion for international transfers. Satisfied by
// rates.Client.
type Converter interface {
	Convert(amountINR float64, currency string) (converted float64, rate float64, err error)
}

// InternationalTransfer debits an INR amount, converts it at the reference
// rate and records the transfer with the beneficiary's SWIFT details in the
// transaction metadata.
func (s *Service) InternationalTransfer(conv Converter, accountNumber string, amountINR float64, currency, beneficiary, swiftCode string) (*models.Transaction, error) {
	if amountINR <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive")
	}
	acc := s.FindAccount(accountNumber)
	if acc == nil {
		return nil, fmt.Errorf("account %s not found", accountNumber)
	}
	if acc.Balance < amountINR {
		return nil, fmt.Errorf("insufficient funds: balance %.2f, requested %.2f", acc.Balance, amountINR)
	}

	converted, rate, err := conv.Convert(amountINR, currency)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", currency, err)
	}

	acc.Balance -= amountINR
	txn, err := s.recordTransaction(acc, models.TxnIntlSent, amountINR, "SWIFT", "", map[string]string{
		"currency":    currency,
		"fxRate":      strconv.FormatFloat(rate, 'f', 4, 64),
		"converted":   strconv.FormatFloat(converted, 'f', 2, 64),
		"beneficiary": beneficiary,
		"swiftCode":   swiftCode,
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("International transfer %s: %.2f INR -> %.2f %s at %.4f",
		txn.ID, amountINR, converted, currency, rate)
	return txn, s.persistAccounts()
}
