// Package cards handles card issuance and reward points. Card PANs and
// expiry dates are AES-encrypted at rest; CVVs are stored only as bcrypt
// hashes and shown to the holder exactly once, at issuance.
package cards

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/fhic/bankcore/internal/clock"
	"github.com/fhic/bankcore/internal/config"
	"github.com/fhic/bankcore/internal/ledger"
	"github.com/fhic/bankcore/internal/models"
	"github.com/fhic/bankcore/internal/utils"
)

// Card BIN prefixes per kind.
const (
	debitBIN  = "506099"
	creditBIN = "400056"
)

// rewardPointsPer is the spend amount that earns one reward point.
const rewardPointsPer = 100.0

// IssuedCard carries the one-time plaintext details returned at issuance.
type IssuedCard struct {
	Card       *models.Card
	CardNumber string
	ExpiryDate string
	CVV        string
}

// Manager owns the card collection.
type Manager struct {
	store *ledger.Store
	cfg   *config.Config
	clock *clock.Clock
	log   *logrus.Logger

	cards []*models.Card
}

// NewManager loads the card collection.
func NewManager(store *ledger.Store, cfg *config.Config, clk *clock.Clock, log *logrus.Logger) (*Manager, error) {
	cards, err := store.LoadCards()
	if err != nil {
		return nil, fmt.Errorf("load cards: %w", err)
	}
	return &Manager{store: store, cfg: cfg, clock: clk, log: log, cards: cards}, nil
}

// Cards returns the live card collection.
func (m *Manager) Cards() []*models.Card {
	return m.cards
}

// CardsForAccount returns the cards linked to an account.
func (m *Manager) CardsForAccount(accountNumber string) []*models.Card {
	var out []*models.Card
	for _, c := range m.cards {
		if c.AccountNumber == accountNumber {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the card with the given ID, or nil.
func (m *Manager) Find(cardID string) *models.Card {
	for _, c := range m.cards {
		if c.CardID == cardID {
			return c
		}
	}
	return nil
}

// Issue creates a card on an account. creditLimit applies to credit cards
// only. The returned IssuedCard holds the only plaintext copy of the CVV.
func (m *Manager) Issue(accountNumber, kind string, creditLimit float64) (*IssuedCard, error) {
	bin := debitBIN
	if kind == models.CardCredit {
		bin = creditBIN
	} else if kind != models.CardDebit {
		return nil, fmt.Errorf("unknown card kind %q", kind)
	}

	cardNumber, err := utils.GenerateCardNumber(bin, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate card number: %w", err)
	}
	expiryDate := utils.GenerateExpiryDate(m.clock.Now())
	cvv, err := utils.GenerateCVV()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CVV: %w", err)
	}

	encryptedNumber, err := utils.Encrypt(cardNumber, m.cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt card number: %w", err)
	}
	encryptedExpiry, err := utils.Encrypt(expiryDate, m.cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt expiry date: %w", err)
	}
	cvvHash, err := bcrypt.GenerateFromPassword([]byte(cvv), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash CVV: %w", err)
	}

	card := &models.Card{
		CardID:        fmt.Sprintf("CARD%s%04d", m.clock.Now().Format("20060102"), len(m.cards)+1),
		AccountNumber: accountNumber,
		Kind:          kind,
		CardNumber:    encryptedNumber,
		ExpiryDate:    encryptedExpiry,
		CVVHash:       string(cvvHash),
		HMAC:          utils.GenerateHMAC(cardNumber, expiryDate, cvv, m.cfg.HMACSecret),
		CreditLimit:   creditLimit,
		IssuedAt:      m.clock.FormattedDateTime(),
	}
	m.cards = append(m.cards, card)
	if err := m.store.SaveCards(m.cards); err != nil {
		return nil, err
	}

	m.log.Infof("%s card %s issued for account %s", kind, card.CardID, accountNumber)
	return &IssuedCard{Card: card, CardNumber: cardNumber, ExpiryDate: expiryDate, CVV: cvv}, nil
}

// VerifyCVV checks a presented CVV against the stored hash.
func (m *Manager) VerifyCVV(cardID, cvv string) bool {
	card := m.Find(cardID)
	if card == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(card.CVVHash), []byte(cvv)) == nil
}

// RevealNumber decrypts the PAN for display to the holder.
func (m *Manager) RevealNumber(cardID string) (string, error) {
	card := m.Find(cardID)
	if card == nil {
		return "", fmt.Errorf("card %s not found", cardID)
	}
	number, err := utils.Decrypt(card.CardNumber, m.cfg.EncryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt card number: %w", err)
	}
	return number, nil
}

// AccruePoints adds reward points for a card spend (1 point per 100 spent)
// and returns the points earned.
func (m *Manager) AccruePoints(cardID string, spend float64) (int, error) {
	card := m.Find(cardID)
	if card == nil {
		return 0, fmt.Errorf("card %s not found", cardID)
	}
	if card.Blocked {
		return 0, fmt.Errorf("card %s is blocked", cardID)
	}
	earned := int(spend / rewardPointsPer)
	card.RewardPoints += earned
	if earned > 0 {
		if err := m.store.SaveCards(m.cards); err != nil {
			return 0, err
		}
	}
	return earned, nil
}

// RedeemPoints zeroes the card's points and returns their cash value
// (1 point = 0.25). The caller credits the account.
func (m *Manager) RedeemPoints(cardID string) (float64, error) {
	card := m.Find(cardID)
	if card == nil {
		return 0, fmt.Errorf("card %s not found", cardID)
	}
	if card.RewardPoints == 0 {
		return 0, nil
	}
	value := float64(card.RewardPoints) * 0.25
	card.RewardPoints = 0
	if err := m.store.SaveCards(m.cards); err != nil {
		return 0, err
	}
	m.log.Infof("Redeemed points on card %s for %.2f", cardID, value)
	return value, nil
}

// Block blocks a card.
func (m *Manager) Block(cardID string) error {
	card := m.Find(cardID)
	if card == nil {
		return fmt.Errorf("card %s not found", cardID)
	}
	card.Blocked = true
	return m.store.SaveCards(m.cards)
}
