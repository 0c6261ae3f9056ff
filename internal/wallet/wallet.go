// Package wallet keeps a user's saved cards. At most one card is the
// default after every mutation.
package wallet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/example/carpool-matching/internal/models"
)

var (
	ErrNotFound    = errors.New("wallet: payment method not found")
	ErrInvalidCard = errors.New("wallet: invalid card")
)

type AddCardCommand struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVC    string `json:"cvc"`
}

type Wallet struct {
	mu      sync.Mutex
	methods []models.PaymentMethod
}

func New(initial []models.PaymentMethod) *Wallet {
	return &Wallet{methods: Normalize(initial)}
}

// Add validates the card and appends it. The first card becomes default.
func (w *Wallet) Add(cmd AddCardCommand) (models.PaymentMethod, error) {
	digits := strings.ReplaceAll(strings.ReplaceAll(cmd.Number, " ", ""), "-", "")
	if len(digits) < 15 || !allDigits(digits) {
		return models.PaymentMethod{}, fmt.Errorf("%w: card number must have at least 15 digits", ErrInvalidCard)
	}
	expiry := strings.TrimSpace(cmd.Expiry)
	if !validExpiry(expiry) {
		return models.PaymentMethod{}, fmt.Errorf("%w: expiry must be MM/YY", ErrInvalidCard)
	}
	cvc := strings.TrimSpace(cmd.CVC)
	if len(cvc) < 3 || len(cvc) > 4 || !allDigits(cvc) {
		return models.PaymentMethod{}, fmt.Errorf("%w: cvc must be 3 or 4 digits", ErrInvalidCard)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	pm := models.PaymentMethod{
		ID:        "pm-" + uuid.NewString(),
		Type:      networkFor(digits),
		Last4:     digits[len(digits)-4:],
		Expiry:    expiry,
		IsDefault: len(w.methods) == 0,
	}
	w.methods = append(w.methods, pm)
	return pm, nil
}

// Remove deletes id. A removed default hands the flag to the first
// remaining card.
func (w *Wallet) Remove(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx := w.indexLocked(id)
	if idx < 0 {
		return ErrNotFound
	}
	wasDefault := w.methods[idx].IsDefault
	w.methods = append(w.methods[:idx:idx], w.methods[idx+1:]...)
	if wasDefault && len(w.methods) > 0 {
		w.methods[0].IsDefault = true
	}
	return nil
}

func (w *Wallet) SetDefault(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.indexLocked(id) < 0 {
		return ErrNotFound
	}
	for i := range w.methods {
		w.methods[i].IsDefault = w.methods[i].ID == id
	}
	return nil
}

func (w *Wallet) List() []models.PaymentMethod {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.PaymentMethod, len(w.methods))
	copy(out, w.methods)
	return out
}

func (w *Wallet) Default() (models.PaymentMethod, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range w.methods {
		if m.IsDefault {
			return m, true
		}
	}
	return models.PaymentMethod{}, false
}

func (w *Wallet) indexLocked(id string) int {
	for i, m := range w.methods {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Normalize returns a copy with exactly one default when non-empty: the
// first flagged card keeps it, or the first card if none was flagged.
func Normalize(methods []models.PaymentMethod) []models.PaymentMethod {
	out := make([]models.PaymentMethod, len(methods))
	copy(out, methods)
	seen := false
	for i := range out {
		if out[i].IsDefault && !seen {
			seen = true
			continue
		}
		out[i].IsDefault = false
	}
	if !seen && len(out) > 0 {
		out[0].IsDefault = true
	}
	return out
}

func networkFor(digits string) models.CardNetwork {
	switch {
	case strings.HasPrefix(digits, "4"):
		return models.NetworkVisa
	case strings.HasPrefix(digits, "34"), strings.HasPrefix(digits, "37"):
		return models.NetworkAmex
	default:
		return models.NetworkMastercard
	}
}

func validExpiry(v string) bool {
	mm, yy, ok := strings.Cut(v, "/")
	if !ok || len(mm) != 2 || len(yy) != 2 || !allDigits(yy) {
		return false
	}
	m, err := strconv.Atoi(mm)
	return err == nil && m >= 1 && m <= 12
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
