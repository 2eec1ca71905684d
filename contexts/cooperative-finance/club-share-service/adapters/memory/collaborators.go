package memory

import (
	"context"
	"fmt"
	"sync"

	"coopshares/contexts/cooperative-finance/club-share-service/ports"

	"github.com/google/uuid"
)

// SentNotification records one delivery attempt accepted by the fake notifier.
type SentNotification struct {
	Recipient    string
	Channel      string
	TemplateType string
	TemplateData map[string]any
}

// Notifier is an in-memory notification gateway. Set Err to make every send
// fail, which is how tests exercise dependency-failure paths.
type Notifier struct {
	mu   sync.Mutex
	Err  error
	Sent []SentNotification
}

func (n *Notifier) Send(_ context.Context, recipient, channel, templateType string, templateData map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, SentNotification{
		Recipient:    recipient,
		Channel:      channel,
		TemplateType: templateType,
		TemplateData: templateData,
	})
	return nil
}

// AccountDirectory fakes the identity provisioning dependency.
type AccountDirectory struct {
	mu       sync.Mutex
	Err      error
	Accounts map[string]string
}

func (d *AccountDirectory) CreateAccount(_ context.Context, name, email, phone string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return "", d.Err
	}
	if d.Accounts == nil {
		d.Accounts = make(map[string]string)
	}
	accountID := uuid.NewString()
	d.Accounts[accountID] = email
	return accountID, nil
}

func (d *AccountDirectory) GenerateActivationToken(_ context.Context, userAccountID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return "", d.Err
	}
	return fmt.Sprintf("activation-%s", userAccountID), nil
}

// CreatedHolding records one tradable holding accepted by the fake ledger.
type CreatedHolding struct {
	UserAccountID string
	Shares        int64
	CostBasis     float64
}

// TradingLedger fakes the trading subsystem that receives fully released
// shares.
type TradingLedger struct {
	mu      sync.Mutex
	Err     error
	Created []CreatedHolding
}

func (l *TradingLedger) CreateTradableHolding(_ context.Context, userAccountID string, shares int64, costBasis float64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return "", l.Err
	}
	l.Created = append(l.Created, CreatedHolding{
		UserAccountID: userAccountID,
		Shares:        shares,
		CostBasis:     costBasis,
	})
	return uuid.NewString(), nil
}

var _ ports.Notifier = (*Notifier)(nil)
var _ ports.AccountProvisioner = (*AccountDirectory)(nil)
var _ ports.TradingLedger = (*TradingLedger)(nil)
