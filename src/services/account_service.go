package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tradeboard/backend/src/logger"
	"github.com/tradeboard/backend/src/models"
	"github.com/tradeboard/backend/src/security/validation"
	"github.com/tradeboard/backend/src/storage"
)

type accountServiceImpl struct {
	backend storage.Backend
	now     func() time.Time
}

func NewAccountService(backend storage.Backend) AccountService {
	return &accountServiceImpl{backend: backend, now: time.Now}
}

// Update upserts the snapshot keyed by the broker account number. Fields
// left out of payload are stored as zero values.
func (s *accountServiceImpl) Update(ctx context.Context, payload Payload) (*models.Account, error) {
	if payload == nil {
		return nil, validation.Failf("account is required")
	}
	number, err := validation.AsTicket(payload["number"], "number")
	if err != nil {
		return nil, err
	}

	account := models.Account{Number: number}
	for _, f := range []struct {
		name string
		dst  *string
	}{{"name", &account.Name}, {"currency", &account.Currency}} {
		raw, ok := payload[f.name]
		if !ok || raw == nil {
			continue
		}
		v, err := validation.AsString(raw, f.name)
		if err != nil {
			return nil, err
		}
		v = strings.TrimSpace(validation.StripUnprintable(v))
		if err := validation.ValidateStringMaxLength(v, validation.DefaultMaxStringLength, f.name); err != nil {
			return nil, err
		}
		*f.dst = v
	}

	if raw, ok := payload["leverage"]; ok && raw != nil {
		v, err := validation.AsInt(raw, "leverage")
		if err != nil {
			return nil, err
		}
		account.Leverage = int(v)
	}

	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"balance", &account.Balance},
		{"equity", &account.Equity},
		{"free_margin", &account.FreeMargin},
		{"margin", &account.Margin},
	} {
		raw, ok := payload[f.name]
		if !ok || raw == nil {
			continue
		}
		v, err := validation.AsFloat(raw, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	stamp := models.NewTradeTime(s.now())
	account.CreatedAt = &stamp
	account.UpdatedAt = &stamp
	if err := s.backend.UpsertAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("upsert account %d: %w", number, err)
	}

	logger.FromContext(ctx).Info("Account snapshot updated", "number", number, "balance", account.Balance)
	return &account, nil
}
