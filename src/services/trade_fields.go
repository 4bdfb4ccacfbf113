package services

import (
	"sort"
	"strings"

	"github.com/tradeboard/backend/src/models"
	"github.com/tradeboard/backend/src/security/validation"
)

// fieldSetter checks one raw payload value and returns the write it stands
// for. Nothing is applied until every field of a request has been checked.
type fieldSetter func(raw any) (apply func(t *models.Trade), err error)

// updatableFields is the closed set of trade columns a partial update may
// touch. ticket, created_at and updated_at are deliberately absent.
var updatableFields = map[string]fieldSetter{
	"account_id": intField("account_id", func(t *models.Trade, v int64) { t.AccountID = v }),
	"symbol":     stringField("symbol", validation.MaxSymbolLength, func(t *models.Trade, v string) { t.Symbol = v }),
	"type":       intField("type", func(t *models.Trade, v int64) { t.Type = int(v) }),
	"lots":       floatField("lots", func(t *models.Trade, v float64) { t.Lots = v }),
	"open_price": floatField("open_price", func(t *models.Trade, v float64) { t.OpenPrice = v }),
	"close_price": nullableFloatField("close_price", func(t *models.Trade, v *float64) {
		t.ClosePrice = v
	}),
	"open_time": timeField("open_time", func(t *models.Trade, v models.TradeTime) { t.OpenTime = v }),
	"close_time": nullableTimeField("close_time", func(t *models.Trade, v *models.TradeTime) {
		t.CloseTime = v
	}),
	"sl":         floatField("sl", func(t *models.Trade, v float64) { t.SL = v }),
	"tp":         floatField("tp", func(t *models.Trade, v float64) { t.TP = v }),
	"profit":     floatField("profit", func(t *models.Trade, v float64) { t.Profit = v }),
	"swap":       floatField("swap", func(t *models.Trade, v float64) { t.Swap = v }),
	"commission": floatField("commission", func(t *models.Trade, v float64) { t.Commission = v }),
	"comment":    stringField("comment", validation.DefaultMaxStringLength, func(t *models.Trade, v string) { t.Comment = v }),
	"status":     stringField("status", validation.DefaultMaxStringLength, func(t *models.Trade, v string) { t.Status = v }),
	"printer":    stringField("printer", validation.DefaultMaxStringLength, func(t *models.Trade, v string) { t.Printer = v }),
}

// resolveUpdates validates every entry of updates against updatableFields and
// returns the writes in field-name order together with those names.
func resolveUpdates(updates Payload) ([]func(t *models.Trade), []string, error) {
	if len(updates) == 0 {
		return nil, nil, validation.Failf("no fields to update")
	}

	names := make([]string, 0, len(updates))
	for name := range updates {
		names = append(names, name)
	}
	sort.Strings(names)

	applies := make([]func(t *models.Trade), 0, len(names))
	for _, name := range names {
		setter, ok := updatableFields[name]
		if !ok {
			return nil, nil, validation.Failf("field '%s' cannot be updated", name)
		}
		apply, err := setter(updates[name])
		if err != nil {
			return nil, nil, err
		}
		applies = append(applies, apply)
	}
	return applies, names, nil
}

func floatField(name string, set func(t *models.Trade, v float64)) fieldSetter {
	return func(raw any) (func(t *models.Trade), error) {
		if raw == nil {
			return nil, validation.Failf("%s cannot be null", name)
		}
		v, err := validation.AsFloat(raw, name)
		if err != nil {
			return nil, err
		}
		return func(t *models.Trade) { set(t, v) }, nil
	}
}

func nullableFloatField(name string, set func(t *models.Trade, v *float64)) fieldSetter {
	return func(raw any) (func(t *models.Trade), error) {
		if raw == nil {
			return func(t *models.Trade) { set(t, nil) }, nil
		}
		v, err := validation.AsFloat(raw, name)
		if err != nil {
			return nil, err
		}
		return func(t *models.Trade) { set(t, &v) }, nil
	}
}

func intField(name string, set func(t *models.Trade, v int64)) fieldSetter {
	return func(raw any) (func(t *models.Trade), error) {
		if raw == nil {
			return nil, validation.Failf("%s cannot be null", name)
		}
		v, err := validation.AsInt(raw, name)
		if err != nil {
			return nil, err
		}
		return func(t *models.Trade) { set(t, v) }, nil
	}
}

func stringField(name string, maxLen int, set func(t *models.Trade, v string)) fieldSetter {
	return func(raw any) (func(t *models.Trade), error) {
		if raw == nil {
			return nil, validation.Failf("%s cannot be null", name)
		}
		v, err := validation.AsString(raw, name)
		if err != nil {
			return nil, err
		}
		v = strings.TrimSpace(validation.StripUnprintable(v))
		if err := validation.ValidateStringMaxLength(v, maxLen, name); err != nil {
			return nil, err
		}
		return func(t *models.Trade) { set(t, v) }, nil
	}
}

func parseTimeValue(raw any, name string) (models.TradeTime, error) {
	s, ok := raw.(string)
	if !ok {
		return models.TradeTime{}, validation.Failf("%s must be a timestamp string", name)
	}
	parsed, err := models.ParseTradeTime(s)
	if err != nil {
		return models.TradeTime{}, validation.Failf("%s: %v", name, err)
	}
	return models.NewTradeTime(parsed), nil
}

func timeField(name string, set func(t *models.Trade, v models.TradeTime)) fieldSetter {
	return func(raw any) (func(t *models.Trade), error) {
		if raw == nil {
			return nil, validation.Failf("%s cannot be null", name)
		}
		v, err := parseTimeValue(raw, name)
		if err != nil {
			return nil, err
		}
		return func(t *models.Trade) { set(t, v) }, nil
	}
}

func nullableTimeField(name string, set func(t *models.Trade, v *models.TradeTime)) fieldSetter {
	return func(raw any) (func(t *models.Trade), error) {
		if raw == nil {
			return func(t *models.Trade) { set(t, nil) }, nil
		}
		v, err := parseTimeValue(raw, name)
		if err != nil {
			return nil, err
		}
		return func(t *models.Trade) { set(t, &v) }, nil
	}
}
