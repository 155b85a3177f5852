package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var maxQuantity = decimal.NewFromInt(math.MaxInt64)

// holdingRecord is the persisted shape of one holding: {"quantity": 5, "price": 100.25}
type holdingRecord struct {
	Quantity int64           `json:"quantity"`
	Price    json.RawMessage `json:"price"`
}

// DecodeWarning describes a persisted holdings entry that was skipped
type DecodeWarning struct {
	Ticker string
	Reason string
}

func (w DecodeWarning) String() string {
	return fmt.Sprintf("invalid data for %s: %s", w.Ticker, w.Reason)
}

// EncodeHoldings serializes holdings as a JSON object keyed by ticker, in insertion order.
// A missing cost basis is written as null.
func EncodeHoldings(h *Holdings) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for holding := range h.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++

		key, err := json.Marshal(holding.Ticker)
		if err != nil {
			return nil, fmt.Errorf("failed to encode ticker %s: %w", holding.Ticker, err)
		}
		rec := holdingRecord{Quantity: holding.Quantity, Price: json.RawMessage("null")}
		if holding.CostBasis.Valid {
			rec.Price = json.RawMessage(holding.CostBasis.Decimal.String())
		}
		val, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to encode holding %s: %w", holding.Ticker, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeHoldings parses the persisted holdings object, keeping document order.
// Entries that are not shape-conformant are skipped and reported as warnings;
// only a document that is not a JSON object at all is an error.
func DecodeHoldings(data []byte) (*Holdings, []DecodeWarning, error) {
	holdings := NewHoldings()
	if len(bytes.TrimSpace(data)) == 0 {
		return holdings, nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read holdings: %w", err)
	}
	if tok == nil {
		return holdings, nil, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("holdings must be a JSON object, got %v", tok)
	}

	var warnings []DecodeWarning
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read holdings key: %w", err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("failed to read holding %s: %w", key, err)
		}

		holding, reason := decodeHolding(key, raw)
		if reason != "" {
			warnings = append(warnings, DecodeWarning{Ticker: key, Reason: reason})
			continue
		}
		holdings.Put(holding)
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("failed to read end of holdings: %w", err)
	}
	return holdings, warnings, nil
}

func decodeHolding(key string, raw json.RawMessage) (*Holding, string) {
	ticker := strings.ToUpper(strings.TrimSpace(key))
	if ticker == "" {
		return nil, "empty ticker"
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, "expected object, got " + string(trimmed)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err.Error()
	}

	qtyRaw, ok := fields["quantity"]
	if !ok {
		return nil, "missing quantity"
	}
	qty, err := decimal.NewFromString(string(bytes.TrimSpace(qtyRaw)))
	if err != nil || !qty.IsInteger() || !qty.IsPositive() {
		return nil, "quantity must be a positive integer, got " + string(qtyRaw)
	}
	if qty.GreaterThan(maxQuantity) {
		return nil, "quantity out of range: " + string(qtyRaw)
	}

	holding := &Holding{Ticker: ticker, Quantity: qty.IntPart()}

	priceRaw, ok := fields["price"]
	if !ok || string(bytes.TrimSpace(priceRaw)) == "null" {
		return holding, ""
	}
	var price decimal.Decimal
	if err := price.UnmarshalJSON(priceRaw); err != nil {
		return nil, "invalid price " + string(priceRaw)
	}
	if price.IsNegative() {
		return nil, "negative price " + string(priceRaw)
	}
	holding.CostBasis = decimal.NewNullDecimal(price)
	return holding, ""
}

// MarshalJSON implements json.Marshaler using the persisted holdings shape
func (h *Holdings) MarshalJSON() ([]byte, error) {
	return EncodeHoldings(h)
}
