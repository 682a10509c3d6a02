package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cryptuff/internal/model"
)

// levelValues is ["price", "volume", "timestamp"(, "r")]; every field is text.
type levelValues []string

// decodeBook turns a book data frame into either a snapshot or a delta set.
// Exactly one of the returned pointers is non-nil when err is nil.
func decodeBook(symbol string, df dataFrame, now time.Time) (*model.OrderBookSnapshot, *model.OrderBookDeltaSet, error) {
	objs := make([]map[string]json.RawMessage, 0, len(df.Payloads))
	snapshot := false
	for _, p := range df.Payloads {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(p, &obj); err != nil {
			return nil, nil, &ProtocolError{Reason: "book payload is not an object: " + err.Error(), Frame: p}
		}
		if _, ok := obj["as"]; ok {
			snapshot = true
		}
		if _, ok := obj["bs"]; ok {
			snapshot = true
		}
		objs = append(objs, obj)
	}

	instrument := krakenInstrument(symbol)

	if snapshot {
		s := &model.OrderBookSnapshot{
			Exchange:    model.ExchangeKraken,
			Instrument:  instrument,
			Asks:        []model.OrderBookEntry{},
			Bids:        []model.OrderBookEntry{},
			LastUpdated: now,
		}
		for _, obj := range objs {
			asks, err := decodeEntries(obj["as"])
			if err != nil {
				return nil, nil, err
			}
			bids, err := decodeEntries(obj["bs"])
			if err != nil {
				return nil, nil, err
			}
			s.Asks = append(s.Asks, asks...)
			s.Bids = append(s.Bids, bids...)
		}
		return s, nil, nil
	}

	d := &model.OrderBookDeltaSet{
		Exchange:    model.ExchangeKraken,
		Instrument:  instrument,
		LastUpdated: now,
	}
	seen := false
	for _, obj := range objs {
		if raw, ok := obj["a"]; ok {
			asks, err := decodeDeltas(raw)
			if err != nil {
				return nil, nil, err
			}
			d.Asks = append(d.Asks, asks...)
			seen = true
		}
		if raw, ok := obj["b"]; ok {
			bids, err := decodeDeltas(raw)
			if err != nil {
				return nil, nil, err
			}
			d.Bids = append(d.Bids, bids...)
			seen = true
		}
	}
	if !seen {
		return nil, nil, &ProtocolError{Reason: "book payload without ask or bid side"}
	}
	return nil, d, nil
}

func decodeLevels(raw json.RawMessage) ([]levelValues, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var levels []levelValues
	if err := json.Unmarshal(raw, &levels); err != nil {
		return nil, &ProtocolError{Reason: "invalid price levels: " + err.Error(), Frame: raw}
	}
	return levels, nil
}

func decodeEntries(raw json.RawMessage) ([]model.OrderBookEntry, error) {
	levels, err := decodeLevels(raw)
	if err != nil {
		return nil, err
	}
	entries := make([]model.OrderBookEntry, 0, len(levels))
	for _, lv := range levels {
		e, err := lv.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeDeltas(raw json.RawMessage) ([]model.OrderBookDelta, error) {
	levels, err := decodeLevels(raw)
	if err != nil {
		return nil, err
	}
	deltas := make([]model.OrderBookDelta, 0, len(levels))
	for _, lv := range levels {
		e, err := lv.entry()
		if err != nil {
			return nil, err
		}
		if len(lv) < 3 {
			return nil, &ProtocolError{Reason: "book update level without timestamp"}
		}
		ts, err := parseTimestamp(lv[2])
		if err != nil {
			return nil, err
		}
		deltas = append(deltas, model.OrderBookDelta{OrderBookEntry: e, Timestamp: ts})
	}
	return deltas, nil
}

func (lv levelValues) entry() (model.OrderBookEntry, error) {
	if len(lv) < 2 {
		return model.OrderBookEntry{}, &ProtocolError{Reason: fmt.Sprintf("price level has %d fields", len(lv))}
	}
	price, err := parseNumber("price", lv[0])
	if err != nil {
		return model.OrderBookEntry{}, err
	}
	volume, err := parseNumber("volume", lv[1])
	if err != nil {
		return model.OrderBookEntry{}, err
	}
	return model.OrderBookEntry{Level: price, Volume: volume}, nil
}

// decodeTrades reads the [price, volume, time, side, orderType, misc] tuples.
// Order type and misc are not kept.
func decodeTrades(symbol string, df dataFrame) ([]model.MarketTrade, error) {
	if len(df.Payloads) == 0 {
		return nil, &ProtocolError{Reason: "trade frame without payload"}
	}
	var rows [][]string
	if err := json.Unmarshal(df.Payloads[0], &rows); err != nil {
		return nil, &ProtocolError{Reason: "invalid trade payload: " + err.Error(), Frame: df.Payloads[0]}
	}

	instrument := krakenInstrument(symbol)
	trades := make([]model.MarketTrade, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			return nil, &ProtocolError{Reason: fmt.Sprintf("trade tuple has %d fields", len(row))}
		}
		price, err := parseNumber("price", row[0])
		if err != nil {
			return nil, err
		}
		volume, err := parseNumber("volume", row[1])
		if err != nil {
			return nil, err
		}
		ts, err := parseTimestamp(row[2])
		if err != nil {
			return nil, err
		}
		side := model.SideUnknown
		if len(row) > 3 {
			switch row[3] {
			case "b":
				side = model.SideBuy
			case "s":
				side = model.SideSell
			}
		}
		trades = append(trades, model.MarketTrade{
			Exchange:   model.ExchangeKraken,
			Instrument: instrument,
			Price:      price,
			Volume:     volume,
			Side:       side,
			Timestamp:  ts,
		})
	}
	return trades, nil
}

func parseNumber(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ProtocolError{Reason: fmt.Sprintf("invalid %s %q", field, s)}
	}
	return v, nil
}

// parseTimestamp reads "seconds.fraction" without going through float64 so
// microsecond precision survives.
func parseTimestamp(s string) (time.Time, error) {
	secPart, fracPart, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return time.Time{}, &ProtocolError{Reason: fmt.Sprintf("invalid timestamp %q", s)}
	}
	var nsec int64
	if fracPart != "" {
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		fracPart += strings.Repeat("0", 9-len(fracPart))
		nsec, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return time.Time{}, &ProtocolError{Reason: fmt.Sprintf("invalid timestamp %q", s)}
		}
	}
	return time.Unix(sec, nsec).UTC(), nil
}
