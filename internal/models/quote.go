package models

import "time"

// Quote is a snapshot of an instrument's current trading state.
// Change and ChangePercent are derived from the price fields at read
// time, never stored, so they cannot drift from CurrentPrice.
type Quote struct {
	Symbol        string    `json:"symbol"`
	DisplayName   string    `json:"displayName"`
	CurrentPrice  float64   `json:"currentPrice"`
	PreviousClose float64   `json:"previousClose"`
	DayHigh       float64   `json:"dayHigh"`
	DayLow        float64   `json:"dayLow"`
	Volume        int64     `json:"volume"`
	Currency      string    `json:"currency"`
	Exchange      string    `json:"exchange"`
	MarketState   string    `json:"marketState"`
	AsOf          time.Time `json:"asOf"`
}

func (q *Quote) Change() float64 {
	return q.CurrentPrice - q.PreviousClose
}

func (q *Quote) ChangePercent() float64 {
	if q.PreviousClose == 0 {
		return 0
	}
	return q.Change() / q.PreviousClose * 100
}

// Candle is one OHLCV sample.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Series is an ordered sequence of candles for one symbol,
// chronological ascending as delivered by the provider.
type Series struct {
	Symbol      string   `json:"symbol"`
	DisplayName string   `json:"displayName"`
	Candles     []Candle `json:"candles"`
}
