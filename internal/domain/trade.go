package domain

// TradeSource identifies which ledger a trade record came from.
type TradeSource string

// Trade source constants.
const (
	SourceBacktest TradeSource = "backtest"
	SourcePaper    TradeSource = "paper"
)

// Trade direction constants. The dip strategy only opens long positions.
const (
	DirectionLong = "long"
)

// Position is an open trade. The engine's open-position table owns these
// exclusively, keyed by symbol: at most one open position per symbol.
type Position struct {
	Symbol        string
	EntryTimeMs   int64 // raw bar timestamp at entry (ms, UTC)
	EntryPrice    float64
	Shares        int64
	TargetPrice   float64
	StopPrice     float64
	MaxExitTimeMs int64   // hold-period expiry tick
	DipPct        float64 // dip that triggered entry, in percent
	EntryDate     string  // raw calendar date YYYY-MM-DD, used by same-day checks
	EntryCost     float64 // capital debited at entry, released on exit
}

// ClosedTrade is an immutable ledger record of a completed round trip.
// The ledger is ordered by exit time.
type ClosedTrade struct {
	EntryTimeMs int64  `json:"entry_time"` // display time (session open for daily bars)
	ExitTimeMs  int64  `json:"exit_time"`  // display time (session close for daily bars)
	Symbol      string `json:"symbol"`
	Direction   string `json:"direction"`
	Shares      int64  `json:"shares"`

	EntryPrice  float64 `json:"entry_price"`
	ExitPrice   float64 `json:"exit_price"`
	TargetPrice float64 `json:"target_price"`
	StopPrice   float64 `json:"stop_price"`
	HitTarget   bool    `json:"hit_target"`
	HitStop     bool    `json:"hit_stop"`

	PnL         float64 `json:"pnl"`     // net of fees
	PnLPct      float64 `json:"pnl_pct"` // percent, before fees
	EquityAfter float64 `json:"equity_after"`
	DipPct      float64 `json:"dip_pct"`    // percent
	EntryDate   string  `json:"entry_date"` // raw calendar date at entry

	TAFFee    float64 `json:"taf_fee"`
	CATFee    float64 `json:"cat_fee"`
	TotalFees float64 `json:"total_fees"`
}

// TradeRecord is a ClosedTrade bound to the run that produced it, as persisted
// by trade stores. TradeID is derived deterministically from the run and the
// trade's identity fields.
type TradeRecord struct {
	TradeID string      `json:"trade_id"`
	RunID   string      `json:"run_id"`
	Source  TradeSource `json:"source"`

	ClosedTrade
}

// EquityCurvePoint is one equity observation. The engine appends exactly one
// per simulation tick.
type EquityCurvePoint struct {
	TimestampMs int64   `json:"timestamp"`
	Equity      float64 `json:"equity"`
}
