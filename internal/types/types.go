package types

// Raw terminal records. Field names and integer codes follow the MT5 wire
// format exposed by the gateway; time fields stay in their source units
// (seconds, or milliseconds for *_msc) until normalized.

type Position struct {
	Ticket        int64   `json:"ticket"`
	Symbol        string  `json:"symbol"`
	Type          int     `json:"type"`
	Magic         int64   `json:"magic"`
	Volume        float64 `json:"volume"`
	PriceOpen     float64 `json:"price_open"`
	PriceCurrent  float64 `json:"price_current"`
	SL            float64 `json:"sl"`
	TP            float64 `json:"tp"`
	Profit        float64 `json:"profit"`
	Swap          float64 `json:"swap"`
	Time          int64   `json:"time"`
	TimeMsc       int64   `json:"time_msc"`
	TimeUpdate    int64   `json:"time_update"`
	TimeUpdateMsc int64   `json:"time_update_msc"`
	Reason        int     `json:"reason"`
	Comment       string  `json:"comment"`
}

type Deal struct {
	Ticket     int64   `json:"ticket"`
	OrderID    int64   `json:"order"`
	PositionID int64   `json:"position_id"`
	Magic      int64   `json:"magic"`
	Entry      int     `json:"entry"`
	Type       int     `json:"type"`
	Reason     int     `json:"reason"`
	Volume     float64 `json:"volume"`
	Price      float64 `json:"price"`
	Profit     float64 `json:"profit"`
	Commission float64 `json:"commission"`
	Swap       float64 `json:"swap"`
	Fee        float64 `json:"fee"`
	Time       int64   `json:"time"`
	TimeMsc    int64   `json:"time_msc"`
	Symbol     string  `json:"symbol"`
	Comment    string  `json:"comment"`
}

type Order struct {
	Ticket        int64   `json:"ticket"`
	PositionID    int64   `json:"position_id"`
	Magic         int64   `json:"magic"`
	Type          int     `json:"type"`
	State         int     `json:"state"`
	Reason        int     `json:"reason"`
	SL            float64 `json:"sl"`
	TP            float64 `json:"tp"`
	PriceOpen     float64 `json:"price_open"`
	VolumeInitial float64 `json:"volume_initial"`
	TimeSetup     int64   `json:"time_setup"`
	TimeSetupMsc  int64   `json:"time_setup_msc"`
	TimeDone      int64   `json:"time_done"`
	Symbol        string  `json:"symbol"`
	Comment       string  `json:"comment"`
}

type Tick struct {
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	Last    float64 `json:"last"`
	Time    int64   `json:"time"`
	TimeMsc int64   `json:"time_msc"`
}

// Enriched views returned to callers. All timestamps are UTC ISO-8601.

type EnrichedPosition struct {
	Ticket    int64   `json:"ticket"`
	Time      string  `json:"time"`
	Type      string  `json:"type"`
	Magic     int64   `json:"magic"`
	Volume    float64 `json:"volume"`
	PriceOpen float64 `json:"price_open"`
	SL        float64 `json:"sl"`
	TP        float64 `json:"tp"`
	Symbol    string  `json:"symbol"`
	Comment   string  `json:"comment"`
}

type EnrichedTrade struct {
	DealTicket  int64   `json:"deal_ticket"`
	PositionID  int64   `json:"position_id"`
	Symbol      string  `json:"symbol"`
	Volume      float64 `json:"volume"`
	MagicNumber int64   `json:"magic_number"`
	Profit      float64 `json:"profit"`
	Commission  float64 `json:"commission"`
	Swap        float64 `json:"swap"`
	ClosePrice  float64 `json:"close_price"`
	CloseTime   string  `json:"close_time_utc"`
	CloseReason string  `json:"close_reason"`
	OrderType   string  `json:"order_type"`
	OpenPrice   float64 `json:"open_price,omitempty"`
	OpenTime    string  `json:"open_time_utc,omitempty"`
	StopLoss    float64 `json:"stop_loss"`
	TakeProfit  float64 `json:"take_profit"`
}

type Robot struct {
	Name        string `json:"name"`
	MagicNumber int64  `json:"magic_number"`
}

// Deal entry kinds (DEAL_ENTRY_*).
const (
	DealEntryIn    = 0
	DealEntryOut   = 1
	DealEntryInOut = 2
	DealEntryOutBy = 3
)

// Deal/position close reasons (DEAL_REASON_*).
const (
	ReasonClient = 0
	ReasonMobile = 1
	ReasonWeb    = 2
	ReasonExpert = 3
	ReasonSL     = 4
	ReasonTP     = 5
	ReasonSO     = 6
)

var orderTypeNames = map[int]string{
	0: "BUY",
	1: "SELL",
	2: "BUY_LIMIT",
	3: "SELL_LIMIT",
	4: "BUY_STOP",
	5: "SELL_STOP",
	6: "BUY_STOP_LIMIT",
	7: "SELL_STOP_LIMIT",
	8: "CLOSE_BY",
}

var closeReasonNames = map[int]string{
	ReasonClient: "Client",
	ReasonMobile: "Mobile",
	ReasonWeb:    "Web",
	ReasonExpert: "Expert",
	ReasonSL:     "Stop Loss",
	ReasonTP:     "Take Profit",
	ReasonSO:     "Stop Out",
}

// OrderTypeName renders an order/deal type code as its MT5 name. Unknown
// codes come back as "UNKNOWN" so the enriched views never carry silent blanks.
func OrderTypeName(code int) string {
	if n, ok := orderTypeNames[code]; ok {
		return n
	}
	return "UNKNOWN"
}

// CloseReasonName renders a deal reason code as a human-readable label.
func CloseReasonName(code int) string {
	if n, ok := closeReasonNames[code]; ok {
		return n
	}
	return "Unknown"
}
