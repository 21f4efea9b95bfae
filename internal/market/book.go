// Package market provides the inter-agent marketplace: per-resource order
// books matched once per timestep as a continuous double auction.
package market

import (
	"errors"
	"sort"

	"github.com/talgya/gridworld/internal/agents"
	"github.com/talgya/gridworld/internal/resources"
)

// ErrInsufficientInventory rejects a sell order exceeding the agent's
// uncommitted holdings.
var ErrInsufficientInventory = errors.New("insufficient inventory for sell order")

// ErrInsufficientFunds rejects a buy order the agent cannot cover. Only
// enforced when Rules.RequireBuyFunds is set.
var ErrInsufficientFunds = errors.New("insufficient funds for buy order")

// Side is the order direction.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

// String returns "buy" or "sell".
func (s Side) String() string {
	if s == SideSell {
		return "sell"
	}
	return "buy"
}

// Order is one resting bid or ask. Seq is assigned at submission and breaks
// price ties first-in-first-out.
type Order struct {
	Seq      uint64       `json:"seq"`
	AgentID  int          `json:"agent_id"`
	Resource resources.ID `json:"resource"`
	Qty      int          `json:"qty"`
	Price    float64      `json:"price"`
	Side     Side         `json:"side"`
	Step     int          `json:"step"` // Timestep of submission, for TTL expiry
}

// Trade records one matched fill.
type Trade struct {
	Resource resources.ID `json:"resource"`
	BuyerID  int          `json:"buyer_id"`
	SellerID int          `json:"seller_id"`
	Qty      int          `json:"qty"`
	Price    float64      `json:"price"`
	Step     int          `json:"step"`
}

// Rules are the configured economy parameters.
type Rules struct {
	// TTL is how many steps an unmatched order rests; 0 = forever.
	TTL int
	// RequireBuyFunds enforces an upfront balance check on buys.
	RequireBuyFunds bool
	// TradeReward is credited to each distinct party of a fill.
	TradeReward float64
}

// Book holds all resting orders, one buy and one sell queue per resource.
// Buys are kept sorted by descending price, sells by ascending price, FIFO
// within a price level.
type Book struct {
	rules   Rules
	buys    map[resources.ID][]*Order
	sells   map[resources.ID][]*Order
	nextSeq uint64
}

// NewBook creates an empty order book.
func NewBook(rules Rules) *Book {
	return &Book{
		rules: rules,
		buys:  make(map[resources.ID][]*Order),
		sells: make(map[resources.ID][]*Order),
	}
}

// Submit validates and enqueues an order for the given agent, returning the
// assigned sequence number. Sell orders must be covered by inventory not
// already committed to other resting sells.
func (b *Book) Submit(a *agents.Agent, o Order) (uint64, error) {
	if o.Qty <= 0 || o.Price < 0 {
		return 0, errors.New("order qty must be positive and price non-negative")
	}
	o.AgentID = a.ID

	switch o.Side {
	case SideSell:
		available := a.Count(o.Resource) - b.committedSellQty(a.ID, o.Resource)
		if o.Qty > available {
			return 0, ErrInsufficientInventory
		}
	case SideBuy:
		if b.rules.RequireBuyFunds {
			needed := o.Price*float64(o.Qty) + b.committedBuyCost(a.ID)
			if needed > a.Balance {
				return 0, ErrInsufficientFunds
			}
		}
	}

	b.nextSeq++
	o.Seq = b.nextSeq
	order := &o
	if o.Side == SideBuy {
		b.buys[o.Resource] = insertBuy(b.buys[o.Resource], order)
	} else {
		b.sells[o.Resource] = insertSell(b.sells[o.Resource], order)
	}
	return o.Seq, nil
}

// insertBuy keeps buys sorted by descending price, FIFO within a price.
func insertBuy(queue []*Order, o *Order) []*Order {
	i := sort.Search(len(queue), func(i int) bool { return queue[i].Price < o.Price })
	queue = append(queue, nil)
	copy(queue[i+1:], queue[i:])
	queue[i] = o
	return queue
}

// insertSell keeps sells sorted by ascending price, FIFO within a price.
func insertSell(queue []*Order, o *Order) []*Order {
	i := sort.Search(len(queue), func(i int) bool { return queue[i].Price > o.Price })
	queue = append(queue, nil)
	copy(queue[i+1:], queue[i:])
	queue[i] = o
	return queue
}

// committedSellQty sums the agent's resting sell quantity for a resource.
func (b *Book) committedSellQty(agentID int, res resources.ID) int {
	total := 0
	for _, o := range b.sells[res] {
		if o.AgentID == agentID {
			total += o.Qty
		}
	}
	return total
}

// committedBuyCost sums the cost of the agent's resting buys across all
// resources.
func (b *Book) committedBuyCost(agentID int) float64 {
	total := 0.0
	for _, queue := range b.buys {
		for _, o := range queue {
			if o.AgentID == agentID {
				total += o.Price * float64(o.Qty)
			}
		}
	}
	return total
}

// Match repeatedly fills the best crossing buy/sell pair for every resource,
// transacting at the resting order's price (price-time priority). Inventory
// and balance move immediately; partially filled orders stay on the book
// with reduced quantity. Returns the fills in deterministic order.
func (b *Book) Match(index map[int]*agents.Agent, step int) []Trade {
	var trades []Trade
	for _, res := range b.activeResources() {
		for {
			buyQueue := b.buys[res]
			sellQueue := b.sells[res]
			if len(buyQueue) == 0 || len(sellQueue) == 0 {
				break
			}
			buy, sell := buyQueue[0], sellQueue[0]
			if buy.Price < sell.Price {
				break
			}

			// Orders for unregistered agents never survive a reset; drop
			// any stray one rather than transact against nil.
			buyer := index[buy.AgentID]
			if buyer == nil {
				b.buys[res] = buyQueue[1:]
				continue
			}
			seller := index[sell.AgentID]
			if seller == nil {
				b.sells[res] = sellQueue[1:]
				continue
			}

			// A seller may have spent inventory since submitting; trim the
			// order to what is actually held.
			if held := seller.Count(res); sell.Qty > held {
				sell.Qty = held
				if sell.Qty == 0 {
					b.sells[res] = sellQueue[1:]
					continue
				}
			}

			qty := buy.Qty
			if sell.Qty < qty {
				qty = sell.Qty
			}
			// The resting (earlier) order sets the price.
			price := sell.Price
			if buy.Seq < sell.Seq {
				price = buy.Price
			}

			seller.Inventory[res] -= qty
			buyer.Inventory[res] += qty
			cost := price * float64(qty)
			seller.Balance += cost
			buyer.Balance -= cost

			// Self-crosses transact (net zero) but earn nothing, so wash
			// trading cannot farm reward.
			if buyer.ID != seller.ID {
				buyer.AddReward(b.rules.TradeReward)
				seller.AddReward(b.rules.TradeReward)
			}

			trades = append(trades, Trade{
				Resource: res,
				BuyerID:  buyer.ID,
				SellerID: seller.ID,
				Qty:      qty,
				Price:    price,
				Step:     step,
			})

			buy.Qty -= qty
			sell.Qty -= qty
			if buy.Qty == 0 {
				b.buys[res] = b.buys[res][1:]
			}
			if sell.Qty == 0 {
				b.sells[res] = b.sells[res][1:]
			}
		}
	}
	return trades
}

// activeResources returns every resource with at least one resting order,
// ascending, so matching order is deterministic.
func (b *Book) activeResources() []resources.ID {
	seen := make(map[resources.ID]bool)
	var ids []resources.ID
	for res, q := range b.buys {
		if len(q) > 0 && !seen[res] {
			seen[res] = true
			ids = append(ids, res)
		}
	}
	for res, q := range b.sells {
		if len(q) > 0 && !seen[res] {
			seen[res] = true
			ids = append(ids, res)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ExpireBefore drops orders whose TTL elapsed before the given step.
// No-op when TTL is unset.
func (b *Book) ExpireBefore(step int) int {
	if b.rules.TTL <= 0 {
		return 0
	}
	expired := 0
	keep := func(queue []*Order) []*Order {
		out := queue[:0]
		for _, o := range queue {
			if o.Step+b.rules.TTL > step {
				out = append(out, o)
			} else {
				expired++
			}
		}
		return out
	}
	for res := range b.buys {
		b.buys[res] = keep(b.buys[res])
	}
	for res := range b.sells {
		b.sells[res] = keep(b.sells[res])
	}
	return expired
}

// Cancel removes the agent's order with the given sequence number. Returns
// false when no such order rests on the book.
func (b *Book) Cancel(agentID int, seq uint64) bool {
	remove := func(queues map[resources.ID][]*Order) bool {
		for res, queue := range queues {
			for i, o := range queue {
				if o.Seq == seq && o.AgentID == agentID {
					queues[res] = append(queue[:i], queue[i+1:]...)
					return true
				}
			}
		}
		return false
	}
	return remove(b.buys) || remove(b.sells)
}

// OpenOrders returns all resting orders in submission order.
func (b *Book) OpenOrders() []Order {
	var out []Order
	for _, queue := range b.buys {
		for _, o := range queue {
			out = append(out, *o)
		}
	}
	for _, queue := range b.sells {
		for _, o := range queue {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Reset clears the book between episodes.
func (b *Book) Reset() {
	b.buys = make(map[resources.ID][]*Order)
	b.sells = make(map[resources.ID][]*Order)
	b.nextSeq = 0
}
