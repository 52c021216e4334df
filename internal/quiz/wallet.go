package quiz

// Wallet mirrors the auto-win token balance held by the store.
// Spent is reported back at submission so the store stays authoritative.
type Wallet struct {
	balance int
	spent   int
}

// NewWallet creates a wallet with the given starting balance.
func NewWallet(balance int) *Wallet {
	if balance < 0 {
		balance = 0
	}
	return &Wallet{balance: balance}
}

// Balance returns the tokens left.
func (w *Wallet) Balance() int {
	return w.balance
}

// Spent returns the tokens used since the wallet was created or last settled.
func (w *Wallet) Spent() int {
	return w.spent
}

// Spend takes one token. It reports false when the wallet is empty.
func (w *Wallet) Spend() bool {
	if w.balance <= 0 {
		return false
	}
	w.balance--
	w.spent++
	return true
}

// Settle replaces the balance with the store's figure and clears Spent.
func (w *Wallet) Settle(balance int) {
	if balance < 0 {
		balance = 0
	}
	w.balance = balance
	w.spent = 0
}
