package core

// Summary aggregates a transaction set into income/expense totals and the
// resulting balance. All sums run in integer cents so repeated accumulation
// cannot drift.
type Summary struct {
	Income   Money
	Expenses Money
	Balance  Money // income - expenses; may be negative
	Count    int
}

// Summarize reduces the given transactions. Income and Expenses are
// non-negative magnitudes; the balance carries the sign.
func Summarize(transactions []Transaction) Summary {
	s := Summary{Count: len(transactions)}
	for _, tx := range transactions {
		switch tx.Type {
		case Income:
			s.Income.Cents += tx.Amount.Cents
		case Expense:
			s.Expenses.Cents += tx.Amount.Cents
		}
	}
	s.Balance.Cents = s.Income.Cents - s.Expenses.Cents
	return s
}
