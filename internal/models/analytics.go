package models

// IncomeExpenseStats summarizes credits vs debits over a transaction window.
type IncomeExpenseStats struct {
	Income     float64 `json:"income"`
	Expense    float64 `json:"expense"`
	NetBalance float64 `json:"net_balance"`
}

// CategoryBreakdown is total spend per expense category.
type CategoryBreakdown struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// CreditBurden relates monthly EMI obligations to monthly income.
type CreditBurden struct {
	MonthlyEMIs   float64 `json:"monthly_emis"`
	MonthlySalary float64 `json:"monthly_salary"`
	BurdenRatio   float64 `json:"burden_ratio"` // MonthlyEMIs / MonthlySalary
}
