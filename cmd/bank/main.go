package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fhic/bankcore/internal/cards"
	"github.com/fhic/bankcore/internal/clock"
	"github.com/fhic/bankcore/internal/config"
	"github.com/fhic/bankcore/internal/integrations/rates"
	"github.com/fhic/bankcore/internal/ledger"
	"github.com/fhic/bankcore/internal/models"
	"github.com/fhic/bankcore/internal/scheduler"
	"github.com/fhic/bankcore/internal/service"
	"github.com/fhic/bankcore/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize layers
	clk := clock.New()
	store, err := ledger.NewStore(cfg.DataDir, clk, logger)
	if err != nil {
		logger.Fatalf("Failed to open data store: %v", err)
	}
	svc, err := service.NewService(store, clk, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize bank service: %v", err)
	}
	cardMgr, err := cards.NewManager(store, cfg, clk, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize card manager: %v", err)
	}
	ratesClient := rates.NewClient(cfg, logger)

	sched := scheduler.New(svc, clk, logger)
	if cfg.SMTPUser != "" {
		sched.SetNotifier(email.NewSender(cfg, logger))
	}
	if err := sched.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := &cli{
		in:    bufio.NewReader(os.Stdin),
		svc:   svc,
		cards: cardMgr,
		rates: ratesClient,
		sched: sched,
		clock: clk,
		log:   logger,
	}
	app.run()

	if err := svc.Save(); err != nil {
		logger.Errorf("Failed to save state on exit: %v", err)
	}
}

type cli struct {
	in      *bufio.Reader
	svc     *service.Service
	cards   *cards.Manager
	rates   *rates.Client
	sched   *scheduler.Scheduler
	clock   *clock.Clock
	log     *logrus.Logger
	current *models.Account
	eof     bool
}

func (c *cli) run() {
	fmt.Println("Welcome to FHIC Bank")
	for !c.eof {
		if c.current == nil {
			if !c.authMenu() {
				return
			}
			continue
		}
		if !c.mainMenu() {
			return
		}
	}
}

func (c *cli) authMenu() bool {
	fmt.Println("\n1. Register")
	fmt.Println("2. Login")
	fmt.Println("3. Exit")
	switch c.prompt("Choose an option: ") {
	case "1":
		c.register()
	case "2":
		c.login()
	case "3":
		return false
	default:
		fmt.Println("Invalid option")
	}
	return true
}

func (c *cli) mainMenu() bool {
	fmt.Printf("\nLogged in as %s (balance %.2f)\n", c.current.Username, c.current.Balance)
	fmt.Println("1. Deposit")
	fmt.Println("2. Withdraw")
	fmt.Println("3. Transfer")
	fmt.Println("4. Record expense")
	fmt.Println("5. Transaction history")
	fmt.Println("6. Recurring bills")
	fmt.Println("7. Loans")
	fmt.Println("8. Cards")
	fmt.Println("9. Spending analytics")
	fmt.Println("10. International transfer")
	fmt.Println("11. Advance one day")
	fmt.Println("12. Logout")
	fmt.Println("13. Exit")
	switch c.prompt("Choose an option: ") {
	case "1":
		c.deposit()
	case "2":
		c.withdraw()
	case "3":
		c.transfer()
	case "4":
		c.expense()
	case "5":
		c.history()
	case "6":
		c.bills()
	case "7":
		c.loans()
	case "8":
		c.cardsMenu()
	case "9":
		c.analytics()
	case "10":
		c.international()
	case "11":
		c.clock.AdvanceDay()
		paid := c.sched.RunDaily()
		fmt.Printf("Advanced to %s, %d auto-debit payment(s) made\n", c.clock.FormattedDate(), paid)
	case "12":
		c.current = nil
	case "13":
		return false
	default:
		fmt.Println("Invalid option")
	}
	return true
}

func (c *cli) register() {
	username := c.prompt("Username: ")
	password := c.prompt("Password: ")
	firstName := c.prompt("First name: ")
	lastName := c.prompt("Last name: ")
	dob := c.prompt("Date of birth (dd-mm-yyyy): ")
	gender := c.prompt("Gender: ")
	phone := c.prompt("Phone: ")
	email := c.prompt("Email: ")
	accountType := strings.ToUpper(c.prompt("Account type (SAVINGS/CURRENT/SALARY): "))

	customer, account, err := c.svc.Register(username, password, firstName, lastName, dob, gender, phone, email, accountType)
	if err != nil {
		fmt.Printf("Registration failed: %v\n", err)
		return
	}
	fmt.Printf("Registered. Customer ID %s, account number %s\n", customer.CustomerID, account.AccountNumber)
}

func (c *cli) login() {
	username := c.prompt("Username: ")
	password := c.prompt("Password: ")
	acc, err := c.svc.Login(username, password)
	if err != nil {
		fmt.Printf("Login failed: %v\n", err)
		return
	}
	c.current = acc
}

func (c *cli) deposit() {
	amount, ok := c.promptAmount("Amount: ")
	if !ok {
		return
	}
	method := c.prompt("Method (Cash/Cheque/UPI): ")
	txn, err := c.svc.Deposit(c.current.AccountNumber, amount, method)
	if err != nil {
		fmt.Printf("Deposit failed: %v\n", err)
		return
	}
	fmt.Printf("Deposited %.2f, new balance %.2f (txn %s)\n", amount, txn.ResultingBalance, txn.ID)
}

func (c *cli) withdraw() {
	amount, ok := c.promptAmount("Amount: ")
	if !ok {
		return
	}
	txn, err := c.svc.Withdraw(c.current.AccountNumber, amount)
	if err != nil {
		fmt.Printf("Withdrawal failed: %v\n", err)
		return
	}
	fmt.Printf("Withdrew %.2f, new balance %.2f (txn %s)\n", amount, txn.ResultingBalance, txn.ID)
}

func (c *cli) transfer() {
	to := c.prompt("Destination account number: ")
	amount, ok := c.promptAmount("Amount: ")
	if !ok {
		return
	}
	mode := strings.ToUpper(c.prompt("Mode (INTER_ACCOUNT/NEFT/RTGS): "))
	if err := c.svc.Transfer(c.current.AccountNumber, to, amount, mode); err != nil {
		fmt.Printf("Transfer failed: %v\n", err)
		return
	}
	fmt.Printf("Transferred %.2f to %s, new balance %.2f\n", amount, to, c.current.Balance)
}

func (c *cli) expense() {
	amount, ok := c.promptAmount("Amount: ")
	if !ok {
		return
	}
	category := c.prompt("Category (Food/Travel/Shopping/...): ")
	merchant := c.prompt("Merchant: ")
	method := c.prompt("Method (UPI/Card/Cash): ")
	txn, err := c.svc.RecordExpense(c.current.AccountNumber, amount, category, merchant, method)
	if err != nil {
		fmt.Printf("Expense failed: %v\n", err)
		return
	}
	fmt.Printf("Recorded %.2f at %s, new balance %.2f\n", amount, merchant, txn.ResultingBalance)

	if strings.EqualFold(method, "Card") {
		cardID := c.prompt("Card ID for reward points: ")
		if cardID == "" {
			return
		}
		earned, err := c.cards.AccruePoints(cardID, amount)
		if err != nil {
			fmt.Printf("Points not credited: %v\n", err)
			return
		}
		fmt.Printf("Earned %d reward point(s)\n", earned)
	}
}

func (c *cli) history() {
	if len(c.current.Transactions) == 0 {
		fmt.Println("No transactions yet")
		return
	}
	for _, txn := range c.current.Transactions {
		fmt.Printf("%s  %-22s %10.2f  balance %10.2f  %s\n",
			txn.Timestamp, txn.Type, txn.Amount, txn.ResultingBalance, txn.ID)
	}
}

func (c *cli) bills() {
	fmt.Println("\n1. List bills")
	fmt.Println("2. Add recurring bill")
	fmt.Println("3. Pay a bill now")
	fmt.Println("4. Cancel a bill")
	switch c.prompt("Choose an option: ") {
	case "1":
		for _, b := range c.svc.BillsForAccount(c.current.AccountNumber) {
			auto := ""
			if b.AutoDebit {
				auto = fmt.Sprintf(" [auto-debit, mandate %s]", b.NACHMandateID)
			}
			fmt.Printf("%s  %-15s %.2f %s, next due %s, missed %d%s\n",
				b.BillID, b.Name, b.Amount, b.Frequency, b.NextDueDate, b.MissedCount, auto)
		}
	case "2":
		name := c.prompt("Bill name: ")
		category := c.prompt("Category: ")
		amount, ok := c.promptAmount("Amount: ")
		if !ok {
			return
		}
		frequency := strings.ToUpper(c.prompt("Frequency (MONTHLY/QUARTERLY/YEARLY): "))
		day, err := strconv.Atoi(c.prompt("Day of month (1-28): "))
		if err != nil {
			fmt.Println("Invalid day")
			return
		}
		autoDebit := strings.EqualFold(c.prompt("Enable auto-debit? (y/n): "), "y")
		bill, err := c.svc.AddRecurringBill(c.current.AccountNumber, name, category, amount, frequency, day, autoDebit)
		if err != nil {
			fmt.Printf("Failed to add bill: %v\n", err)
			return
		}
		fmt.Printf("Bill %s added, first due %s\n", bill.BillID, bill.NextDueDate)
	case "3":
		billID := c.prompt("Bill ID: ")
		for _, b := range c.svc.BillsForAccount(c.current.AccountNumber) {
			if b.BillID == billID {
				if err := c.svc.PayBill(b); err != nil {
					fmt.Printf("Payment failed: %v\n", err)
				} else {
					fmt.Printf("Paid %s, next due %s\n", b.Name, b.NextDueDate)
				}
				return
			}
		}
		fmt.Println("Bill not found")
	case "4":
		if err := c.svc.CancelRecurringBill(c.prompt("Bill ID: ")); err != nil {
			fmt.Printf("Cancel failed: %v\n", err)
		}
	default:
		fmt.Println("Invalid option")
	}
}

func (c *cli) loans() {
	fmt.Println("\n1. List loans")
	fmt.Println("2. Apply for a loan")
	fmt.Println("3. Pay EMI")
	fmt.Println("4. Credit score")
	fmt.Println("5. Update employment profile")
	switch c.prompt("Choose an option: ") {
	case "1":
		for _, l := range c.svc.LoansForCustomer(c.current.CustomerID) {
			fmt.Printf("%s  %.2f at %.2f%% for %d months, EMI %.2f, paid %d, status %s\n",
				l.LoanID, l.Principal, l.InterestRate, l.TenureMonths, l.EMI(), l.EMIsPaid, l.Status)
		}
	case "2":
		principal, ok := c.promptAmount("Principal: ")
		if !ok {
			return
		}
		tenure, err := strconv.Atoi(c.prompt("Tenure (months): "))
		if err != nil {
			fmt.Println("Invalid tenure")
			return
		}
		loan, err := c.svc.ApplyForLoan(c.current.CustomerID, c.current.AccountNumber, principal, tenure)
		if err != nil {
			fmt.Printf("Application rejected: %v\n", err)
			return
		}
		fmt.Printf("Loan %s approved at %.2f%%, EMI %.2f\n", loan.LoanID, loan.InterestRate, loan.EMI())
	case "3":
		loanID := c.prompt("Loan ID: ")
		txn, err := c.svc.PayEMI(loanID, c.current.AccountNumber)
		if err != nil {
			fmt.Printf("EMI payment failed: %v\n", err)
			return
		}
		fmt.Printf("EMI paid, new balance %.2f (txn %s)\n", txn.ResultingBalance, txn.ID)
	case "4":
		score, err := c.svc.CreditScoreFor(c.current.CustomerID)
		if err != nil {
			fmt.Printf("Failed to compute credit score: %v\n", err)
			return
		}
		fmt.Printf("Credit score: %d\n", score)
	case "5":
		salary, ok := c.promptAmount("Monthly salary: ")
		if !ok {
			return
		}
		employer := c.prompt("Employer name: ")
		category := c.prompt("Employer category (MNC/Government/Startup/...): ")
		city := c.prompt("City: ")
		if err := c.svc.UpdateEmploymentProfile(c.current.CustomerID, salary, employer, category, city); err != nil {
			fmt.Printf("Update failed: %v\n", err)
			return
		}
		fmt.Println("Employment profile updated, KYC completed")
	default:
		fmt.Println("Invalid option")
	}
}

func (c *cli) cardsMenu() {
	fmt.Println("\n1. List cards")
	fmt.Println("2. Issue debit card")
	fmt.Println("3. Issue credit card")
	fmt.Println("4. Redeem reward points")
	fmt.Println("5. Block a card")
	switch c.prompt("Choose an option: ") {
	case "1":
		for _, card := range c.cards.CardsForAccount(c.current.AccountNumber) {
			status := "active"
			if card.Blocked {
				status = "blocked"
			}
			fmt.Printf("%s  %s  %d points  %s\n", card.CardID, card.Kind, card.RewardPoints, status)
		}
	case "2":
		c.issueCard(models.CardDebit, 0)
	case "3":
		limit, ok := c.promptAmount("Credit limit: ")
		if !ok {
			return
		}
		c.issueCard(models.CardCredit, limit)
	case "4":
		cardID := c.prompt("Card ID: ")
		value, err := c.cards.RedeemPoints(cardID)
		if err != nil {
			fmt.Printf("Redemption failed: %v\n", err)
			return
		}
		if value == 0 {
			fmt.Println("No points to redeem")
			return
		}
		if _, err := c.svc.RedeemRewards(c.current.AccountNumber, cardID, value); err != nil {
			fmt.Printf("Failed to credit redemption: %v\n", err)
			return
		}
		fmt.Printf("Redeemed points for %.2f, new balance %.2f\n", value, c.current.Balance)
	case "5":
		if err := c.cards.Block(c.prompt("Card ID: ")); err != nil {
			fmt.Printf("Block failed: %v\n", err)
		}
	default:
		fmt.Println("Invalid option")
	}
}

func (c *cli) issueCard(kind string, limit float64) {
	issued, err := c.cards.Issue(c.current.AccountNumber, kind, limit)
	if err != nil {
		fmt.Printf("Card issuance failed: %v\n", err)
		return
	}
	fmt.Printf("Card %s issued\nNumber: %s\nExpiry: %s\nCVV: %s (shown only once)\n",
		issued.Card.CardID, issued.CardNumber, issued.ExpiryDate, issued.CVV)
}

func (c *cli) analytics() {
	stats, err := c.svc.IncomeExpenseStats(c.current.AccountNumber)
	if err != nil {
		fmt.Printf("Failed to compute stats: %v\n", err)
		return
	}
	fmt.Printf("Income %.2f, expenses %.2f, net %.2f\n", stats.Income, stats.Expense, stats.NetBalance)
	breakdown, err := c.svc.SpendByCategory(c.current.AccountNumber)
	if err != nil {
		return
	}
	for _, entry := range breakdown {
		fmt.Printf("  %-20s %10.2f  (%d txns)\n", entry.Category, entry.Total, entry.Count)
	}
}

func (c *cli) international() {
	amount, ok := c.promptAmount("Amount (INR): ")
	if !ok {
		return
	}
	currency := strings.ToUpper(c.prompt("Currency (USD/EUR/GBP/...): "))
	beneficiary := c.prompt("Beneficiary name: ")
	swiftCode := c.prompt("SWIFT code: ")
	txn, err := c.svc.InternationalTransfer(c.rates, c.current.AccountNumber, amount, currency, beneficiary, swiftCode)
	if err != nil {
		fmt.Printf("Transfer failed: %v\n", err)
		return
	}
	fmt.Printf("Sent %s %s (txn %s), new balance %.2f\n",
		txn.Metadata["converted"], currency, txn.ID, txn.ResultingBalance)
}

func (c *cli) prompt(label string) string {
	fmt.Print(label)
	line, err := c.in.ReadString('\n')
	if err != nil {
		c.eof = true
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(line)
}

func (c *cli) promptAmount(label string) (float64, bool) {
	amount, err := strconv.ParseFloat(c.prompt(label), 64)
	if err != nil || amount <= 0 {
		fmt.Println("Invalid amount")
		return 0, false
	}
	return amount, true
}
