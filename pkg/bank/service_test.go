package bank_test

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/teller/pkg/adapters/memory"
	"github.com/aretw0/teller/pkg/bank"
	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 7, 28, 10, 30, 0, 0, time.UTC)

func newService(t *testing.T) (*bank.Service, *memory.BankRepository) {
	t.Helper()
	repo := memory.NewBankRepository()
	require.NoError(t, bank.Seed(context.Background(), repo, fixedNow))
	svc := bank.New(repo,
		bank.WithClock(func() time.Time { return fixedNow }),
		bank.WithRand(rand.New(rand.NewPCG(1, 2))),
	)
	return svc, repo
}

func TestSeed_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewBankRepository()
	require.NoError(t, bank.Seed(ctx, repo, fixedNow))

	u, err := repo.GetUser(ctx, bank.DemoUserID)
	require.NoError(t, err)
	u.Balance = 1
	require.NoError(t, repo.PutUser(ctx, *u))

	require.NoError(t, bank.Seed(ctx, repo, fixedNow))
	u, err = repo.GetUser(ctx, bank.DemoUserID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, u.Balance, "existing data is left alone")

	cards, err := repo.ListCards(ctx, bank.DemoUserID)
	require.NoError(t, err)
	require.Len(t, cards, 5)
	assert.Equal(t, "card_001", cards[0].ID)
}

func TestUnknownUser(t *testing.T) {
	svc, _ := newService(t)
	res, err := svc.AccountBalance(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, res.Status)
	assert.Equal(t, "User not found", res.Message)
}

func TestUserCards(t *testing.T) {
	svc, _ := newService(t)
	res, err := svc.UserCards(context.Background(), bank.DemoUserID)
	require.NoError(t, err)

	assert.True(t, res.RequiresSelection)
	require.Len(t, res.Options, 5)
	assert.Equal(t, domain.Option{ID: "card_001", Text: "Credit Card ending in 1234 - active"}, res.Options[0])
	assert.Equal(t, "Debit Card ending in 5678 - active", res.Options[1].Text)
	assert.Equal(t, "Credit Card ending in 7890 - blocked", res.Options[4].Text)

	p, ok := res.Data.(domain.CardPortfolio)
	require.True(t, ok)
	assert.Equal(t, 5, p.TotalCards)
	assert.Equal(t, 4, p.ActiveCards)
}

func TestUserCards_NoCards(t *testing.T) {
	svc, repo := newService(t)
	require.NoError(t, repo.PutUser(context.Background(), domain.User{ID: "empty", Name: "Empty"}))

	res, err := svc.UserCards(context.Background(), "empty")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, res.Status)
	assert.Equal(t, "No cards found for user", res.Message)
}

func TestBlockCard(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	res, err := svc.BlockCard(ctx, bank.DemoUserID, "card_001")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "✅ Successfully blocked your Visa Platinum credit card ending in 1234", res.Message)

	conf, ok := res.Data.(domain.BlockConfirmation)
	require.True(t, ok)
	assert.Equal(t, "BLK12341030", conf.ConfirmationCode)
	assert.Len(t, conf.NextSteps, 3)
	assert.Equal(t, domain.CardBlocked, conf.Card.Status)

	stored, err := repo.GetCard(ctx, "card_001")
	require.NoError(t, err)
	assert.Equal(t, domain.CardBlocked, stored.Status)
	assert.Equal(t, "Customer request", stored.BlockedReason)
	require.NotNil(t, stored.BlockedDate)

	t.Run("Already Blocked", func(t *testing.T) {
		res, err := svc.BlockCard(ctx, bank.DemoUserID, "card_005")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusWarning, res.Status)
		assert.Contains(t, res.Message, "already blocked")
	})

	t.Run("Unknown Card", func(t *testing.T) {
		res, err := svc.BlockCard(ctx, bank.DemoUserID, "card_999")
		require.NoError(t, err)
		assert.Equal(t, "Card not found", res.Message)
	})

	t.Run("Someone Else's Card", func(t *testing.T) {
		require.NoError(t, repo.PutCard(ctx, domain.Card{ID: "foreign", UserID: "other", Type: domain.CardDebit, Status: domain.CardActive}))
		res, err := svc.BlockCard(ctx, bank.DemoUserID, "foreign")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusError, res.Status)
		assert.Equal(t, "Unauthorized access to card", res.Message)
	})
}

func TestAccountBalance(t *testing.T) {
	svc, _ := newService(t)
	res, err := svc.AccountBalance(context.Background(), bank.DemoUserID)
	require.NoError(t, err)
	require.True(t, res.OK())

	b, ok := res.Data.(domain.BalanceSummary)
	require.True(t, ok)
	assert.Equal(t, "John Doe", b.AccountHolder)
	assert.Equal(t, 28750.50, b.CurrentBalance)
	assert.Equal(t, 50000.0, b.CreditCards.TotalLimit)
	assert.Equal(t, 39750.0, b.CreditCards.TotalAvailable)
	assert.Equal(t, "20.5%", b.CreditCards.UtilizationRate)
	assert.Equal(t, "2025-07-28 10:30:00", b.LastUpdated)
}

func TestMiniStatement(t *testing.T) {
	svc, _ := newService(t)
	res, err := svc.MiniStatement(context.Background(), bank.DemoUserID)
	require.NoError(t, err)

	st, ok := res.Data.(domain.Statement)
	require.True(t, ok)
	require.Len(t, st.Transactions, 8)
	assert.Equal(t, "TXN001", st.Transactions[0].ID)
	assert.Equal(t, 8, st.Summary.TotalTransactions)
	assert.InDelta(t, 829.80, st.Summary.TotalDebits, 0.001)
	assert.Equal(t, 4500.0, st.Summary.TotalCredits)
	assert.Equal(t, 4500.0, st.Summary.LargestTransaction)
	assert.Equal(t, "2025-07-21 to 2025-07-28", st.Period)
}

func TestAccountDetails(t *testing.T) {
	svc, _ := newService(t)
	res, err := svc.AccountDetails(context.Background(), bank.DemoUserID)
	require.NoError(t, err)
	require.True(t, res.OK())

	assert.Contains(t, res.Message, "🏦 **Complete Account Details for John Doe**")
	assert.Contains(t, res.Message, "🟢 **Visa Platinum Credit** ending in 1234 - Active\n    Credit Limit: $15,000.00 | Available: $12,500.00")
	assert.Contains(t, res.Message, "🔴 **Visa Classic Credit** ending in 7890 - Blocked")
	assert.Contains(t, res.Message, "    Daily Limit: $2,500.00")
	assert.Contains(t, res.Message, "✅ **LOAN001**: $25,000.00 for Home Renovation\n    Status: Approved | Rate: 5.2% | Monthly: $471.78")
	assert.Contains(t, res.Message, "💰 2025-07-25 - Salary Deposit - TechCorp Inc: $4,500.00")
	assert.Contains(t, res.Message, "No card applications found")
	assert.Contains(t, res.Message, "• Credit Utilization: 20.5%")

	o, ok := res.Data.(domain.AccountOverview)
	require.True(t, ok)
	assert.Len(t, o.Transactions, 5)
	assert.InDelta(t, 20.5, o.CreditUtilization, 0.001)
}

func TestApplyForLoan_Steps(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	res, err := svc.ApplyForLoan(ctx, bank.DemoUserID, ports.LoanRequest{})
	require.NoError(t, err)
	require.True(t, res.RequiresContinuation)
	assert.True(t, res.Continuation.IsNewApplication, "an approved loan on file marks a new application")
	assert.Equal(t, domain.StepAmount, res.Continuation.CurrentStep)
	assert.Contains(t, res.Message, "approved loan for $25,000.00 for Home Renovation")

	res, err = svc.ApplyForLoan(ctx, bank.DemoUserID, ports.LoanRequest{Amount: domain.Ptr(10000.0)})
	require.NoError(t, err)
	assert.Equal(t, domain.StepPurpose, res.Continuation.CurrentStep)
	assert.Contains(t, res.Message, "$10,000.00")

	res, err = svc.ApplyForLoan(ctx, bank.DemoUserID, ports.LoanRequest{
		Amount: domain.Ptr(10000.0), Purpose: domain.Ptr("Education"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StepIncome, res.Continuation.CurrentStep)
	assert.Equal(t, 10000.0, *res.Continuation.Loan.Amount)

	res, err = svc.ApplyForLoan(ctx, bank.DemoUserID, ports.LoanRequest{
		Amount: domain.Ptr(10000.0), Purpose: domain.Ptr("Education"), Income: domain.Ptr(60000.0),
	})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.True(t, res.ProcessComplete)

	app, ok := res.Data.(domain.LoanApplication)
	require.True(t, ok)
	assert.Equal(t, "LOAN002", app.ID)
	assert.Equal(t, domain.LoanInReview, app.Status)
	assert.Equal(t, 10.5, app.InterestRate)
	assert.Equal(t, 214.94, *app.EstimatedMonthlyPayment)
	assert.Equal(t, 200.0, *app.DebtToIncomeRatio)
	assert.Equal(t, "2025-07-28", app.CreatedDate)
	assert.Contains(t, res.Message, "Your application reference number is: LOAN002")

	loans, err := repo.ListLoans(ctx, bank.DemoUserID)
	require.NoError(t, err)
	assert.Len(t, loans, 2)
}

func TestApplyForLoan_AmountOutOfRange(t *testing.T) {
	svc, _ := newService(t)
	for _, amount := range []float64{500, 75000} {
		res, err := svc.ApplyForLoan(context.Background(), bank.DemoUserID, ports.LoanRequest{Amount: domain.Ptr(amount)})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusError, res.Status)
		assert.Equal(t, domain.StepAmount, res.FailedStep)
		assert.False(t, res.RequiresContinuation)
	}
}

func TestMonthlyPayment(t *testing.T) {
	assert.Equal(t, 474.07, bank.MonthlyPayment(25000, 5.2, 60))
	assert.Equal(t, 100.0, bank.MonthlyPayment(6000, 0, 60))
}

func TestLoanStatus(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	res, err := svc.LoanStatus(ctx, bank.DemoUserID)
	require.NoError(t, err)
	assert.Equal(t, "Here are your loan applications, John Doe:", res.Message)
	p, ok := res.Data.(domain.LoanPortfolio)
	require.True(t, ok)
	assert.Len(t, p.Applications, 1)

	require.NoError(t, repo.PutUser(ctx, domain.User{ID: "fresh", Name: "Fresh"}))
	res, err = svc.LoanStatus(ctx, "fresh")
	require.NoError(t, err)
	assert.Contains(t, res.Message, "You don't have any loan applications on file")
}

func TestNewCardFlow(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	res, err := svc.CardManagementOptions(ctx, bank.DemoUserID)
	require.NoError(t, err)
	require.Len(t, res.Options, 3)
	assert.Equal(t, bank.OptionApplyCard, res.Options[1].ID)

	res, err = svc.NewCardTypeOptions(ctx, bank.DemoUserID)
	require.NoError(t, err)
	assert.Equal(t, "What type of card would you like to apply for?", res.Message)

	res, err = svc.CardBrandOptions(ctx, bank.DemoUserID, bank.CreditCardOption)
	require.NoError(t, err)
	assert.Equal(t, "Which Credit card brand would you prefer?", res.Message)
	assert.Len(t, res.Options, 3)

	res, err = svc.ApplyNewCard(ctx, bank.DemoUserID, bank.CreditCardOption, bank.BrandVisa)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.True(t, res.ProcessComplete)

	out, ok := res.Data.(domain.NewCardOutcome)
	require.True(t, ok)
	assert.Equal(t, "card_006", out.Card.ID)
	assert.Equal(t, domain.CardCredit, out.Card.Type)
	assert.Equal(t, "Visa", out.Card.Brand)
	assert.Equal(t, 10000.0, *out.Card.Limit)
	assert.Equal(t, 9000.0, *out.Card.AvailableCredit)
	assert.Equal(t, "07/2028", out.Card.Expiry)
	assert.Regexp(t, `^\*{4}-\*{4}-\*{4}-\d{4}$`, out.Card.Number)
	assert.Equal(t, "CARD001", out.Application.ID)
	assert.Equal(t, "2025-08-04", out.Application.ExpectedDelivery)
	assert.Contains(t, res.Message, "🎉 Congratulations John Doe! Your Visa credit card has been approved and activated!")

	res, err = svc.ApplyNewCard(ctx, bank.DemoUserID, bank.DebitCardOption, bank.BrandRupay)
	require.NoError(t, err)
	out = res.Data.(domain.NewCardOutcome)
	assert.Equal(t, "card_007", out.Card.ID)
	assert.Nil(t, out.Card.Limit)
	assert.Equal(t, 5000.0, *out.Card.DailyLimit)
	assert.Equal(t, "Rupay", out.Card.Brand)

	apps, err := repo.ListCardApplications(ctx, bank.DemoUserID)
	require.NoError(t, err)
	assert.Len(t, apps, 2)
}

func TestApplyNewCard_SkipsTakenIDs(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	require.NoError(t, repo.PutCard(ctx, domain.Card{ID: "card_006", UserID: "other", Type: domain.CardDebit}))

	res, err := svc.ApplyNewCard(ctx, bank.DemoUserID, bank.DebitCardOption, bank.BrandVisa)
	require.NoError(t, err)
	assert.Equal(t, "card_007", res.Data.(domain.NewCardOutcome).Card.ID)
}

func TestLimitModification(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	res, err := svc.LimitModificationCards(ctx, bank.DemoUserID)
	require.NoError(t, err)
	require.Len(t, res.Options, 2, "only active credit cards qualify")
	assert.Equal(t, "Visa Platinum ending in 1234 - Current limit: $15,000.00", res.Options[0].Text)

	res, err = svc.LimitInfo(ctx, bank.DemoUserID, "card_001")
	require.NoError(t, err)
	require.True(t, res.RequiresContinuation)
	assert.Equal(t, domain.StepNewLimit, res.Continuation.CurrentStep)
	assert.Equal(t, domain.LimitData{CardID: "card_001", CurrentLimit: 15000}, *res.Continuation.Limit)
	assert.Contains(t, res.Message, "📊 **Utilization**: 16.7%")

	res, err = svc.LimitInfo(ctx, bank.DemoUserID, "card_002")
	require.NoError(t, err)
	assert.Equal(t, "Credit card not found", res.Message)

	res, err = svc.ModifyCreditLimit(ctx, bank.DemoUserID, "card_001", 20000)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.True(t, res.ProcessComplete)
	change, ok := res.Data.(domain.LimitChange)
	require.True(t, ok)
	assert.Equal(t, "increased", change.ChangeType)
	assert.Equal(t, 5000.0, change.ChangeAmount)
	assert.InDelta(t, 16666.67, change.NewAvailable, 0.01)

	stored, err := repo.GetCard(ctx, "card_001")
	require.NoError(t, err)
	assert.Equal(t, 20000.0, *stored.Limit)
}

func TestModifyCreditLimit_Rejects(t *testing.T) {
	svc, _ := newService(t)
	cases := []struct {
		name   string
		cardID string
		limit  float64
		msg    string
	}{
		{"Too Low", "card_001", 500, "Minimum credit limit is $1,000"},
		{"Too High", "card_001", 150000, "Maximum credit limit is $100,000"},
		{"Debit Card", "card_002", 5000, "This operation is only available for credit cards"},
		{"Unknown Card", "card_999", 5000, "Card not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.ModifyCreditLimit(context.Background(), bank.DemoUserID, tc.cardID, tc.limit)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusError, res.Status)
			assert.Equal(t, tc.msg, res.Message)
		})
	}
}

func TestSearchKnowledge(t *testing.T) {
	svc, _ := newService(t)

	res, err := svc.SearchKnowledge(context.Background(), "personal loan interest rates", 3)
	require.NoError(t, err)
	require.True(t, res.OK())
	hits, ok := res.Data.(domain.KnowledgeHits)
	require.True(t, ok)
	require.NotEmpty(t, hits.Results)
	assert.Contains(t, hits.Results[0].Content, "5.2% APR")

	res, err = svc.SearchKnowledge(context.Background(), "zebra giraffe", 3)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoResults, res.Status)
}

func TestUserData(t *testing.T) {
	svc, _ := newService(t)
	data, err := svc.UserData(context.Background(), bank.DemoUserID)
	require.NoError(t, err)
	assert.Len(t, data.Cards, 5)
	assert.Len(t, data.Loans, 1)
	assert.Len(t, data.RecentTransactions, 8)

	_, err = svc.UserData(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestBlockCard_ConcurrentRequests(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	const workers = 20
	statuses := make([]domain.Status, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.BlockCard(ctx, bank.DemoUserID, "card_002")
			if err == nil {
				statuses[i] = res.Status
			}
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, st := range statuses {
		if st == domain.StatusSuccess {
			successes++
		} else {
			assert.Equal(t, domain.StatusWarning, st)
		}
	}
	assert.Equal(t, 1, successes)
}
