package bank

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/teller/pkg/domain"
)

const (
	MinCreditLimit = 1000.0
	MaxCreditLimit = 100000.0
)

// Card menu and brand option IDs.
const (
	OptionBlockCard   = "block_card"
	OptionApplyCard   = "apply_new_card"
	OptionModifyLimit = "modify_limit"

	CreditCardOption = "credit_card"
	DebitCardOption  = "debit_card"

	BrandVisa       = "visa"
	BrandMastercard = "mastercard"
	BrandRupay      = "rupay"
)

var blockNextSteps = []string{
	"A replacement card will be sent to your registered address within 3-5 business days",
	"Your online banking and mobile app access remains active",
	"Contact customer service at 1-800-BANK-HELP for any concerns",
}

func portfolio(cards []domain.Card) domain.CardPortfolio {
	p := domain.CardPortfolio{Cards: cards, TotalCards: len(cards)}
	for _, c := range cards {
		if c.Status == domain.CardActive {
			p.ActiveCards++
		}
	}
	return p
}

// UserCards offers every card of the user as a selection.
func (s *Service) UserCards(ctx context.Context, userID string) (*domain.Result, error) {
	cards, err := s.repo.ListCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	if len(cards) == 0 {
		return domain.Failure("No cards found for user"), nil
	}
	opts := make([]domain.Option, len(cards))
	for i, c := range cards {
		opts[i] = domain.Option{
			ID:   c.ID,
			Text: fmt.Sprintf("%s Card ending in %s - %s", domain.Title(string(c.Type)), c.LastFour, c.Status),
		}
	}
	res := domain.Selection("Here are your cards. Please select which card you'd like to manage:", opts)
	res.Data = portfolio(cards)
	return res, nil
}

// CardsOverview returns the user's cards for display.
func (s *Service) CardsOverview(ctx context.Context, userID string) (*domain.Result, error) {
	cards, err := s.repo.ListCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	if len(cards) == 0 {
		return domain.Failure("No cards found for user"), nil
	}
	return domain.Success("", portfolio(cards)), nil
}

// BlockCard blocks one of the user's cards. Blocking an already blocked
// card is a warning and leaves the card untouched.
func (s *Service) BlockCard(ctx context.Context, userID, cardID string) (*domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.ownedCard(ctx, userID, cardID)
	switch {
	case errors.Is(err, domain.ErrCardNotFound):
		return domain.Failure("Card not found"), nil
	case errors.Is(err, errUnauthorized):
		return domain.Failure("Unauthorized access to card"), nil
	case err != nil:
		return nil, fmt.Errorf("failed to load card: %w", err)
	}

	if card.Status == domain.CardBlocked {
		return domain.Warning(fmt.Sprintf("The %s %s card ending in %s is already blocked.",
			card.Brand, card.Type, card.LastFour), *card), nil
	}

	now := s.now()
	card.Status = domain.CardBlocked
	card.BlockedDate = &now
	card.BlockedReason = "Customer request"
	if err := s.repo.PutCard(ctx, *card); err != nil {
		return nil, fmt.Errorf("failed to block card: %w", err)
	}
	s.logger.Info("Card blocked", "user_id", userID, "card_id", cardID)

	return domain.Success(
		fmt.Sprintf("✅ Successfully blocked your %s %s card ending in %s", card.Brand, card.Type, card.LastFour),
		domain.BlockConfirmation{
			ConfirmationCode: fmt.Sprintf("BLK%s%s", card.LastFour, now.Format("1504")),
			NextSteps:        append([]string(nil), blockNextSteps...),
			Card:             *card,
		}), nil
}

// CardManagementOptions is the top-level card menu.
func (s *Service) CardManagementOptions(ctx context.Context, userID string) (*domain.Result, error) {
	u, res, err := s.user(ctx, userID)
	if res != nil || err != nil {
		return res, err
	}
	return domain.Selection(fmt.Sprintf("Hello %s! What would you like to do with your cards today?", u.Name),
		[]domain.Option{
			{ID: OptionBlockCard, Text: "Block a Card"},
			{ID: OptionApplyCard, Text: "Apply for New Card"},
			{ID: OptionModifyLimit, Text: "Increase/Decrease Credit Limit"},
		}), nil
}

// NewCardTypeOptions asks for credit or debit.
func (s *Service) NewCardTypeOptions(ctx context.Context, userID string) (*domain.Result, error) {
	return domain.Selection("What type of card would you like to apply for?", []domain.Option{
		{ID: CreditCardOption, Text: "Credit Card"},
		{ID: DebitCardOption, Text: "Debit Card"},
	}), nil
}

// CardBrandOptions asks for the network of a new card.
func (s *Service) CardBrandOptions(ctx context.Context, userID, cardType string) (*domain.Result, error) {
	display := "Debit"
	if cardType == CreditCardOption {
		display = "Credit"
	}
	return domain.Selection(fmt.Sprintf("Which %s card brand would you prefer?", display), []domain.Option{
		{ID: BrandVisa, Text: "Visa"},
		{ID: BrandMastercard, Text: "Mastercard"},
		{ID: BrandRupay, Text: "RuPay"},
	}), nil
}

// binPrefix is the leading digit of each network's card numbers.
var binPrefix = map[string]string{
	BrandVisa:       "4",
	BrandMastercard: "5",
	BrandRupay:      "6",
}

// ApplyNewCard issues an active card immediately and records the application.
func (s *Service) ApplyNewCard(ctx context.Context, userID, cardType, brand string) (*domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, res, err := s.user(ctx, userID)
	if res != nil || err != nil {
		return res, err
	}
	cards, err := s.repo.ListCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	apps, err := s.repo.ListCardApplications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list card applications: %w", err)
	}

	cardID, err := s.freeCardID(ctx, len(cards)+1)
	if err != nil {
		return nil, err
	}
	kind := domain.CardType(strings.TrimSuffix(strings.ToLower(cardType), "_card"))
	brandKey := strings.ToLower(brand)
	brandDisplay := domain.Title(brand)
	number, lastFour := s.cardNumber(brandKey)
	now := s.now()

	card := domain.Card{
		ID:        cardID,
		UserID:    userID,
		Type:      kind,
		Number:    number,
		LastFour:  lastFour,
		Status:    domain.CardActive,
		Brand:     brandDisplay,
		Expiry:    now.AddDate(0, 0, 365*3).Format("01/2006"),
		CreatedAt: now,
	}
	if kind == domain.CardCredit {
		limit := 8000.0
		switch brandKey {
		case BrandVisa:
			limit = 10000
		case BrandMastercard:
			limit = 15000
			card.AnnualFee = 99
		}
		card.Limit = domain.Ptr(limit)
		card.AvailableCredit = domain.Ptr(limit * 0.9)
	} else {
		card.DailyLimit = domain.Ptr(5000.0)
	}
	if err := s.repo.PutCard(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to save card: %w", err)
	}

	app := domain.CardApplication{
		ID:               fmt.Sprintf("CARD%03d", len(apps)+1),
		UserID:           userID,
		Type:             kind,
		Brand:            brandDisplay,
		Status:           "approved",
		AppliedDate:      now.Format(dateLayout),
		ExpectedDelivery: now.AddDate(0, 0, 7).Format(dateLayout),
		CreatedAt:        now,
	}
	if err := s.repo.PutCardApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to save card application: %w", err)
	}
	s.logger.Info("Card issued", "user_id", userID, "card_id", cardID, "brand", brandDisplay)

	var limits string
	if card.Limit != nil {
		limits += " • Credit Limit: " + domain.Money(*card.Limit)
	}
	if card.DailyLimit != nil {
		limits += " • Daily Limit: " + domain.Money(*card.DailyLimit)
	}
	msg := fmt.Sprintf("🎉 Congratulations %s! Your %s %s card has been approved and activated!\n\n"+
		"💳 **Card Details:**\n"+
		"• Card Number: %s\n"+
		"• Card ID: %s\n"+
		"• Brand: %s %s\n"+
		"• Expiry Date: %s\n"+
		"• Status: Active%s\n\n"+
		"📬 Your physical card will be delivered to your registered address within 7 business days. "+
		"You can start using it for online transactions immediately!",
		u.Name, brandDisplay, kind, card.Number, card.ID, brandDisplay, domain.Title(string(kind)), card.Expiry, limits)

	res = domain.Success(msg, domain.NewCardOutcome{Card: card, Application: app})
	res.ProcessComplete = true
	return res, nil
}

// freeCardID returns card_%03d starting at seq, skipping IDs already taken.
func (s *Service) freeCardID(ctx context.Context, seq int) (string, error) {
	for {
		id := fmt.Sprintf("card_%03d", seq)
		_, err := s.repo.GetCard(ctx, id)
		if errors.Is(err, domain.ErrCardNotFound) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check card id: %w", err)
		}
		seq++
	}
}

// cardNumber draws a 16-digit number on the brand's BIN and masks it.
func (s *Service) cardNumber(brand string) (masked, lastFour string) {
	prefix, ok := binPrefix[brand]
	if !ok {
		prefix = binPrefix[BrandVisa]
	}
	var b strings.Builder
	b.WriteString(prefix)
	for i := 0; i < 15; i++ {
		b.WriteByte(byte('0' + s.rng.IntN(10)))
	}
	full := b.String()
	lastFour = full[len(full)-4:]
	return "****-****-****-" + lastFour, lastFour
}

// LimitModificationCards offers the user's active credit cards.
func (s *Service) LimitModificationCards(ctx context.Context, userID string) (*domain.Result, error) {
	cards, err := s.repo.ListCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	var opts []domain.Option
	for _, c := range cards {
		if c.Type != domain.CardCredit || c.Status != domain.CardActive {
			continue
		}
		opts = append(opts, domain.Option{
			ID:   c.ID,
			Text: fmt.Sprintf("%s ending in %s - Current limit: %s", c.Brand, c.LastFour, domain.Money(deref(c.Limit))),
		})
	}
	if len(opts) == 0 {
		return domain.Info("You don't have any active credit cards available for limit modification."), nil
	}
	return domain.Selection("Which credit card's limit would you like to modify?", opts), nil
}

// LimitInfo shows a credit card's limit and opens the new_limit step.
func (s *Service) LimitInfo(ctx context.Context, userID, cardID string) (*domain.Result, error) {
	card, err := s.ownedCard(ctx, userID, cardID)
	switch {
	case errors.Is(err, domain.ErrCardNotFound), errors.Is(err, errUnauthorized):
		return domain.Failure("Card not found"), nil
	case err != nil:
		return nil, fmt.Errorf("failed to load card: %w", err)
	}
	if card.Type != domain.CardCredit || card.Limit == nil {
		return domain.Failure("Credit card not found"), nil
	}

	msg := fmt.Sprintf("**Current Credit Limit Information:**\n\n"+
		"💳 **Card**: %s ending in %s\n"+
		"💰 **Current Limit**: %s\n"+
		"💵 **Available Credit**: %s\n"+
		"📊 **Utilization**: %.1f%%\n\n"+
		"**What would you like to set as the new credit limit?**\n"+
		"(Minimum: $1,000, Maximum: $100,000)",
		card.Brand, card.LastFour, domain.Money(*card.Limit), domain.Money(deref(card.AvailableCredit)),
		card.Utilization()*100)
	res := domain.Continue(msg, domain.NewLimitProcess(domain.LimitData{CardID: card.ID, CurrentLimit: *card.Limit}))
	res.Data = *card
	return res, nil
}

// ModifyCreditLimit sets a new limit, keeping the card's utilization ratio.
func (s *Service) ModifyCreditLimit(ctx context.Context, userID, cardID string, newLimit float64) (*domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.ownedCard(ctx, userID, cardID)
	switch {
	case errors.Is(err, domain.ErrCardNotFound), errors.Is(err, errUnauthorized):
		return domain.Failure("Card not found"), nil
	case err != nil:
		return nil, fmt.Errorf("failed to load card: %w", err)
	}
	if card.Type != domain.CardCredit || card.Limit == nil {
		return domain.Failure("This operation is only available for credit cards"), nil
	}
	if newLimit < MinCreditLimit {
		return domain.Failure("Minimum credit limit is $1,000"), nil
	}
	if newLimit > MaxCreditLimit {
		return domain.Failure("Maximum credit limit is $100,000"), nil
	}

	oldLimit := *card.Limit
	newAvailable := newLimit - newLimit*card.Utilization()
	card.Limit = domain.Ptr(newLimit)
	card.AvailableCredit = domain.Ptr(newAvailable)
	if err := s.repo.PutCard(ctx, *card); err != nil {
		return nil, fmt.Errorf("failed to update credit limit: %w", err)
	}

	change := "decreased"
	if newLimit > oldLimit {
		change = "increased"
	}
	s.logger.Info("Credit limit changed", "user_id", userID, "card_id", cardID, "change", change)

	msg := fmt.Sprintf("✅ Credit limit successfully %s!\n\n"+
		"💳 **Card**: %s ending in %s\n"+
		"📊 **Previous Limit**: %s\n"+
		"🎯 **New Limit**: %s\n"+
		"💵 **Available Credit**: %s\n\n"+
		"⚡ The new limit is effective immediately and will reflect in your next statement.",
		change, card.Brand, card.LastFour, domain.Money(oldLimit), domain.Money(newLimit), domain.Money(newAvailable))

	res := domain.Success(msg, domain.LimitChange{
		CardID:       card.ID,
		OldLimit:     oldLimit,
		NewLimit:     newLimit,
		NewAvailable: newAvailable,
		ChangeAmount: abs(newLimit - oldLimit),
		ChangeType:   change,
	})
	res.ProcessComplete = true
	return res, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
