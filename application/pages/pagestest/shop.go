// Package pagestest provides an in-memory GroceryMate storefront that
// implements browser.Driver, for testing page objects and workflows without
// a browser.
package pagestest

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"grocerycheck/application/pages"
	"grocerycheck/domain/agegate"
	"grocerycheck/domain/review"
	"grocerycheck/infrastructure/browser"
)

// BaseURL is the origin the fake storefront pretends to serve.
const BaseURL = "http://grocerymate.test"

// Product is a listed product.
type Product struct {
	ID    int
	Name  string
	Cents int64
}

// Comment is a stored product review.
type Comment struct {
	Author string
	Stars  int
	Text   string
}

// Shop is a fake storefront. Exported fields configure it and must be set
// before the first driver call.
type Shop struct {
	Email    string
	Password string
	Reviewer string
	Now      time.Time
	Products []Product

	ThresholdCents int64
	FeeCents       int64

	// NoAgePrompt skips the age modal entirely.
	NoAgePrompt bool
	// PromptDelay mounts the age modal this long after the listing renders.
	PromptDelay time.Duration
	// HideReviews leaves the review section of product pages unrendered.
	HideReviews bool
	// IgnoreDeletes makes review deletion a silent no-op.
	IgnoreDeletes bool
	// FormWhenReviewed keeps the review form on screen after a review exists
	// and refuses the next submission instead.
	FormWhenReviewed bool
	// FlatFeeAlways charges the flat fee regardless of the subtotal.
	FlatFeeAlways bool
	// UnknownAgeReply replaces every age gate message with this text.
	UnknownAgeReply string

	mu         sync.Mutex
	running    bool
	path       string
	loadedAt   time.Time
	loggedIn   bool
	loginError bool
	admitted   bool
	ageMsg     string
	inputs     map[string]string
	cart       []line
	purchased  map[string]bool
	comments   map[string][]Comment
	stars      int
	reviewMsg  string
	menuOpen   bool
	clears     int
}

type line struct {
	name string
	qty  int
}

// New returns a shop with two products, a €30 threshold and an €8 fee.
func New() *Shop {
	return &Shop{
		Email:          "maria@example.com",
		Password:       "s3cret!",
		Reviewer:       "Maria",
		Now:            time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC),
		Products:       []Product{{ID: 7, Name: "Ginger", Cents: 650}, {ID: 9, Name: "Kale", Cents: 1200}},
		ThresholdCents: 3000,
		FeeCents:       800,
	}
}

// Site returns the page configuration for the shop with short timeouts.
func (s *Shop) Site() pages.Site {
	return pages.Site{
		BaseURL: BaseURL,
		Timeouts: pages.Timeouts{
			Wait:  300 * time.Millisecond,
			Probe: 100 * time.Millisecond,
			Slow:  500 * time.Millisecond,
		},
	}
}

func (s *Shop) lazyInit() {
	if s.inputs == nil {
		s.inputs = make(map[string]string)
		s.purchased = make(map[string]bool)
		s.comments = make(map[string][]Comment)
	}
}

// Purchase marks product as bought by the user.
func (s *Shop) Purchase(product string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lazyInit()
	s.purchased[product] = true
}

// Purchased reports whether the user bought product.
func (s *Shop) Purchased(product string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purchased[product]
}

// AddComment stores a review on product.
func (s *Shop) AddComment(product string, c Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lazyInit()
	s.comments[product] = append(s.comments[product], c)
}

// Comments returns the reviews stored on product.
func (s *Shop) Comments(product string) []Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Comment(nil), s.comments[product]...)
}

// SetCart replaces the cart contents with qty units of product.
func (s *Shop) SetCart(product string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = []line{{name: product, qty: qty}}
}

// CartUnits returns the total number of units in the cart.
func (s *Shop) CartUnits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.cart {
		n += l.qty
	}
	return n
}

// Admitted reports whether the age gate was passed in this browser.
func (s *Shop) Admitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admitted
}

// LoggedIn reports whether the browser holds a session.
func (s *Shop) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// StateClears counts ClearCookies and ClearLocalStorage calls.
func (s *Shop) StateClears() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

// Start implements browser.Driver.
func (s *Shop) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lazyInit()
	s.running = true
	s.path = "/"
	return nil
}

// Stop implements browser.Driver.
func (s *Shop) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

// IsRunning implements browser.Driver.
func (s *Shop) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Shop) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return browser.ErrNotRunning
	}
	return nil
}

// Navigate implements browser.Driver.
func (s *Shop) Navigate(ctx context.Context, raw string) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	s.load(u.Path)
	return nil
}

// Reload implements browser.Driver.
func (s *Shop) Reload(ctx context.Context) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.load(s.path)
	return nil
}

func (s *Shop) load(path string) {
	s.path = path
	s.loadedAt = time.Now()
	s.inputs = make(map[string]string)
	s.loginError = false
	s.ageMsg = ""
	s.stars = 0
	s.reviewMsg = ""
	s.menuOpen = false
}

// CurrentURL implements browser.Driver.
func (s *Shop) CurrentURL(ctx context.Context) (string, error) {
	if err := s.lock(ctx); err != nil {
		return "", err
	}
	defer s.mu.Unlock()
	return BaseURL + s.path, nil
}

// WaitVisible implements browser.Driver.
func (s *Shop) WaitVisible(ctx context.Context, loc browser.Locator) error {
	return s.waitFor(ctx, loc, true)
}

// WaitPresent implements browser.Driver.
func (s *Shop) WaitPresent(ctx context.Context, loc browser.Locator) error {
	return s.waitFor(ctx, loc, true)
}

// WaitNotPresent implements browser.Driver.
func (s *Shop) WaitNotPresent(ctx context.Context, loc browser.Locator) error {
	return s.waitFor(ctx, loc, false)
}

func (s *Shop) waitFor(ctx context.Context, loc browser.Locator, present bool) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	ok := len(s.nodes(loc)) > 0
	s.mu.Unlock()
	if ok == present {
		return nil
	}

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := s.lock(ctx); err != nil {
			return err
		}
		ok := len(s.nodes(loc)) > 0
		s.mu.Unlock()
		if ok == present {
			return nil
		}
	}
}

// Exists implements browser.Driver.
func (s *Shop) Exists(ctx context.Context, loc browser.Locator) (bool, error) {
	n, err := s.Count(ctx, loc)
	return n > 0, err
}

// Count implements browser.Driver.
func (s *Shop) Count(ctx context.Context, loc browser.Locator) (int, error) {
	if err := s.lock(ctx); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()
	return len(s.nodes(loc)), nil
}

// Click implements browser.Driver.
func (s *Shop) Click(ctx context.Context, loc browser.Locator) error {
	return s.JSClick(ctx, loc)
}

// JSClick implements browser.Driver.
func (s *Shop) JSClick(ctx context.Context, loc browser.Locator) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if len(s.nodes(loc)) == 0 {
		return fmt.Errorf("click %s: %w", loc, browser.ErrNodeNotFound)
	}
	s.click(loc)
	return nil
}

// SendKeys implements browser.Driver.
func (s *Shop) SendKeys(ctx context.Context, loc browser.Locator, text string) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if len(s.nodes(loc)) == 0 {
		return browser.ErrNodeNotFound
	}
	s.inputs[loc.Query] += text
	return nil
}

// Clear implements browser.Driver.
func (s *Shop) Clear(ctx context.Context, loc browser.Locator) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if len(s.nodes(loc)) == 0 {
		return browser.ErrNodeNotFound
	}
	s.inputs[loc.Query] = ""
	return nil
}

// Text implements browser.Driver.
func (s *Shop) Text(ctx context.Context, loc browser.Locator) (string, error) {
	texts, err := s.Texts(ctx, loc)
	if err != nil {
		return "", err
	}
	if len(texts) == 0 {
		return "", browser.ErrNodeNotFound
	}
	return texts[0], nil
}

// Texts implements browser.Driver.
func (s *Shop) Texts(ctx context.Context, loc browser.Locator) ([]string, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return s.nodes(loc), nil
}

// Value implements browser.Driver.
func (s *Shop) Value(ctx context.Context, loc browser.Locator) (string, error) {
	if err := s.lock(ctx); err != nil {
		return "", err
	}
	defer s.mu.Unlock()
	if p, ok := s.productFor(pages.CardQuantity, loc); ok {
		if q := s.qty(p.Name); q > 0 {
			return strconv.Itoa(q), nil
		}
		return "", browser.ErrNodeNotFound
	}
	if len(s.nodes(loc)) == 0 {
		return "", browser.ErrNodeNotFound
	}
	return s.inputs[loc.Query], nil
}

// Attribute implements browser.Driver.
func (s *Shop) Attribute(ctx context.Context, loc browser.Locator, name string) (string, bool, error) {
	if name != "value" {
		return "", false, nil
	}
	v, err := s.Value(ctx, loc)
	return v, err == nil, err
}

// OuterHTML implements browser.Driver. Only the page body is rendered.
func (s *Shop) OuterHTML(ctx context.Context, loc browser.Locator) (string, error) {
	if err := s.lock(ctx); err != nil {
		return "", err
	}
	defer s.mu.Unlock()
	if loc.Query != pages.PageBody.Query {
		return "", fmt.Errorf("outer html of %s: not rendered by fake", loc)
	}
	return s.renderBody(), nil
}

// Evaluate implements browser.Driver. Scripts are not run.
func (s *Shop) Evaluate(ctx context.Context, _ string, _ any) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	s.mu.Unlock()
	return nil
}

// ClearCookies implements browser.Driver.
func (s *Shop) ClearCookies(ctx context.Context) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.loggedIn = false
	s.clears++
	return nil
}

// ClearLocalStorage implements browser.Driver.
func (s *Shop) ClearLocalStorage(ctx context.Context) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.admitted = false
	s.clears++
	return nil
}

// CaptureScreenshot implements browser.Driver.
func (s *Shop) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return []byte("\x89PNG\r\n\x1a\nfake:" + s.path), nil
}

func (s *Shop) on(prefix string) bool { return strings.HasPrefix(s.path, prefix) }

func (s *Shop) agePrompt() bool {
	return s.on(pages.StorePath) && !s.admitted && !s.NoAgePrompt &&
		time.Since(s.loadedAt) >= s.PromptDelay
}

func (s *Shop) currentProduct() (Product, bool) {
	if !s.on(pages.ProductPathPrefix) {
		return Product{}, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(s.path, pages.ProductPathPrefix))
	if err != nil {
		return Product{}, false
	}
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (s *Shop) productFor(tmpl, loc browser.Locator) (Product, bool) {
	for _, p := range s.Products {
		if tmpl.With(browser.XPathLiteral(p.Name)).Query == loc.Query {
			return p, true
		}
	}
	return Product{}, false
}

func (s *Shop) qty(name string) int {
	for _, l := range s.cart {
		if l.name == name {
			return l.qty
		}
	}
	return 0
}

func (s *Shop) ownComment(product string) int {
	for i, c := range s.comments[product] {
		if c.Author == s.Reviewer {
			return i
		}
	}
	return -1
}

func (s *Shop) subtotal() int64 {
	var cents int64
	for _, l := range s.cart {
		for _, p := range s.Products {
			if p.Name == l.name {
				cents += p.Cents * int64(l.qty)
			}
		}
	}
	return cents
}

func (s *Shop) fee() int64 {
	if !s.FlatFeeAlways && s.subtotal() >= s.ThresholdCents {
		return 0
	}
	return s.FeeCents
}

func euros(cents int64) string {
	return fmt.Sprintf("%d.%02d €", cents/100, cents%100)
}

func repeat(text string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = text
	}
	return out
}

func one(cond bool, text string) []string {
	if !cond {
		return nil
	}
	return []string{text}
}

// nodes returns the text of every node loc matches in the current state.
func (s *Shop) nodes(loc browser.Locator) []string {
	checkout := s.on(pages.CheckoutPath)
	product, onProduct := s.currentProduct()
	section := onProduct && !s.HideReviews
	reviewed := section && s.ownComment(product.Name) >= 0
	form := section && s.purchased[product.Name] && (!reviewed || s.FormWhenReviewed)

	switch loc.Query {
	case pages.LoginEmail.Query, pages.LoginPassword.Query, pages.LoginSubmit.Query:
		return one(s.on(pages.LoginPath), "")
	case pages.LoginError.Query:
		return one(s.loginError, pages.MsgInvalidCredentials)
	case pages.StoreLink.Query:
		return one(s.loggedIn, "Store")
	case pages.BirthDateInput.Query, pages.AgeConfirm.Query:
		return one(s.agePrompt(), "")
	case pages.AgeMessage.Query:
		return one(s.ageMsg != "", s.ageMsg)
	case pages.ProductCard.Query:
		if !s.on(pages.StorePath) {
			return nil
		}
		return repeat("", len(s.Products))
	case pages.RemoveItem.Query, pages.DecreaseQuantity.Query:
		if !checkout {
			return nil
		}
		return repeat("", len(s.cart))
	case pages.Subtotal.Query:
		return one(checkout && len(s.cart) > 0, euros(s.subtotal()))
	case pages.ShippingCost.Query:
		if s.fee() == 0 {
			return one(checkout && len(s.cart) > 0, "Free")
		}
		return one(checkout && len(s.cart) > 0, euros(s.fee()))
	case pages.CheckoutStreet.Query, pages.CheckoutCity.Query, pages.CheckoutPostalCode.Query,
		pages.CheckoutCardNumber.Query, pages.CheckoutNameOnCard.Query, pages.CheckoutExpiry.Query,
		pages.CheckoutCVC.Query:
		return one(checkout, "")
	case pages.BuyNow.Query:
		return one(checkout && len(s.cart) > 0, "Buy now")
	case pages.ReviewSummary.Query:
		return one(section, fmt.Sprintf("%d reviews", len(s.comments[product.Name])))
	case pages.RatingWidget.Query, pages.ReviewText.Query, pages.ReviewSend.Query:
		return one(form, "")
	case pages.ReviewDuplicateMessage.Query:
		if s.reviewMsg == review.MsgDuplicate {
			return []string{review.MsgDuplicate}
		}
		return one(reviewed && !s.FormWhenReviewed, review.MsgDuplicate)
	case pages.ReviewMissingRatingMessage.Query:
		return one(s.reviewMsg == review.MsgMissingRating, review.MsgMissingRating)
	case pages.OwnReviewMenu.Query:
		return one(reviewed, "")
	case pages.DeleteReview.Query:
		return one(reviewed && s.menuOpen, "Delete")
	}

	for n := review.MinStars; n <= review.MaxStars; n++ {
		if loc.Query == pages.RatingStar.With(n).Query {
			return one(form, "")
		}
	}
	if _, ok := s.productFor(pages.ProductImage, loc); ok {
		return one(s.on(pages.StorePath), "")
	}
	if _, ok := s.productFor(pages.AddToCart, loc); ok {
		return one(s.on(pages.StorePath), "Add to Cart")
	}
	if p, ok := s.productFor(pages.CardQuantity, loc); ok {
		return one(s.on(pages.StorePath) && s.qty(p.Name) > 0, "")
	}
	return nil
}

func (s *Shop) click(loc browser.Locator) {
	switch loc.Query {
	case pages.LoginSubmit.Query:
		if s.inputs[pages.LoginEmail.Query] == s.Email && s.inputs[pages.LoginPassword.Query] == s.Password {
			s.loggedIn = true
			s.load("/")
		} else {
			s.loginError = true
		}
		return
	case pages.AgeConfirm.Query:
		s.confirmAge(s.inputs[pages.BirthDateInput.Query])
		return
	case pages.RemoveItem.Query:
		s.cart = s.cart[1:]
		return
	case pages.DecreaseQuantity.Query:
		s.cart[0].qty--
		if s.cart[0].qty == 0 {
			s.cart = s.cart[1:]
		}
		return
	case pages.BuyNow.Query:
		s.buy()
		return
	case pages.ReviewSend.Query:
		s.sendReview()
		return
	case pages.OwnReviewMenu.Query:
		s.menuOpen = true
		return
	case pages.DeleteReview.Query:
		s.menuOpen = false
		if p, ok := s.currentProduct(); ok && !s.IgnoreDeletes {
			i := s.ownComment(p.Name)
			s.comments[p.Name] = append(s.comments[p.Name][:i], s.comments[p.Name][i+1:]...)
		}
		return
	}

	for n := review.MinStars; n <= review.MaxStars; n++ {
		if loc.Query == pages.RatingStar.With(n).Query {
			s.stars = n
			return
		}
	}
	if p, ok := s.productFor(pages.ProductImage, loc); ok {
		s.load(fmt.Sprintf("%s%d", pages.ProductPathPrefix, p.ID))
		return
	}
	if p, ok := s.productFor(pages.AddToCart, loc); ok {
		for i := range s.cart {
			if s.cart[i].name == p.Name {
				s.cart[i].qty++
				return
			}
		}
		s.cart = append(s.cart, line{name: p.Name, qty: 1})
	}
}

func (s *Shop) confirmAge(date string) {
	outcome := agegate.Expect(date, s.Now)
	switch outcome {
	case agegate.Admitted:
		s.admitted = true
		s.ageMsg = agegate.MsgAdmitted
	case agegate.Rejected:
		s.ageMsg = agegate.MsgUnderage
	default:
		s.ageMsg = agegate.MsgMissingDate
	}
	if s.UnknownAgeReply != "" {
		s.admitted = false
		s.ageMsg = s.UnknownAgeReply
	}
}

func (s *Shop) buy() {
	for _, f := range []browser.Locator{
		pages.CheckoutStreet, pages.CheckoutCity, pages.CheckoutPostalCode, pages.CheckoutCardNumber,
		pages.CheckoutNameOnCard, pages.CheckoutExpiry, pages.CheckoutCVC,
	} {
		if s.inputs[f.Query] == "" {
			return
		}
	}
	for _, l := range s.cart {
		s.purchased[l.name] = true
	}
	s.cart = nil
}

func (s *Shop) sendReview() {
	p, ok := s.currentProduct()
	if !ok {
		return
	}
	switch {
	case s.stars == 0:
		s.reviewMsg = review.MsgMissingRating
	case s.ownComment(p.Name) >= 0:
		s.reviewMsg = review.MsgDuplicate
	default:
		s.comments[p.Name] = append(s.comments[p.Name], Comment{
			Author: s.Reviewer,
			Stars:  s.stars,
			Text:   s.inputs[pages.ReviewText.Query],
		})
		s.inputs[pages.ReviewText.Query] = ""
		s.stars = 0
		s.reviewMsg = ""
	}
}

func (s *Shop) renderBody() string {
	var b strings.Builder
	b.WriteString("<body><nav>GroceryMate</nav>")
	if s.agePrompt() {
		b.WriteString(`<div class="modal-content"><p>Please confirm your age</p><input placeholder="DD-MM-YYYY"><button>Confirm</button></div>`)
	}
	if s.ageMsg != "" {
		fmt.Fprintf(&b, `<div class="toast">%s</div>`, html.EscapeString(s.ageMsg))
	}
	if s.loginError {
		fmt.Fprintf(&b, `<p class="error">%s</p>`, pages.MsgInvalidCredentials)
	}
	if p, ok := s.currentProduct(); ok && s.HideReviews {
		fmt.Fprintf(&b, `<h1>%s</h1>`, html.EscapeString(p.Name))
	} else if ok {
		fmt.Fprintf(&b, `<h1>%s</h1><p class="reviews">%d reviews</p><div class="comments">`,
			html.EscapeString(p.Name), len(s.comments[p.Name]))
		for _, c := range s.comments[p.Name] {
			b.WriteString(`<div class="comment"><div class="comment-header">`)
			fmt.Fprintf(&b, `<strong>%s</strong>`, html.EscapeString(c.Author))
			if c.Author == s.Reviewer {
				b.WriteString(`<div class="menu-icon">⋮</div>`)
			}
			b.WriteString(`</div><div class="rating">`)
			for i := 1; i <= review.MaxStars; i++ {
				if i <= c.Stars {
					b.WriteString(`<span class="star filled">★</span>`)
				} else {
					b.WriteString(`<span class="star">☆</span>`)
				}
			}
			fmt.Fprintf(&b, `</div><div class="review-body">%s</div></div>`, html.EscapeString(c.Text))
		}
		b.WriteString("</div>")
		if s.reviewMsg != "" {
			fmt.Fprintf(&b, `<p class="error">%s</p>`, html.EscapeString(s.reviewMsg))
		}
	}
	b.WriteString("<script>window.__state = {};</script></body>")
	return b.String()
}
