package pages

import "grocerycheck/infrastructure/browser"

// Every locator the harness uses. Templates marked %s take an XPath literal
// (browser.XPathLiteral); %d takes an integer.

// Login screen (/auth).
var (
	LoginEmail    = browser.XPath("email input", "//input[@placeholder='Email address']")
	LoginPassword = browser.XPath("password input", "//input[@placeholder='Password']")
	LoginSubmit   = browser.CSS("login button", ".submit-btn")
	LoginError    = browser.XPath("login error", "//*[contains(text(), 'Invalid email or password')]")
	// StoreLink is only rendered for signed-in users.
	StoreLink = browser.XPath("store link", "//a[@href='/store']")
)

// Store and age gate (/store).
var (
	BirthDateInput = browser.XPath("birth date input", "//input[@placeholder='DD-MM-YYYY']")
	AgeConfirm     = browser.XPath("age confirm button", "//div[@class='modal-content']//button[text()='Confirm']")
	AgeMessage     = browser.XPath("age gate message",
		"//*[contains(text(), 'You are of age') or contains(text(), 'underage') or contains(text(), 'Please enter your birth date') or contains(text(), 'Invalid date')]")
	ProductCard  = browser.CSS("product card", ".product-card")
	ProductImage = browser.XPath("product image", "//img[@alt=%s]")
	AddToCart    = browser.XPath("add to cart button",
		"//img[@alt=%s]/ancestor::div[contains(@class, 'product-card')]//button[contains(., 'Add to Cart')]")
	CardQuantity = browser.XPath("card quantity input",
		"//img[@alt=%s]/ancestor::div[contains(@class, 'product-card')]//input[contains(@class, 'quantity')]")
)

// Checkout / cart (/checkout).
var (
	ShippingCost     = browser.XPath("shipping cost", "//h5[text()='Shipment:']/following-sibling::h5")
	Subtotal         = browser.XPath("subtotal", "//h5[contains(text(), 'Subtotal')]/following-sibling::h5")
	RemoveItem       = browser.XPath("remove item icon", "//a[@class='remove-icon']")
	DecreaseQuantity = browser.XPath("decrease quantity button", "//button[@class='minus']")

	CheckoutStreet     = browser.XPath("street input", "//input[@placeholder='Street Address']")
	CheckoutCity       = browser.XPath("city input", "//input[@placeholder='City']")
	CheckoutPostalCode = browser.XPath("postal code input", "//input[@placeholder='Postal Code']")
	CheckoutCardNumber = browser.XPath("card number input", "//input[@placeholder='Card number']")
	CheckoutNameOnCard = browser.XPath("name on card input", "//input[@placeholder='Name on card']")
	CheckoutExpiry     = browser.XPath("expiry input", "//input[@placeholder='Expiration']")
	CheckoutCVC        = browser.XPath("cvc input", "//input[@placeholder='Cvv']")
	BuyNow             = browser.XPath("buy now button", "//button[text()='Buy now']")
)

// Product detail and reviews (/product/{id}).
var (
	// ReviewSummary is the review count line every product page shows,
	// whether or not the user may review.
	ReviewSummary = browser.CSS("review summary", "p.reviews")

	RatingWidget = browser.CSS("rating widget", ".interactive-rating")
	RatingStar   = browser.XPath("rating star", "//div[@class='interactive-rating']//span[contains(@class, 'star')][%d]")
	ReviewText   = browser.CSS("review text area", ".new-review-form-control")
	ReviewSend   = browser.XPath("send review button", "//button[contains(@class, 'new-review-btn-send')]")

	ReviewDuplicateMessage = browser.XPath("duplicate review message",
		"//*[contains(text(), 'You have already reviewed this product')]")
	ReviewMissingRatingMessage = browser.XPath("missing rating message",
		`//*[contains(text(), "Invalid input for the field 'Rating'")]`)

	// Only the signed-in user's own comments carry a menu.
	OwnReviewMenu = browser.XPath("own review menu", "(//div[@class='comment']//div[@class='menu-icon'])[1]")
	DeleteReview  = browser.XPath("delete review button", "//div[@class='dropdown-menu']//button[text()='Delete']")
)

// PageBody is the document body, read for DOM snapshots.
var PageBody = browser.CSS("page body", "body")
