package application

import (
	"time"

	"grocerycheck/application/pages"
	"grocerycheck/application/workflow"
	"grocerycheck/infrastructure/config"
)

// EnvFromConfig builds the workflow test data from configuration.
func EnvFromConfig(cfg *config.Config, now func() time.Time) workflow.Env {
	return workflow.Env{
		Site: pages.Site{
			BaseURL: cfg.BaseURL,
			Timeouts: pages.Timeouts{
				Wait:  cfg.Timeouts.Default,
				Probe: cfg.Timeouts.Short,
				Slow:  cfg.Timeouts.Long,
			},
		},
		Credentials:     cfg.Credentials(),
		Checkout:        cfg.CheckoutProfile(),
		Reviewer:        cfg.Reviewer,
		Policy:          cfg.ShippingPolicy(),
		MaxUnits:        cfg.Shipping.MaxUnits,
		RatingProduct:   cfg.Products.Rating,
		ShippingProduct: cfg.Products.Shipping,
		Now:             now,
	}
}
